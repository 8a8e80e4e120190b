package query

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/internal/automaton"
	"github.com/hupe1980/versionfield/version"
)

// AutomatonQuery matches every term accepted by a compiled automaton.
// Wildcard and prefix queries compile to it.
type AutomatonQuery struct {
	kind  string
	label string
	dfa   *automaton.DFA
}

// Execute implements Query. The automaton is intersected with the term
// dictionary directly; no term is decoded.
func (q *AutomatonQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	te := r.Terms()
	var ords []int
	q.dfa.Intersect(te, func() bool {
		ords = append(ords, te.Ord())
		return true
	})
	return unionPostings(r, ords), nil
}

func (q *AutomatonQuery) String() string { return q.label }

// CompileWildcard compiles a wildcard pattern over version text into an
// automaton over encoded versions.
//
// '*' matches any run of characters, '?' exactly one, '\' escapes the
// next character. Every other character matches itself. Because the
// user writes against decoded text, each pattern character expands to
// the byte forms the encoder may have produced for it:
//
//   - a digit may be preceded by a numeric or digit-run marker and a
//     length byte, unless it follows a literal digit;
//   - '.' matches a separator byte, or a raw '.' inside build metadata;
//   - '-' may be preceded by the main terminator and pre-release flag;
//   - '+' may be preceded by a terminator and the release flag;
//   - after the first literal '+' everything is raw build bytes.
//
// A trailing optional terminator and release flag lets "1.2.3" match the
// encoded release without the pattern mentioning them.
func CompileWildcard(pattern string, maxStates int) (*automaton.DFA, error) {
	b := automaton.NewBuilder()
	frags := make([]automaton.Frag, 0, len(pattern)+1)
	inBuild := false
	prevDigit := false

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '*':
			frags = append(frags, b.AnyString())
			prevDigit = false
			i++
			continue
		case '?':
			frags = append(frags, anyChar(b, inBuild))
			prevDigit = false
			i++
			continue
		case '\\':
			if i+1 == len(pattern) {
				return nil, &PatternError{Pattern: pattern, Pos: i, Reason: "dangling escape"}
			}
			i++
			c = pattern[i]
		}

		if c < 0x20 {
			return nil, &PatternError{Pattern: pattern, Pos: i, Reason: "control character"}
		}
		if c >= utf8.RuneSelf {
			_, size := utf8.DecodeRuneInString(pattern[i:])
			frags = append(frags, b.Literal(pattern[i:i+size]))
			prevDigit = false
			i += size
			continue
		}

		frags = append(frags, literalChar(b, c, inBuild, prevDigit))
		prevDigit = isDigit(c)
		if c == '+' {
			inBuild = true
		}
		i++
	}

	frags = append(frags, b.Optional(b.Concat(
		b.Byte(version.Terminator),
		b.Optional(b.Byte(version.NoPreRelease)),
	)))

	dfa, err := b.Compile(b.Concat(frags...), maxStates)
	if err != nil {
		if errors.Is(err, automaton.ErrTooComplex) {
			return nil, &PatternError{Pattern: pattern, Pos: -1, Reason: "pattern too complex", cause: err}
		}
		return nil, err
	}
	return dfa, nil
}

// EscapeWildcard quotes the wildcard metacharacters in s.
func EscapeWildcard(s string) string {
	if !strings.ContainsAny(s, `*?\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func literalChar(b *automaton.Builder, c byte, inBuild, prevDigit bool) automaton.Frag {
	if inBuild {
		return b.Byte(c)
	}
	switch {
	case isDigit(c):
		if prevDigit {
			return b.Byte(c)
		}
		return b.Concat(b.Optional(numberPrefix(b)), b.Byte(c))
	case c == '.':
		return b.Union(b.Byte(version.Separator), b.Byte('.'))
	case c == '-':
		return dashForm(b)
	case c == '+':
		return plusForm(b)
	default:
		return b.Byte(c)
	}
}

// anyChar matches the encoded forms of exactly one decoded character.
func anyChar(b *automaton.Builder, inBuild bool) automaton.Frag {
	if inBuild {
		return b.Union(b.Range(0x20, 0x7F), utf8Multi(b))
	}
	return b.Union(
		b.Concat(b.Optional(numberPrefix(b)), b.Range('0', '9')),
		dashForm(b),
		plusForm(b),
		b.Byte(version.Separator),
		b.Range(0x20, 0x7F),
		utf8Multi(b),
	)
}

// numberPrefix matches a numeric or digit-run marker and its length byte.
func numberPrefix(b *automaton.Builder) automaton.Frag {
	return b.Concat(b.Range(version.NumericMarker, version.DigitRunMarker), b.Range(0x81, 0xFF))
}

func dashForm(b *automaton.Builder) automaton.Frag {
	return b.Concat(
		b.Optional(b.Concat(b.Byte(version.Terminator), b.Byte(version.HasPreRelease))),
		b.Byte('-'),
	)
}

func plusForm(b *automaton.Builder) automaton.Frag {
	return b.Concat(
		b.Optional(b.Concat(b.Byte(version.Terminator), b.Optional(b.Byte(version.NoPreRelease)))),
		b.Byte('+'),
	)
}

// utf8Multi matches one multi-byte UTF-8 sequence.
func utf8Multi(b *automaton.Builder) automaton.Frag {
	cont := func() automaton.Frag { return b.Range(0x80, 0xBF) }
	return b.Union(
		b.Concat(b.Range(0xC2, 0xDF), cont()),
		b.Concat(b.Range(0xE0, 0xEF), cont(), cont()),
		b.Concat(b.Range(0xF0, 0xF4), cont(), cont(), cont()),
	)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
