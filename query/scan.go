package query

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"regexp/syntax"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/hupe1980/versionfield/bitmap"
)

// RegexpQuery matches terms whose decoded text matches a regular expression.
//
// The encoded layout interleaves structural bytes with the text, so the
// expression cannot be rewritten onto encoded terms. Every term is
// decoded and tested instead; cost grows with the number of distinct terms.
type RegexpQuery struct {
	pattern string
	re      *regexp.Regexp
	dec     Decoder
}

// CompileRegexp compiles an RE2 expression anchored to the whole value.
func CompileRegexp(pattern string) (*regexp.Regexp, error) {
	// Parse alone first so that a stray ')' cannot escape the anchors.
	if _, err := syntax.Parse(pattern, syntax.Perl); err != nil {
		return nil, invalidRegexp(pattern, err)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, invalidRegexp(pattern, err)
	}
	return re, nil
}

func invalidRegexp(pattern string, err error) error {
	return &PatternError{Pattern: pattern, Pos: -1, Reason: "invalid regular expression", cause: err}
}

// Execute implements Query.
func (q *RegexpQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ords []int
	err := scanTerms(r, q.dec, func(ord int, text string) {
		if q.re.MatchString(text) {
			ords = append(ords, ord)
		}
	})
	if err != nil {
		return nil, err
	}
	return unionPostings(r, ords), nil
}

func (q *RegexpQuery) String() string { return "Regexp(/" + q.pattern + "/)" }

// AutoEdits selects the edit distance from the value length.
const AutoEdits = -1

// FuzzyOptions control a fuzzy query.
type FuzzyOptions struct {
	// MaxEdits is 0, 1, 2 or AutoEdits.
	MaxEdits int
	// PrefixLength is the number of leading characters that must match exactly.
	PrefixLength int
	// MaxExpansions caps the number of distinct terms accepted. The closest
	// terms win; ties go to the smaller term.
	MaxExpansions int
	// Transpositions counts swapping two adjacent characters as one edit.
	Transpositions bool
}

// DefaultFuzzyOptions mirrors the usual search-engine defaults.
func DefaultFuzzyOptions() FuzzyOptions {
	return FuzzyOptions{
		MaxEdits:       AutoEdits,
		PrefixLength:   0,
		MaxExpansions:  50,
		Transpositions: true,
	}
}

func (o FuzzyOptions) validate() error {
	if o.MaxEdits != AutoEdits && (o.MaxEdits < 0 || o.MaxEdits > 2) {
		return fmt.Errorf("fuzzy max edits must be 0, 1, 2 or auto, got %d", o.MaxEdits)
	}
	if o.PrefixLength < 0 {
		return fmt.Errorf("fuzzy prefix length must not be negative, got %d", o.PrefixLength)
	}
	if o.MaxExpansions <= 0 {
		return fmt.Errorf("fuzzy max expansions must be positive, got %d", o.MaxExpansions)
	}
	return nil
}

// edits resolves AutoEdits for value: 0 below three characters, 1 below six, else 2.
func (o FuzzyOptions) edits(value []rune) int {
	if o.MaxEdits != AutoEdits {
		return o.MaxEdits
	}
	switch n := len(value); {
	case n < 3:
		return 0
	case n < 6:
		return 1
	default:
		return 2
	}
}

// FuzzyQuery matches terms within an edit distance of a value.
// Like RegexpQuery it decodes and tests every term.
type FuzzyQuery struct {
	value []rune
	opts  FuzzyOptions
	dec   Decoder
}

type fuzzyCandidate struct {
	ord, dist int
}

// Execute implements Query.
func (q *FuzzyQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	maxEdits := q.opts.edits(q.value)
	prefix := string(q.value[:min(q.opts.PrefixLength, len(q.value))])
	value := string(q.value)

	var candidates []fuzzyCandidate
	err := scanTerms(r, q.dec, func(ord int, text string) {
		if !strings.HasPrefix(text, prefix) {
			return
		}
		var d int
		if q.opts.Transpositions {
			d = osaDistance(q.value, []rune(text))
		} else {
			d = levenshtein.ComputeDistance(value, text)
		}
		if d <= maxEdits {
			candidates = append(candidates, fuzzyCandidate{ord: ord, dist: d})
		}
	})
	if err != nil {
		return nil, err
	}

	if len(candidates) > q.opts.MaxExpansions {
		slices.SortStableFunc(candidates, func(a, b fuzzyCandidate) int {
			return cmp.Compare(a.dist, b.dist)
		})
		candidates = candidates[:q.opts.MaxExpansions]
	}
	ords := make([]int, len(candidates))
	for i, c := range candidates {
		ords[i] = c.ord
	}
	return unionPostings(r, ords), nil
}

func (q *FuzzyQuery) String() string {
	edits := "AUTO"
	if q.opts.MaxEdits != AutoEdits {
		edits = fmt.Sprint(q.opts.MaxEdits)
	}
	return fmt.Sprintf("Fuzzy(%s~%s)", string(q.value), edits)
}

// scanTerms decodes every term in order.
func scanTerms(r TermsReader, dec Decoder, fn func(ord int, text string)) error {
	te := r.Terms()
	for te.Next() {
		text, err := dec.Decode(te.Term())
		if err != nil {
			return fmt.Errorf("decode term %d: %w", te.Ord(), err)
		}
		fn(te.Ord(), text)
	}
	return nil
}

// osaDistance is the optimal string alignment distance: Levenshtein plus
// transposition of adjacent characters, each substring edited at most once.
func osaDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev2 := make([]int, len(b)+1)
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				cur[j] = min(cur[j], prev2[j-2]+1)
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[len(b)]
}
