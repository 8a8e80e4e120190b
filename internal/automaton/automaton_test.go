package automaton

import (
	"bytes"
	"slices"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceIter struct {
	terms [][]byte
	pos   int
	seeks int
}

func newSliceIter(terms ...string) *sliceIter {
	bs := make([][]byte, len(terms))
	for i, t := range terms {
		bs[i] = []byte(t)
	}
	slices.SortFunc(bs, bytes.Compare)
	return &sliceIter{terms: bs, pos: -1}
}

func (s *sliceIter) Next() bool {
	s.pos++
	return s.pos < len(s.terms)
}

func (s *sliceIter) SeekCeil(target []byte) bool {
	s.seeks++
	s.pos = sort.Search(len(s.terms), func(i int) bool {
		return bytes.Compare(s.terms[i], target) >= 0
	})
	return s.pos < len(s.terms)
}

func (s *sliceIter) Term() []byte { return s.terms[s.pos] }

func collect(d *DFA, it *sliceIter) []string {
	var out []string
	d.Intersect(it, func() bool {
		out = append(out, string(it.Term()))
		return true
	})
	return out
}

func TestDFA_Run(t *testing.T) {
	b := NewBuilder()
	// ab*c?
	f := b.Concat(b.Byte('a'), b.Star(b.Byte('b')), b.Optional(b.Byte('c')))
	d, err := b.Compile(f, 0)
	require.NoError(t, err)

	tests := []struct {
		in   string
		want bool
	}{
		{"a", true},
		{"ab", true},
		{"abbbc", true},
		{"ac", true},
		{"", false},
		{"abcb", false},
		{"b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Run([]byte(tt.in)), tt.in)
	}
}

func TestDFA_LiteralAndUnion(t *testing.T) {
	b := NewBuilder()
	f := b.Union(b.Literal("foo"), b.Literal("bar"), b.Empty())
	d, err := b.Compile(f, 0)
	require.NoError(t, err)

	assert.True(t, d.Run([]byte("foo")))
	assert.True(t, d.Run([]byte("bar")))
	assert.True(t, d.Run(nil))
	assert.False(t, d.Run([]byte("fo")))
	assert.False(t, d.MatchesNothing())
}

func TestDFA_PrunesDeadStates(t *testing.T) {
	b := NewBuilder()
	// "a" followed by a branch that can never accept: (x[]) | b
	never := b.Concat(b.Byte('x'), b.Range(0x10, 0x0F))
	f := b.Concat(b.Byte('a'), b.Union(never, b.Byte('b')))
	d, err := b.Compile(f, 0)
	require.NoError(t, err)

	s := d.Step(0, 'a')
	require.NotEqual(t, -1, s)
	assert.Equal(t, -1, d.Step(s, 'x'), "x leads nowhere and must be pruned")
	assert.NotEqual(t, -1, d.Step(s, 'b'))
}

func TestDFA_MatchesNothing(t *testing.T) {
	b := NewBuilder()
	d, err := b.Compile(b.Range(0x10, 0x0F), 0)
	require.NoError(t, err)
	assert.True(t, d.MatchesNothing())
	assert.Empty(t, collect(d, newSliceIter("a", "b")))
}

func TestCompile_TooComplex(t *testing.T) {
	b := NewBuilder()
	// (a|b)*a(a|b){15} needs 2^15 DFA states.
	frags := []Frag{b.Star(b.Union(b.Byte('a'), b.Byte('b'))), b.Byte('a')}
	for range 15 {
		frags = append(frags, b.Union(b.Byte('a'), b.Byte('b')))
	}
	_, err := b.Compile(b.Concat(frags...), 1000)
	assert.ErrorIs(t, err, ErrTooComplex)
}

func TestIntersect_MatchesBruteForce(t *testing.T) {
	terms := []string{
		"", "a", "aa", "ab", "abc", "abd", "ac", "b", "ba", "bab", "bb",
		"c", "ca", "cab", "x\xff", "x\xff\xff", "y",
	}

	patterns := map[string]func(b *Builder) Frag{
		"a*": func(b *Builder) Frag {
			return b.Concat(b.Byte('a'), b.AnyString())
		},
		"*b": func(b *Builder) Frag {
			return b.Concat(b.AnyString(), b.Byte('b'))
		},
		"?a?": func(b *Builder) Frag {
			return b.Concat(b.AnyByte(), b.Byte('a'), b.AnyByte())
		},
		"x\\xff+": func(b *Builder) Frag {
			return b.Concat(b.Byte('x'), b.Byte(0xff), b.Star(b.Byte(0xff)))
		},
		"exact": func(b *Builder) Frag {
			return b.Literal("abd")
		},
	}

	for name, build := range patterns {
		t.Run(name, func(t *testing.T) {
			b := NewBuilder()
			d, err := b.Compile(build(b), 0)
			require.NoError(t, err)

			var want []string
			for _, term := range newSliceIter(terms...).terms {
				if d.Run(term) {
					want = append(want, string(term))
				}
			}
			assert.Equal(t, want, collect(d, newSliceIter(terms...)))
		})
	}
}

func TestIntersect_Seeks(t *testing.T) {
	var terms []string
	for c := 'a'; c <= 'z'; c++ {
		for d := 'a'; d <= 'z'; d++ {
			terms = append(terms, string([]rune{c, d}))
		}
	}

	b := NewBuilder()
	d, err := b.Compile(b.Concat(b.Byte('q'), b.AnyByte()), 0)
	require.NoError(t, err)

	it := newSliceIter(terms...)
	got := collect(d, it)
	assert.Len(t, got, 26)
	assert.Equal(t, "qa", got[0])
	assert.Equal(t, "qz", got[25])
	assert.LessOrEqual(t, it.seeks, 2, "non-matching blocks must be skipped by seeking")
}

func TestIntersect_StopsEarly(t *testing.T) {
	b := NewBuilder()
	d, err := b.Compile(b.AnyString(), 0)
	require.NoError(t, err)

	it := newSliceIter("a", "b", "c")
	var got []string
	d.Intersect(it, func() bool {
		got = append(got, string(it.Term()))
		return len(got) < 2
	})
	assert.Equal(t, []string{"a", "b"}, got)
}
