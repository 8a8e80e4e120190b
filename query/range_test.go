package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/testutil"
	"github.com/hupe1980/versionfield/version"
)

func allowAll() Policy { return Policy{AllowExpensive: true} }

func run(t *testing.T, q Query, r Reader) []uint32 {
	t.Helper()
	bm, err := q.Execute(context.Background(), r)
	require.NoError(t, err)
	return bm.ToArray()
}

func TestRange_ExclusiveUpper(t *testing.T) {
	enc := version.NewEncoder(version.Lexicographic)
	r := newMemReader(enc, []string{"1.0.0"}, []string{"1.5.0"}, []string{"2.0.0"})
	b := NewBuilder(enc, allowAll())

	q, err := b.Range("1.0.0", "2.0.0", true, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{0, 1}, run(t, q, r))
}

func TestRange_Bounds(t *testing.T) {
	enc := version.NewEncoder(version.Lexicographic)
	r := newMemReader(enc,
		[]string{"1.0.0-rc.1"},
		[]string{"1.0.0"},
		[]string{"1.0.0+build.7"},
		[]string{"1.5.0"},
		[]string{"2.0.0"},
		[]string{"2.0.0-alpha.beta.gamma.delta"},
		[]string{"10.0.0"},
	)
	b := NewBuilder(enc, allowAll())

	tests := []struct {
		name         string
		lower, upper string
		incLo, incHi bool
		want         []uint32
	}{
		{"inclusive both", "1.0.0", "2.0.0", true, true, []uint32{1, 2, 3, 4, 5}},
		{"exclusive lower", "1.0.0", "2.0.0", false, true, []uint32{2, 3, 4, 5}},
		{"exclusive both", "1.0.0", "2.0.0", false, false, []uint32{2, 3, 5}},
		{"unbounded lower", "", "1.0.0", false, true, []uint32{0, 1}},
		{"unbounded upper", "2.0.0", "", true, false, []uint32{4, 6}},
		{"unbounded", "", "", false, false, []uint32{0, 1, 2, 3, 4, 5, 6}},
		{"pre-release below release", "1.0.0-a", "1.0.0", true, false, []uint32{0}},
		{"long lower bound", "2.0.0-alpha.beta.gamma.delta", "10.0.0", true, false, []uint32{4, 5}},
		{"long lower bound exclusive", "2.0.0-alpha.beta.gamma", "10.0.0", false, false, []uint32{4, 5}},
		{"numeric order", "2.0.0", "10.0.0", false, true, []uint32{6}},
		{"empty point range", "1.0.0", "1.0.0", true, false, nil},
		{"inverted", "2.0.0", "1.0.0", true, true, nil},
		{"single point", "1.5.0", "1.5.0", true, true, []uint32{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := b.Range(tt.lower, tt.upper, tt.incLo, tt.incHi)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, run(t, q, r))
		})
	}
}

// Randomized bounds checked against the semantic comparator.
func TestRange_MatchesCompare(t *testing.T) {
	for _, mode := range []version.SortMode{version.Lexicographic, version.NumericAware} {
		t.Run(mode.String(), func(t *testing.T) {
			rng := testutil.NewRNG(99)
			enc := version.NewEncoder(mode)
			values := rng.Versions(300)
			docs := make([][]string, len(values))
			for i, v := range values {
				docs[i] = []string{v}
			}
			r := newMemReader(enc, docs...)
			b := NewBuilder(enc, allowAll())

			for range 200 {
				lo, hi := values[rng.Intn(len(values))], values[rng.Intn(len(values))]
				incLo, incHi := rng.Intn(2) == 0, rng.Intn(2) == 0

				var want []uint32
				for i, v := range values {
					cl, err := version.Compare(v, lo, mode)
					require.NoError(t, err)
					ch, err := version.Compare(v, hi, mode)
					require.NoError(t, err)
					if (cl > 0 || (incLo && cl == 0)) && (ch < 0 || (incHi && ch == 0)) {
						want = append(want, uint32(i))
					}
				}

				q, err := b.Range(lo, hi, incLo, incHi)
				require.NoError(t, err)
				assert.ElementsMatch(t, want, run(t, q, r), "%s", q)
			}
		})
	}
}

func TestRange_NeedsConfirmation(t *testing.T) {
	enc := version.NewEncoder(version.Lexicographic)
	short, err := enc.Encode("1.0.0")
	require.NoError(t, err)
	long, err := enc.Encode("1.0.0-alpha.1")
	require.NoError(t, err)
	require.Less(t, short.Len(), version.PrefixLength)
	require.GreaterOrEqual(t, long.Len(), version.PrefixLength)

	tests := []struct {
		name         string
		lower, upper *Bound
		want         bool
	}{
		{"unbounded", nil, nil, false},
		{"short inclusive", &Bound{short, true}, &Bound{short, true}, false},
		{"short exclusive", &Bound{short, false}, nil, true},
		{"long inclusive", nil, &Bound{long, true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRangeQuery(tt.lower, tt.upper).NeedsConfirmation())
		})
	}
}

func TestRange_String(t *testing.T) {
	enc := version.NewEncoder(version.Lexicographic)
	b := NewBuilder(enc, allowAll())

	q, err := b.Range("1.0.0", "2.0.0", true, false)
	require.NoError(t, err)
	assert.Equal(t, "Range[1.0.0 TO 2.0.0}", q.String())

	q, err = b.Range("", "2.0.0", false, true)
	require.NoError(t, err)
	assert.Equal(t, "Range(* TO 2.0.0]", q.String())
}

func TestRange_InvalidBound(t *testing.T) {
	b := NewBuilder(version.NewEncoder(version.Lexicographic), allowAll())
	_, err := b.Range("abc", "", true, true)
	assert.ErrorIs(t, err, version.ErrInvalidVersionFormat)
}

func TestRange_Cancelled(t *testing.T) {
	enc := version.NewEncoder(version.Lexicographic)
	r := newMemReader(enc, []string{"1.0.0"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRangeQuery(nil, nil).Execute(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfirm(t *testing.T) {
	enc := version.NewEncoder(version.Lexicographic)
	r := newMemReader(enc, []string{"1.0.0", "3.0.0"}, []string{"2.0.0"}, []string{"3.0.0"})
	// Ordinals: 1.0.0=0, 2.0.0=1, 3.0.0=2.
	got := confirm(bitmap.Of(0, 1, 2), ordRange{r: r, lo: 1, hi: 2})
	assert.Equal(t, []uint32{1}, got.ToArray())

	got = confirm(bitmap.Of(0, 1, 2), ordRange{r: r, lo: 2, hi: 3})
	assert.Equal(t, []uint32{0, 2}, got.ToArray())
}
