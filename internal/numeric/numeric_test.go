package numeric

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/versionfield/bitmap"
)

func query(t *testing.T, ix *Index, name string, lo, hi int32) []uint32 {
	t.Helper()
	dst := bitmap.New()
	require.NoError(t, ix.QueryRange(name, lo, hi, dst))
	return dst.ToArray()
}

func TestIndex_QueryRange(t *testing.T) {
	build := func(n int) *Index {
		ix := New()
		// Reverse insertion order exercises the sort.
		for i := n - 1; i >= 0; i-- {
			ix.Add("patch", int32(i), uint32(i))
		}
		ix.Seal()
		return ix
	}

	for _, n := range []int{100, LowCardinalityThreshold + 100} {
		ix := build(n)
		assert.Equal(t, n <= LowCardinalityThreshold, ix.IsLowCardinality("patch"))

		tests := []struct {
			name   string
			lo, hi int32
			want   int
		}{
			{"all", 0, int32(n), n},
			{"first ten", 0, 9, 10},
			{"inner", 10, 20, 11},
			{"single", 50, 50, 1},
			{"inverted", 50, 49, 0},
			{"below", -10, -1, 0},
			{"above", int32(n), int32(n) + 10, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Len(t, query(t, ix, "patch", tt.lo, tt.hi), tt.want)
			})
		}
	}
}

func TestIndex_MultiValued(t *testing.T) {
	ix := New()
	ix.Add("major", 1, 0)
	ix.Add("major", 5, 0)
	ix.Add("major", 3, 1)
	ix.Add("major", 5, 2)
	ix.Seal()

	assert.Equal(t, []uint32{0, 2}, query(t, ix, "major", 5, 5))
	assert.Equal(t, []uint32{0, 1}, query(t, ix, "major", 0, 3))
	assert.Equal(t, []uint32{0, 1, 2}, query(t, ix, "major", 2, 9))
	assert.Empty(t, query(t, ix, "major", 2, 2))
	assert.Empty(t, query(t, ix, "minor", 0, 10))

	minVal, maxVal, card := ix.Stats("major")
	assert.Equal(t, int32(1), minVal)
	assert.Equal(t, int32(5), maxVal)
	assert.Equal(t, 3, card)
	assert.Equal(t, 4, ix.Len("major"))
}

func TestIndex_NotSealed(t *testing.T) {
	ix := New()
	ix.Add("major", 1, 0)
	assert.ErrorIs(t, ix.QueryRange("major", 0, 1, bitmap.New()), ErrNotSealed)
	_, err := ix.WriteTo(&bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNotSealed)
}

func TestIndex_WriteReadRoundTrip(t *testing.T) {
	ix := New()
	for i := range 2000 {
		ix.Add("major", int32(i%7), uint32(i))
		ix.Add("minor", int32(i*31%1000), uint32(i))
	}
	ix.Add("patch", 0, 3)
	ix.Seal()

	var buf bytes.Buffer
	n, err := ix.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	// Trailing bytes must survive the read.
	buf.WriteString("tail")

	got := New()
	rn, err := got.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, n, rn)
	assert.Equal(t, "tail", buf.String())
	assert.True(t, got.Sealed())
	assert.Equal(t, ix.Names(), got.Names())

	for _, name := range ix.Names() {
		for _, r := range [][2]int32{{0, 0}, {0, 3}, {2, 5}, {100, 400}, {-5, 2000}} {
			assert.Equal(t, query(t, ix, name, r[0], r[1]), query(t, got, name, r[0], r[1]), "%s %v", name, r)
		}
	}
}

func TestIndex_ReadTruncated(t *testing.T) {
	ix := New()
	for i := range 50 {
		ix.Add("major", int32(i), uint32(i))
	}
	ix.Seal()
	var buf bytes.Buffer
	_, err := ix.WriteTo(&buf)
	require.NoError(t, err)

	data := buf.Bytes()
	for _, cut := range []int{0, 1, 3, len(data) / 2, len(data) - 1} {
		_, err := New().ReadFrom(bytes.NewReader(data[:cut]))
		assert.Error(t, err, "cut at %d", cut)
	}
}
