package bitmap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap_SetOperations(t *testing.T) {
	a := Of(1, 2, 3, 10)
	b := Of(2, 3, 4)

	and := a.Clone()
	and.And(b)
	assert.Equal(t, []uint32{2, 3}, and.ToArray())

	or := a.Clone()
	or.Or(b)
	assert.Equal(t, []uint32{1, 2, 3, 4, 10}, or.ToArray())

	diff := a.Clone()
	diff.AndNot(b)
	assert.Equal(t, []uint32{1, 10}, diff.ToArray())

	assert.Equal(t, []uint32{1, 2, 3, 10}, a.ToArray(), "clone must not alias")
}

func TestBitmap_Union(t *testing.T) {
	u := Union(Of(1), nil, Of(5, 7), New())
	assert.Equal(t, []uint32{1, 5, 7}, u.ToArray())
	assert.True(t, Union().IsEmpty())
}

func TestBitmap_Iteration(t *testing.T) {
	b := New()
	b.AddRange(3, 6)

	var got []uint32
	for id := range b.All() {
		got = append(got, id)
	}
	assert.Equal(t, []uint32{3, 4, 5}, got)

	got = got[:0]
	b.ForEach(func(id uint32) bool {
		got = append(got, id)
		return id < 4
	})
	assert.Equal(t, []uint32{3, 4}, got)
}

func TestBitmap_Serialization(t *testing.T) {
	b := Of(0, 17, 1<<20)
	b.RunOptimize()

	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(buf.Len()), b.SizeInBytes())

	out := New()
	_, err = out.ReadFrom(&buf)
	require.NoError(t, err)
	assert.True(t, b.Equals(out))
}

func TestBitmap_Pool(t *testing.T) {
	b := Get()
	b.Add(9)
	Put(b)

	c := Get()
	defer Put(c)
	assert.True(t, c.IsEmpty())
}

func TestBitmap_Shift(t *testing.T) {
	b := Of(0, 5, 70000)

	assert.Equal(t, []uint32{1000, 1005, 71000}, b.Shift(1000).ToArray())
	assert.Equal(t, []uint32{0, 5, 70000}, b.ToArray())

	same := b.Shift(0)
	same.Add(1)
	assert.False(t, b.Contains(1))
}
