// Package bitmap provides the document-set type shared by segments and queries.
package bitmap

import (
	"io"
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap is a set of segment-local document IDs backed by a 32-bit Roaring bitmap.
type Bitmap struct {
	rb *roaring.Bitmap
}

var pool = sync.Pool{
	New: func() any {
		return &Bitmap{rb: roaring.New()}
	},
}

// New creates an empty bitmap.
func New() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

// Of creates a bitmap holding ids.
func Of(ids ...uint32) *Bitmap {
	return &Bitmap{rb: roaring.BitmapOf(ids...)}
}

// Get returns an empty bitmap from the pool. Call Put when done.
func Get() *Bitmap {
	b := pool.Get().(*Bitmap)
	b.rb.Clear()
	return b
}

// Put returns a bitmap to the pool.
func Put(b *Bitmap) {
	if b == nil {
		return
	}
	b.rb.Clear()
	pool.Put(b)
}

// Add adds a document ID.
func (b *Bitmap) Add(id uint32) {
	b.rb.Add(id)
}

// AddMany adds a batch of document IDs.
func (b *Bitmap) AddMany(ids []uint32) {
	b.rb.AddMany(ids)
}

// AddRange adds all IDs in [lo, hi).
func (b *Bitmap) AddRange(lo, hi uint64) {
	b.rb.AddRange(lo, hi)
}

// Remove removes a document ID.
func (b *Bitmap) Remove(id uint32) {
	b.rb.Remove(id)
}

// Contains reports whether id is in the set.
func (b *Bitmap) Contains(id uint32) bool {
	return b.rb.Contains(id)
}

// ForEach calls fn for each ID in ascending order until fn returns false.
func (b *Bitmap) ForEach(fn func(id uint32) bool) {
	it := b.rb.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			break
		}
	}
}

// All returns an iterator over the IDs in ascending order.
func (b *Bitmap) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := b.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// ToArray returns the IDs in ascending order.
func (b *Bitmap) ToArray() []uint32 {
	return b.rb.ToArray()
}

// IsEmpty reports whether the set is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of IDs in the set.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{rb: b.rb.Clone()}
}

// And intersects b with other in place.
func (b *Bitmap) And(other *Bitmap) {
	b.rb.And(other.rb)
}

// Or unions other into b in place.
func (b *Bitmap) Or(other *Bitmap) {
	b.rb.Or(other.rb)
}

// AndNot removes the IDs of other from b in place.
func (b *Bitmap) AndNot(other *Bitmap) {
	b.rb.AndNot(other.rb)
}

// Equals reports whether both sets hold the same IDs.
func (b *Bitmap) Equals(other *Bitmap) bool {
	return b.rb.Equals(other.rb)
}

// Clear removes all IDs.
func (b *Bitmap) Clear() {
	b.rb.Clear()
}

// RunOptimize compacts runs of consecutive IDs. Call once a bitmap is final.
func (b *Bitmap) RunOptimize() {
	b.rb.RunOptimize()
}

// SizeInBytes returns the serialized size.
func (b *Bitmap) SizeInBytes() uint64 {
	return b.rb.GetSerializedSizeInBytes()
}

// WriteTo writes the portable Roaring serialization to w.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	return b.rb.WriteTo(w)
}

// ReadFrom reads a portable Roaring serialization from r.
func (b *Bitmap) ReadFrom(r io.Reader) (int64, error) {
	return b.rb.ReadFrom(r)
}

// Shift returns a new bitmap with offset added to every ID. IDs that
// would overflow uint32 are dropped.
func (b *Bitmap) Shift(offset uint32) *Bitmap {
	if offset == 0 {
		return b.Clone()
	}
	return &Bitmap{rb: roaring.AddOffset(b.rb, offset)}
}

// Union returns the union of all bitmaps as a new bitmap.
func Union(bms ...*Bitmap) *Bitmap {
	rbs := make([]*roaring.Bitmap, 0, len(bms))
	for _, b := range bms {
		if b != nil {
			rbs = append(rbs, b.rb)
		}
	}
	return &Bitmap{rb: roaring.FastOr(rbs...)}
}
