// Package numeric provides the columnar int32 index behind the major,
// minor and patch sub-fields.
//
// Each field is a pair of aligned columns, values and docs, sorted by
// (value, doc) on Seal. Range queries binary search the value column and
// batch-add the matching docs. Fields with few distinct values also get
// one bitmap per value and cumulative prefix bitmaps, so that "at most v"
// is a single lookup.
//
// A field may hold several values per document. The index is built by a
// single writer and is read-only after Seal.
package numeric

import (
	"bufio"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sort"

	"github.com/hupe1980/versionfield/bitmap"
)

// LowCardinalityThreshold is the maximum number of distinct values for
// which per-value bitmaps are precomputed.
const LowCardinalityThreshold = 512

// ErrNotSealed is returned when a query runs before Seal.
var ErrNotSealed = errors.New("numeric: index not sealed")

// Index holds the numeric columns of one segment.
type Index struct {
	fields map[string]*field
	sealed bool
}

type field struct {
	values []int32
	docs   []uint32

	min, max    int32
	cardinality int

	// Low-cardinality only.
	unique   []int32
	bitmaps  []*bitmap.Bitmap
	prefixes []*bitmap.Bitmap // prefixes[i] = OR of bitmaps[0..i]
}

// New returns an empty index.
func New() *Index {
	return &Index{fields: make(map[string]*field)}
}

// Add records value for doc under name.
func (ix *Index) Add(name string, value int32, doc uint32) {
	f, ok := ix.fields[name]
	if !ok {
		f = &field{}
		ix.fields[name] = f
	}
	f.values = append(f.values, value)
	f.docs = append(f.docs, doc)
	ix.sealed = false
}

// Seal sorts every field and builds the bitmap indexes.
func (ix *Index) Seal() {
	for _, f := range ix.fields {
		f.seal()
	}
	ix.sealed = true
}

// Sealed reports whether the index is queryable.
func (ix *Index) Sealed() bool { return ix.sealed }

func (f *field) seal() {
	f.sort()
	f.unique, f.bitmaps, f.prefixes = nil, nil, nil
	f.cardinality = 0
	if len(f.values) == 0 {
		return
	}
	f.min = f.values[0]
	f.max = f.values[len(f.values)-1]
	f.cardinality = countDistinct(f.values)
	if f.cardinality <= LowCardinalityThreshold {
		f.buildBitmaps()
	}
}

// sort orders the columns by (value, doc) with an indirect sort.
func (f *field) sort() {
	if slices.IsSorted(f.values) {
		// Docs within equal values still need ordering for stable output.
		sorted := true
		for i := 1; i < len(f.values); i++ {
			if f.values[i] == f.values[i-1] && f.docs[i] < f.docs[i-1] {
				sorted = false
				break
			}
		}
		if sorted {
			return
		}
	}
	idx := make([]int, len(f.values))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		if c := cmp.Compare(f.values[a], f.values[b]); c != 0 {
			return c
		}
		return cmp.Compare(f.docs[a], f.docs[b])
	})
	values := make([]int32, len(idx))
	docs := make([]uint32, len(idx))
	for i, j := range idx {
		values[i] = f.values[j]
		docs[i] = f.docs[j]
	}
	f.values, f.docs = values, docs
}

func (f *field) buildBitmaps() {
	f.unique = make([]int32, 0, f.cardinality)
	f.bitmaps = make([]*bitmap.Bitmap, 0, f.cardinality)
	f.prefixes = make([]*bitmap.Bitmap, 0, f.cardinality)

	start := 0
	for i := 1; i <= len(f.values); i++ {
		if i < len(f.values) && f.values[i] == f.values[start] {
			continue
		}
		bm := bitmap.New()
		bm.AddMany(f.docs[start:i])
		bm.RunOptimize()

		var prefix *bitmap.Bitmap
		if n := len(f.prefixes); n == 0 {
			prefix = bm.Clone()
		} else {
			prefix = f.prefixes[n-1].Clone()
			prefix.Or(bm)
		}
		prefix.RunOptimize()

		f.unique = append(f.unique, f.values[start])
		f.bitmaps = append(f.bitmaps, bm)
		f.prefixes = append(f.prefixes, prefix)
		start = i
	}
}

func countDistinct(values []int32) int {
	if len(values) == 0 {
		return 0
	}
	n := 1
	for i := 1; i < len(values); i++ {
		if values[i] != values[i-1] {
			n++
		}
	}
	return n
}

// Stats returns the bounds and distinct count of a field.
func (ix *Index) Stats(name string) (minVal, maxVal int32, cardinality int) {
	f, ok := ix.fields[name]
	if !ok || len(f.values) == 0 {
		return 0, 0, 0
	}
	return f.min, f.max, f.cardinality
}

// Len returns the number of entries of a field.
func (ix *Index) Len(name string) int {
	if f, ok := ix.fields[name]; ok {
		return len(f.values)
	}
	return 0
}

// IsLowCardinality reports whether a field has precomputed bitmaps.
func (ix *Index) IsLowCardinality(name string) bool {
	f, ok := ix.fields[name]
	return ok && f.bitmaps != nil
}

// QueryRange adds to dst every doc with a value of name in [lo, hi].
func (ix *Index) QueryRange(name string, lo, hi int32, dst *bitmap.Bitmap) error {
	if !ix.sealed {
		return ErrNotSealed
	}
	f, ok := ix.fields[name]
	if !ok || len(f.values) == 0 || lo > hi || hi < f.min || lo > f.max {
		return nil
	}

	if f.bitmaps != nil {
		i := sort.Search(len(f.unique), func(i int) bool { return f.unique[i] >= lo })
		j := sort.Search(len(f.unique), func(i int) bool { return f.unique[i] > hi })
		switch {
		case i >= j:
		case i == 0:
			// A document can hold several values, so prefix differences
			// are not exact; only ranges open at the bottom use them.
			dst.Or(f.prefixes[j-1])
		default:
			dst.Or(bitmap.Union(f.bitmaps[i:j]...))
		}
		return nil
	}

	i := sort.Search(len(f.values), func(i int) bool { return f.values[i] >= lo })
	j := sort.Search(len(f.values), func(i int) bool { return f.values[i] > hi })
	if i < j {
		dst.AddMany(f.docs[i:j])
	}
	return nil
}

// Names returns the field names in sorted order.
func (ix *Index) Names() []string {
	names := make([]string, 0, len(ix.fields))
	for name := range ix.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// WriteTo writes the index in a compact binary form: per field its name,
// entry count, delta-encoded values and docs. Fields are written in name
// order so the output is deterministic. The index must be sealed.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	if !ix.sealed {
		return 0, ErrNotSealed
	}
	cw := &countingWriter{w: bufio.NewWriter(w)}
	buf := make([]byte, binary.MaxVarintLen64)

	putUvarint := func(v uint64) {
		n := binary.PutUvarint(buf, v)
		cw.write(buf[:n])
	}

	putUvarint(uint64(len(ix.fields)))
	for _, name := range ix.Names() {
		f := ix.fields[name]
		putUvarint(uint64(len(name)))
		cw.write([]byte(name))
		putUvarint(uint64(len(f.values)))

		prev := int64(math.MinInt32)
		for _, v := range f.values {
			putUvarint(uint64(int64(v) - prev))
			prev = int64(v)
		}
		// Docs restart their delta chain with every new value.
		var prevDoc uint32
		for i, d := range f.docs {
			if i > 0 && f.values[i] != f.values[i-1] {
				prevDoc = 0
			}
			putUvarint(uint64(d - prevDoc))
			prevDoc = d
		}
	}
	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

// ReadFrom replaces ix with an index written by WriteTo and seals it.
func (ix *Index) ReadFrom(r io.Reader) (int64, error) {
	// Data following the index must stay unread, so only buffer readers
	// that cannot read byte-wise.
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	cr := &countingReader{r: br}

	count, err := binary.ReadUvarint(cr)
	if err != nil {
		return cr.n, fmt.Errorf("numeric: read field count: %w", err)
	}
	fields := make(map[string]*field, min(count, 16))
	for range count {
		keyLen, err := binary.ReadUvarint(cr)
		if err != nil {
			return cr.n, fmt.Errorf("numeric: read name length: %w", err)
		}
		if keyLen > math.MaxUint16 {
			return cr.n, fmt.Errorf("numeric: name length %d out of range", keyLen)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(cr, key); err != nil {
			return cr.n, fmt.Errorf("numeric: read name: %w", err)
		}
		entries, err := binary.ReadUvarint(cr)
		if err != nil {
			return cr.n, fmt.Errorf("numeric: read entry count: %w", err)
		}
		if entries > math.MaxUint32 {
			return cr.n, fmt.Errorf("numeric: entry count %d out of range", entries)
		}

		f := &field{
			values: make([]int32, 0, min(entries, 1<<16)),
			docs:   make([]uint32, 0, min(entries, 1<<16)),
		}
		prev := int64(math.MinInt32)
		for range entries {
			d, err := binary.ReadUvarint(cr)
			if err != nil {
				return cr.n, fmt.Errorf("numeric: read value: %w", err)
			}
			v := prev + int64(d)
			if v > math.MaxInt32 {
				return cr.n, fmt.Errorf("numeric: value %d out of range", v)
			}
			f.values = append(f.values, int32(v))
			prev = v
		}
		var prevDoc uint32
		for i := range f.values {
			if i > 0 && f.values[i] != f.values[i-1] {
				prevDoc = 0
			}
			d, err := binary.ReadUvarint(cr)
			if err != nil {
				return cr.n, fmt.Errorf("numeric: read doc: %w", err)
			}
			prevDoc += uint32(d)
			f.docs = append(f.docs, prevDoc)
		}
		fields[string(key)] = f
	}

	ix.fields = fields
	ix.Seal()
	return cr.n, nil
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) write(p []byte) {
	if c.err != nil {
		return
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

type countingReader struct {
	r byteReader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}
