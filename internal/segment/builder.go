package segment

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/internal/numeric"
	"github.com/hupe1980/versionfield/version"
)

type entry struct {
	term []byte
	doc  uint32
	c    version.Components
}

// Builder accumulates values until sealed. It is not safe for concurrent use.
type Builder struct {
	entries []entry
	maxDoc  uint32
	bytes   int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add records value v for doc. A document may hold several values;
// duplicates collapse on Seal.
func (b *Builder) Add(doc uint32, v version.EncodedVersion) {
	b.entries = append(b.entries, entry{term: v.Bytes(), doc: doc, c: v.Components()})
	b.bytes += v.Len()
	b.Reserve(doc)
}

// Reserve makes doc part of the segment even without values.
func (b *Builder) Reserve(doc uint32) {
	if doc >= b.maxDoc {
		b.maxDoc = doc + 1
	}
}

// Len returns the number of values added.
func (b *Builder) Len() int { return len(b.entries) }

// MaxDoc returns one past the highest document seen.
func (b *Builder) MaxDoc() uint32 { return b.maxDoc }

// SizeBytes estimates the buffered term bytes.
func (b *Builder) SizeBytes() int { return b.bytes }

// Reset empties the builder for reuse.
func (b *Builder) Reset() {
	clear(b.entries)
	b.entries = b.entries[:0]
	b.maxDoc = 0
	b.bytes = 0
}

// Seal builds an immutable segment named id from the buffered values.
// The builder may be reset and reused afterwards.
func (b *Builder) Seal(id string) *Segment {
	entries := slices.Clone(b.entries)
	slices.SortFunc(entries, func(x, y entry) int {
		if c := bytes.Compare(x.term, y.term); c != 0 {
			return c
		}
		return cmp.Compare(x.doc, y.doc)
	})
	entries = slices.CompactFunc(entries, func(x, y entry) bool {
		return x.doc == y.doc && bytes.Equal(x.term, y.term)
	})

	s := &Segment{
		id:     id,
		maxDoc: b.maxDoc,
		num:    numeric.New(),
		pre:    [2]*bitmap.Bitmap{bitmap.New(), bitmap.New()},
	}

	perDoc := make([][]int, b.maxDoc)
	for _, e := range entries {
		if n := len(s.terms); n == 0 || !bytes.Equal(s.terms[n-1], e.term) {
			s.terms = append(s.terms, bytes.Clone(e.term))
			s.postings = append(s.postings, bitmap.New())
		}
		ord := len(s.terms) - 1
		s.postings[ord].Add(e.doc)
		perDoc[e.doc] = append(perDoc[e.doc], ord)
		s.addComponents(e.doc, e.c)
	}
	for _, p := range s.postings {
		p.RunOptimize()
	}
	s.setDocValues(perDoc)
	s.finish()
	return s
}
