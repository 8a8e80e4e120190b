package segment

import (
	"bytes"
	"sort"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/internal/numeric"
	"github.com/hupe1980/versionfield/query"
	"github.com/hupe1980/versionfield/version"
)

var componentNames = [...]string{
	query.Major: "major",
	query.Minor: "minor",
	query.Patch: "patch",
}

// Segment is an immutable, queryable set of documents.
// It implements query.Reader.
type Segment struct {
	id     string
	maxDoc uint32

	terms    [][]byte
	postings []*bitmap.Bitmap
	prefixes [][version.PrefixLength]byte // aligned with terms

	// Doc values in CSR form: the ordinals of doc are ords[docStart[doc]:docStart[doc+1]].
	docStart []uint32
	ords     []int

	num  *numeric.Index
	pre  [2]*bitmap.Bitmap // [false, true]
	docs *bitmap.Bitmap
}

var _ query.Reader = (*Segment)(nil)

func (s *Segment) addComponents(doc uint32, c version.Components) {
	for i, name := range componentNames {
		if p := c.Part(i); p.Valid {
			s.num.Add(name, p.Value, doc)
		}
	}
	if c.IsPreRelease {
		s.pre[1].Add(doc)
	} else {
		s.pre[0].Add(doc)
	}
}

func (s *Segment) setDocValues(perDoc [][]int) {
	s.docStart = make([]uint32, len(perDoc)+1)
	total := 0
	for _, o := range perDoc {
		total += len(o)
	}
	s.ords = make([]int, 0, total)
	for doc, o := range perDoc {
		s.ords = append(s.ords, o...)
		s.docStart[doc+1] = uint32(len(s.ords))
	}
}

// finish derives the point prefixes and the docs-with-field set.
func (s *Segment) finish() {
	s.prefixes = make([][version.PrefixLength]byte, len(s.terms))
	for i, t := range s.terms {
		s.prefixes[i] = version.PointPrefix(t)
	}
	s.docs = bitmap.New()
	for doc := range s.maxDoc {
		if s.docStart[doc+1] > s.docStart[doc] {
			s.docs.Add(doc)
		}
	}
	s.docs.RunOptimize()
	s.num.Seal()
}

// ID returns the segment name.
func (s *Segment) ID() string { return s.id }

// MaxDoc returns the number of document slots.
func (s *Segment) MaxDoc() uint32 { return s.maxDoc }

// NumTerms returns the number of distinct values.
func (s *Segment) NumTerms() int { return len(s.terms) }

// NumValues returns the number of (document, value) pairs.
func (s *Segment) NumValues() int { return len(s.ords) }

// Terms returns a cursor over the term dictionary.
func (s *Segment) Terms() query.TermsEnum {
	return &termsEnum{terms: s.terms, pos: -1}
}

// Postings returns the documents holding term ord.
func (s *Segment) Postings(ord int) *bitmap.Bitmap { return s.postings[ord] }

// Term returns the encoded bytes of term ord.
func (s *Segment) Term(ord int) []byte { return s.terms[ord] }

// DocOrds returns the ascending term ordinals of doc.
func (s *Segment) DocOrds(doc uint32) []int {
	if doc >= s.maxDoc {
		return nil
	}
	return s.ords[s.docStart[doc]:s.docStart[doc+1]]
}

// PointRange returns documents having a term whose prefix lies in [lo, hi].
// Prefixes are non-decreasing in term order, so the range is contiguous.
func (s *Segment) PointRange(lo, hi [version.PrefixLength]byte) *bitmap.Bitmap {
	i := sort.Search(len(s.prefixes), func(i int) bool {
		return bytes.Compare(s.prefixes[i][:], lo[:]) >= 0
	})
	j := sort.Search(len(s.prefixes), func(i int) bool {
		return bytes.Compare(s.prefixes[i][:], hi[:]) > 0
	})
	if i >= j {
		return bitmap.New()
	}
	return bitmap.Union(s.postings[i:j]...)
}

// ComponentRange returns documents whose component c lies in [lo, hi].
func (s *Segment) ComponentRange(c query.Component, lo, hi int32) *bitmap.Bitmap {
	out := bitmap.New()
	if int(c) >= len(componentNames) {
		return out
	}
	// The index is sealed on construction, so QueryRange cannot fail.
	_ = s.num.QueryRange(componentNames[c], lo, hi, out)
	return out
}

// PreRelease returns documents with (true) or without (false) a pre-release value.
func (s *Segment) PreRelease(flag bool) *bitmap.Bitmap {
	if flag {
		return s.pre[1]
	}
	return s.pre[0]
}

// DocsWithField returns documents holding at least one value.
func (s *Segment) DocsWithField() *bitmap.Bitmap { return s.docs }

// Values returns the encoded values of doc in term order.
func (s *Segment) Values(doc uint32) [][]byte {
	ords := s.DocOrds(doc)
	out := make([][]byte, len(ords))
	for i, ord := range ords {
		out[i] = s.terms[ord]
	}
	return out
}

type termsEnum struct {
	terms [][]byte
	pos   int
}

func (e *termsEnum) Next() bool {
	if e.pos < len(e.terms) {
		e.pos++
	}
	return e.pos < len(e.terms)
}

func (e *termsEnum) SeekCeil(target []byte) bool {
	from := max(e.pos, 0)
	e.pos = from + sort.Search(len(e.terms)-from, func(i int) bool {
		return bytes.Compare(e.terms[from+i], target) >= 0
	})
	return e.pos < len(e.terms)
}

func (e *termsEnum) Term() []byte { return e.terms[e.pos] }

func (e *termsEnum) Ord() int { return e.pos }
