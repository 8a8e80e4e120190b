package query

import (
	"bytes"
	"slices"
	"sort"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/version"
)

// memReader is a naive Reader over a handful of documents.
type memReader struct {
	terms    [][]byte
	postings []*bitmap.Bitmap
	docOrds  map[uint32][]int
	comps    map[uint32][]version.Components
	docs     *bitmap.Bitmap
	maxDoc   uint32
}

// newMemReader indexes docs; docs[i] holds the values of document i.
func newMemReader(enc *version.Encoder, docs ...[]string) *memReader {
	type entry struct {
		doc uint32
		v   version.EncodedVersion
	}
	var entries []entry
	for i, vals := range docs {
		for _, s := range vals {
			v, err := enc.Encode(s)
			if err != nil {
				panic(err)
			}
			entries = append(entries, entry{doc: uint32(i), v: v})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].v.Compare(entries[j].v) < 0
	})

	r := &memReader{
		docOrds: map[uint32][]int{},
		comps:   map[uint32][]version.Components{},
		docs:    bitmap.New(),
		maxDoc:  uint32(len(docs)),
	}
	for _, e := range entries {
		if n := len(r.terms); n == 0 || !bytes.Equal(r.terms[n-1], e.v.Bytes()) {
			r.terms = append(r.terms, e.v.Bytes())
			r.postings = append(r.postings, bitmap.New())
		}
		ord := len(r.terms) - 1
		r.postings[ord].Add(e.doc)
		if ords := r.docOrds[e.doc]; !slices.Contains(ords, ord) {
			r.docOrds[e.doc] = append(ords, ord)
		}
		r.comps[e.doc] = append(r.comps[e.doc], e.v.Components())
		r.docs.Add(e.doc)
	}
	return r
}

func (r *memReader) Terms() TermsEnum { return &memTerms{terms: r.terms, pos: -1} }
func (r *memReader) NumTerms() int { return len(r.terms) }
func (r *memReader) Postings(ord int) *bitmap.Bitmap { return r.postings[ord] }
func (r *memReader) DocOrds(doc uint32) []int { return r.docOrds[doc] }
func (r *memReader) DocsWithField() *bitmap.Bitmap { return r.docs }
func (r *memReader) MaxDoc() uint32 { return r.maxDoc }

func (r *memReader) PointRange(lo, hi [version.PrefixLength]byte) *bitmap.Bitmap {
	out := bitmap.New()
	for ord, t := range r.terms {
		p := version.PointPrefix(t)
		if bytes.Compare(p[:], lo[:]) >= 0 && bytes.Compare(p[:], hi[:]) <= 0 {
			out.Or(r.postings[ord])
		}
	}
	return out
}

func (r *memReader) ComponentRange(c Component, lo, hi int32) *bitmap.Bitmap {
	out := bitmap.New()
	for doc, cs := range r.comps {
		for _, comp := range cs {
			p := comp.Part(int(c))
			if p.Valid && p.Value >= lo && p.Value <= hi {
				out.Add(doc)
			}
		}
	}
	return out
}

func (r *memReader) PreRelease(flag bool) *bitmap.Bitmap {
	out := bitmap.New()
	for doc, cs := range r.comps {
		for _, comp := range cs {
			if comp.IsPreRelease == flag {
				out.Add(doc)
			}
		}
	}
	return out
}

type memTerms struct {
	terms [][]byte
	pos   int
}

func (t *memTerms) Next() bool {
	t.pos++
	return t.pos < len(t.terms)
}

func (t *memTerms) SeekCeil(target []byte) bool {
	t.pos = sort.Search(len(t.terms), func(i int) bool {
		return bytes.Compare(t.terms[i], target) >= 0
	})
	return t.pos < len(t.terms)
}

func (t *memTerms) Term() []byte { return t.terms[t.pos] }
func (t *memTerms) Ord() int { return t.pos }
