package query

import (
	"context"
	"strings"

	"github.com/hupe1980/versionfield/bitmap"
)

// Query is a compiled, immutable filter over one field.
type Query interface {
	// Execute returns the matching segment-local document IDs.
	// The returned bitmap is owned by the caller.
	Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error)
	String() string
}

// Matcher confirms a single candidate document.
type Matcher interface {
	Matches(doc uint32) bool
}

// confirm keeps the candidates accepted by m. It is the second phase of a
// two-phase iteration: a cheap approximate set first, an exact check per
// document second.
func confirm(candidates *bitmap.Bitmap, m Matcher) *bitmap.Bitmap {
	out := bitmap.New()
	candidates.ForEach(func(doc uint32) bool {
		if m.Matches(doc) {
			out.Add(doc)
		}
		return true
	})
	return out
}

// ordRange accepts documents holding any term ordinal in [lo, hi).
type ordRange struct {
	r      DocValuesReader
	lo, hi int
}

func (m ordRange) Matches(doc uint32) bool {
	for _, ord := range m.r.DocOrds(doc) {
		if ord >= m.hi {
			return false
		}
		if ord >= m.lo {
			return true
		}
	}
	return false
}

// unionPostings ORs the postings of ords.
func unionPostings(r TermsReader, ords []int) *bitmap.Bitmap {
	if len(ords) == 0 {
		return bitmap.New()
	}
	bms := make([]*bitmap.Bitmap, len(ords))
	for i, ord := range ords {
		bms[i] = r.Postings(ord)
	}
	return bitmap.Union(bms...)
}

type matchNone struct{}

// MatchNone returns a query without results.
func MatchNone() Query { return matchNone{} }

func (matchNone) Execute(ctx context.Context, _ Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bitmap.New(), nil
}

func (matchNone) String() string { return "MatchNone" }

type existsQuery struct{}

// Exists returns a query matching documents with at least one value.
func Exists() Query { return existsQuery{} }

func (existsQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.DocsWithField().Clone(), nil
}

func (existsQuery) String() string { return "Exists" }

type boolQuery struct {
	must bool // true: intersection, false: union
	qs   []Query
}

// And returns a query matching documents matched by every q.
func And(qs ...Query) Query { return &boolQuery{must: true, qs: qs} }

// Or returns a query matching documents matched by any q.
func Or(qs ...Query) Query { return &boolQuery{qs: qs} }

func (q *boolQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if len(q.qs) == 0 {
		return bitmap.New(), nil
	}
	var acc *bitmap.Bitmap
	for _, sub := range q.qs {
		bm, err := sub.Execute(ctx, r)
		if err != nil {
			return nil, err
		}
		switch {
		case acc == nil:
			acc = bm
		case q.must:
			acc.And(bm)
		default:
			acc.Or(bm)
		}
		if q.must && acc.IsEmpty() {
			break
		}
	}
	return acc, nil
}

func (q *boolQuery) String() string {
	op := " OR "
	if q.must {
		op = " AND "
	}
	parts := make([]string, len(q.qs))
	for i, sub := range q.qs {
		parts[i] = sub.String()
	}
	return "(" + strings.Join(parts, op) + ")"
}
