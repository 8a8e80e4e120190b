package query

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/version"
)

// TermQuery matches documents holding exactly one encoded version.
type TermQuery struct {
	term version.EncodedVersion
}

// NewTermQuery creates a TermQuery.
func NewTermQuery(v version.EncodedVersion) *TermQuery {
	return &TermQuery{term: v}
}

// Execute implements Query.
func (q *TermQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	te := r.Terms()
	if te.SeekCeil(q.term.Bytes()) && bytes.Equal(te.Term(), q.term.Bytes()) {
		return r.Postings(te.Ord()).Clone(), nil
	}
	return bitmap.New(), nil
}

func (q *TermQuery) String() string { return "Term(" + q.term.String() + ")" }

// TermsQuery matches documents holding any of a set of encoded versions.
type TermsQuery struct {
	terms []version.EncodedVersion
}

// NewTermsQuery creates a TermsQuery. Duplicate terms are removed.
func NewTermsQuery(vs ...version.EncodedVersion) *TermsQuery {
	terms := slices.Clone(vs)
	slices.SortFunc(terms, version.EncodedVersion.Compare)
	terms = slices.CompactFunc(terms, func(a, b version.EncodedVersion) bool { return a.Compare(b) == 0 })
	return &TermsQuery{terms: terms}
}

// Execute implements Query.
func (q *TermsQuery) Execute(ctx context.Context, r Reader) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Terms are sorted, so one forward cursor visits them all.
	te := r.Terms()
	var ords []int
	for _, t := range q.terms {
		if !te.SeekCeil(t.Bytes()) {
			break
		}
		if bytes.Equal(te.Term(), t.Bytes()) {
			ords = append(ords, te.Ord())
		}
	}
	return unionPostings(r, ords), nil
}

func (q *TermsQuery) String() string {
	parts := make([]string, len(q.terms))
	for i, t := range q.terms {
		parts[i] = t.String()
	}
	return "Terms(" + strings.Join(parts, ", ") + ")"
}
