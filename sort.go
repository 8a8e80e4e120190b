package versionfield

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/hupe1980/versionfield/query"
)

// Hit is one document of a sorted search together with the value it was
// ordered by.
type Hit struct {
	Doc   uint32
	Value string
	key   []byte
}

// SortOptions control SortedSearch.
type SortOptions struct {
	// Desc orders by each document's greatest value, highest first.
	// Otherwise documents are ordered by their smallest value, lowest first.
	Desc bool
	// Limit caps the number of hits; 0 returns all of them.
	Limit int
}

// SortedSearch returns the flushed documents matching q in version order,
// read from the per-document values. A multi-valued document sorts by its
// smallest value ascending and by its largest value descending. Documents
// without a value come last; ties are broken by document ID.
func (ix *Index) SortedSearch(ctx context.Context, q Query, opts SortOptions) ([]Hit, error) {
	start := time.Now()
	kind := query.KindOf(q)

	segs, local, err := ix.matchSegments(ctx, q)
	if err != nil {
		err = translateError(err)
		ix.opts.metrics.RecordSearch(kind, 0, time.Since(start), err)
		ix.log.LogSearch(ctx, q.String(), 0, 0, 0, err)
		return nil, err
	}

	var hits []Hit
	for i, s := range segs {
		for doc := range local[i].All() {
			h := Hit{Doc: s.base + doc}
			if ords := s.seg.DocOrds(doc); len(ords) > 0 {
				ord := ords[0]
				if opts.Desc {
					ord = ords[len(ords)-1]
				}
				h.key = s.seg.Term(ord)
			}
			hits = append(hits, h)
		}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.key == nil && b.key == nil:
		case a.key == nil:
			return 1
		case b.key == nil:
			return -1
		default:
			c := bytes.Compare(a.key, b.key)
			if opts.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Doc, b.Doc)
	})
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	for i := range hits {
		if hits[i].key != nil {
			hits[i].Value = ix.field.Format(hits[i].key)
		}
	}

	ix.opts.metrics.RecordSearch(kind, uint64(len(hits)), time.Since(start), nil)
	ix.log.LogSearch(ctx, q.String(), len(segs), ix.segmentCount()-len(segs), uint64(len(hits)), nil)
	return hits, nil
}

// Bucket is one distinct value of a terms aggregation.
type Bucket struct {
	Value string
	// Count is the number of matching documents holding Value.
	Count uint64
}

// Aggregation summarizes the values of the documents matching a query.
type Aggregation struct {
	// Buckets holds distinct values in ascending version order.
	Buckets []Bucket
	// Min and Max are the lowest and highest values; empty without buckets.
	Min, Max string
	// Docs counts matching documents, with or without values.
	Docs uint64
}

// Aggregate groups the values of the documents matching q by distinct
// value across all segments. Buckets come back in version order; size caps
// them to the lowest size values, 0 keeps all. Min and Max always cover
// every value.
func (ix *Index) Aggregate(ctx context.Context, q Query, size int) (*Aggregation, error) {
	segs, local, err := ix.matchSegments(ctx, q)
	if err != nil {
		return nil, translateError(err)
	}

	type bucket struct {
		term  []byte
		count uint64
	}
	counts := make(map[string]*bucket)
	agg := &Aggregation{}
	for i, s := range segs {
		perOrd := make(map[int]uint64)
		for doc := range local[i].All() {
			agg.Docs++
			for _, ord := range s.seg.DocOrds(doc) {
				perOrd[ord]++
			}
		}
		for ord, n := range perOrd {
			term := s.seg.Term(ord)
			b, ok := counts[string(term)]
			if !ok {
				b = &bucket{term: term}
				counts[string(term)] = b
			}
			b.count += n
		}
	}

	sorted := make([]*bucket, 0, len(counts))
	for _, b := range counts {
		sorted = append(sorted, b)
	}
	slices.SortFunc(sorted, func(a, b *bucket) int { return bytes.Compare(a.term, b.term) })

	if n := len(sorted); n > 0 {
		agg.Min = ix.field.Format(sorted[0].term)
		agg.Max = ix.field.Format(sorted[n-1].term)
	}
	if size > 0 && len(sorted) > size {
		sorted = sorted[:size]
	}
	agg.Buckets = make([]Bucket, len(sorted))
	for i, b := range sorted {
		agg.Buckets[i] = Bucket{Value: ix.field.Format(b.term), Count: b.count}
	}
	return agg, nil
}
