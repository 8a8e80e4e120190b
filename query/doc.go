// Package query turns version-field queries into document sets over the
// encoded term space.
//
// A Builder validates and encodes the user's bounds and patterns once,
// admits expensive forms through a Policy, and returns an immutable Query.
// A Query runs against any Reader, the read-side contract a storage
// segment provides: a sorted term dictionary with postings, per-document
// term ordinals, a fixed-width point index and the numeric sub-fields.
//
//	b := query.NewBuilder(version.NewEncoder(version.Lexicographic), query.Policy{AllowExpensive: true})
//	q, err := b.Range("1.0.0", "2.0.0", true, false)
//	docs, err := q.Execute(ctx, segmentReader)
//
// Queries hold no mutable state and may execute concurrently against
// independent segments; results from different segments are merged by
// union.
package query
