// Package versionfield provides a version-string field for embedded search.
//
// Version strings such as "1.0.0-rc.2+build.7" are encoded into bytes
// whose unsigned lexicographic order equals version precedence, so that
// sorting, range filters and prefix scans work on raw bytes.
//
// # Quick Start
//
//	ctx := context.Background()
//	ix := versionfield.New(versionfield.WithSortMode(versionfield.NumericAware))
//
//	_, _ = ix.Add(ctx, "1.0.0")
//	_, _ = ix.Add(ctx, "1.5.0", "1.5.0-rc.1")
//	_, _ = ix.Add(ctx, "2.0.0")
//	_ = ix.Flush(ctx)
//
//	q, _ := ix.Field().RangeQuery("1.0.0", "2.0.0", true, false)
//	docs, _ := ix.Search(ctx, q) // {0, 1}
//
// # Queries
//
// The Field builds every supported filter:
//
//	TermQuery / TermsQuery   exact values
//	RangeQuery               point prefix filter confirmed against doc values
//	PrefixQuery / Wildcard   automaton over encoded terms
//	RegexpQuery / Fuzzy      brute-force scan over decoded terms
//	ComponentQuery           major, minor or patch number ranges
//	PreReleaseQuery          presence of a pre-release section
//	ExistsQuery              documents with any value
//
// Range, prefix, wildcard, regexp and fuzzy queries are expensive. They can
// be disabled with WithAllowExpensiveQueries(false) or rate limited with
// WithQueryRateLimit; a rejected query fails with ErrExpensiveQueryDisallowed
// before any work is done.
//
// # Persistence
//
// Save writes segments and a JSON manifest to any blobstore.BlobStore
// (memory, local directory, S3, MinIO). Load reopens the current version:
//
//	store := blobstore.NewLocalStore("./data")
//	_ = ix.Save(ctx, store)
//	ix2, _ := versionfield.Load(ctx, store)
package versionfield
