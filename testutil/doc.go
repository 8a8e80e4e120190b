// Package testutil provides testing utilities for versionfield.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded generator for random version strings that
// exercise every corner of the grammar, and helpers for picking
// skewed value distributions.
//
// # Random Versions
//
//	rng := testutil.NewRNG(seed)
//	v := rng.Version()       // any grammar-valid version
//	s := rng.SemVer()        // strict SemVer 2.0.0 (no leading zeros)
//	vs := rng.Versions(1000) // batch
package testutil
