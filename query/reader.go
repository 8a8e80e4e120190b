package query

import (
	"github.com/hupe1980/versionfield/bitmap"
	"github.com/hupe1980/versionfield/version"
)

// Component names a numeric sub-field derived from the version.
type Component uint8

const (
	Major Component = iota
	Minor
	Patch
)

func (c Component) String() string {
	switch c {
	case Major:
		return "major"
	case Minor:
		return "minor"
	case Patch:
		return "patch"
	default:
		return "unknown"
	}
}

// TermsEnum is a forward-only cursor over the sorted term dictionary.
// Terms are encoded versions in unsigned byte order; Ord is the position
// of the current term in that order.
type TermsEnum interface {
	Next() bool
	SeekCeil(target []byte) bool
	Term() []byte
	Ord() int
}

// TermsReader exposes the term dictionary and its postings.
type TermsReader interface {
	Terms() TermsEnum
	NumTerms() int
	// Postings returns the documents holding the term with ordinal ord.
	Postings(ord int) *bitmap.Bitmap
}

// PointReader exposes the fixed-width prefix index.
type PointReader interface {
	// PointRange returns documents with a value whose zero-padded prefix
	// lies in [lo, hi].
	PointRange(lo, hi [version.PrefixLength]byte) *bitmap.Bitmap
}

// DocValuesReader exposes per-document term ordinals.
type DocValuesReader interface {
	// DocOrds returns the ascending term ordinals of doc.
	DocOrds(doc uint32) []int
}

// ComponentReader exposes the numeric sub-fields.
type ComponentReader interface {
	// ComponentRange returns documents whose component lies in [lo, hi].
	ComponentRange(c Component, lo, hi int32) *bitmap.Bitmap
	// PreRelease returns documents having a value with (true) or without
	// (false) a pre-release section.
	PreRelease(flag bool) *bitmap.Bitmap
}

// Reader is everything a query may consult on one sealed segment.
//
// Bitmaps returned by a Reader are shared and must not be modified.
type Reader interface {
	TermsReader
	PointReader
	DocValuesReader
	ComponentReader
	DocsWithField() *bitmap.Bitmap
	MaxDoc() uint32
}

// Decoder renders encoded terms back to version text.
// *version.Encoder implements it.
type Decoder interface {
	Decode(b []byte) (string, error)
}
