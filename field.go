package versionfield

import (
	"encoding/hex"

	"github.com/hupe1980/versionfield/internal/compress"
	"github.com/hupe1980/versionfield/query"
	"github.com/hupe1980/versionfield/version"
)

type (
	// Query is a filter evaluated against one sealed segment.
	Query = query.Query
	// FuzzyOptions control a fuzzy query.
	FuzzyOptions = query.FuzzyOptions
	// Component names a numeric sub-field: Major, Minor or Patch.
	Component = query.Component
	// SortMode selects how alphanumeric pre-release identifiers compare.
	SortMode = version.SortMode
	// EncodedVersion is the sortable byte form of a version string.
	EncodedVersion = version.EncodedVersion
	// Compression is the block compression of saved segments.
	Compression = compress.Type
)

// Sort modes.
const (
	// Lexicographic compares alphanumeric pre-release identifiers byte by
	// byte, so "beta11" sorts before "beta2".
	Lexicographic = version.Lexicographic
	// NumericAware compares digit runs inside identifiers by value, so
	// "beta2" sorts before "beta11".
	NumericAware = version.NumericAware
)

// Numeric sub-fields for ComponentQuery.
const (
	Major = query.Major
	Minor = query.Minor
	Patch = query.Patch
)

// Segment compression used by Save.
const (
	CompressionNone = compress.None
	// CompressionLZ4 favors write and load speed.
	CompressionLZ4 = compress.LZ4
	// CompressionZSTD favors size. It is the default.
	CompressionZSTD = compress.ZSTD
)

const (

	// AutoEdits picks the fuzzy edit distance from the value length.
	AutoEdits = query.AutoEdits
)

// DefaultFuzzyOptions returns MaxEdits AUTO, no prefix, 50 expansions and
// transpositions enabled.
func DefaultFuzzyOptions() FuzzyOptions { return query.DefaultFuzzyOptions() }

// Encodable converts between version text and its sortable bytes.
type Encodable interface {
	Encode(s string) (EncodedVersion, error)
	Decode(b []byte) (string, error)
}

// RangeQueryable builds exact-value and range filters.
type RangeQueryable interface {
	TermQuery(value string) (Query, error)
	TermsQuery(values ...string) (Query, error)
	RangeQuery(lower, upper string, includeLower, includeUpper bool) (Query, error)
}

// PatternQueryable builds filters from patterns over the decoded text.
type PatternQueryable interface {
	PrefixQuery(prefix string) (Query, error)
	WildcardQuery(pattern string) (Query, error)
	RegexpQuery(pattern string) (Query, error)
	FuzzyQuery(value string, opts FuzzyOptions) (Query, error)
}

var (
	_ Encodable        = (*Field)(nil)
	_ RangeQueryable   = (*Field)(nil)
	_ PatternQueryable = (*Field)(nil)
)

// Field is a version-typed field: the codec for one sort mode plus the
// query builders over its encoded terms. A Field is immutable and safe for
// concurrent use.
type Field struct {
	name    string
	mode    SortMode
	enc     *version.Encoder
	qb      *query.Builder
	metrics MetricsCollector
}

// NewField creates a Field. Only the field, sort mode, query policy, cache
// and metrics options apply.
func NewField(optFns ...Option) *Field {
	o := applyOptions(optFns)
	return newField(&o)
}

func newField(o *options) *Field {
	enc := version.NewEncoder(o.sortMode)
	policy := query.Policy{
		AllowExpensive: o.allowExpensive,
		Limiter:        o.queryLimiter,
	}
	return &Field{
		name: o.fieldName,
		mode: o.sortMode,
		enc:  enc,
		qb: query.NewBuilder(enc, policy,
			query.WithMaxDeterminizedStates(o.maxStates),
			query.WithPatternCache(o.patternCacheSize, o.patternCacheTTL),
		),
		metrics: o.metrics,
	}
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// SortMode returns the sort mode the field encodes with.
func (f *Field) SortMode() SortMode { return f.mode }

// Encode validates s and returns its sortable encoding.
func (f *Field) Encode(s string) (EncodedVersion, error) {
	return f.enc.Encode(s)
}

// Decode reconstructs the exact version text from its encoding.
func (f *Field) Decode(b []byte) (string, error) {
	return f.enc.Decode(b)
}

// Format renders a stored value for display. Undecodable bytes are shown
// as a hex marker instead of failing.
func (f *Field) Format(b []byte) string {
	s, err := f.enc.Decode(b)
	if err != nil {
		return "<corrupt:" + hex.EncodeToString(b) + ">"
	}
	return s
}

// TermQuery matches documents holding exactly value.
func (f *Field) TermQuery(value string) (Query, error) {
	return f.built("term")(f.qb.Term(value))
}

// TermsQuery matches documents holding any of values.
func (f *Field) TermsQuery(values ...string) (Query, error) {
	return f.built("terms")(f.qb.Terms(values...))
}

// RangeQuery matches values between lower and upper. An empty bound is
// unbounded on that side.
func (f *Field) RangeQuery(lower, upper string, includeLower, includeUpper bool) (Query, error) {
	return f.built(query.KindRange)(f.qb.Range(lower, upper, includeLower, includeUpper))
}

// PrefixQuery matches values whose text starts with prefix.
func (f *Field) PrefixQuery(prefix string) (Query, error) {
	return f.built(query.KindPrefix)(f.qb.Prefix(prefix))
}

// WildcardQuery matches values against a pattern where '*' is any run of
// characters and '?' exactly one.
func (f *Field) WildcardQuery(pattern string) (Query, error) {
	return f.built(query.KindWildcard)(f.qb.Wildcard(pattern))
}

// RegexpQuery matches values whose whole text matches an RE2 expression.
func (f *Field) RegexpQuery(pattern string) (Query, error) {
	return f.built(query.KindRegexp)(f.qb.Regexp(pattern))
}

// FuzzyQuery matches values within an edit distance of value.
func (f *Field) FuzzyQuery(value string, opts FuzzyOptions) (Query, error) {
	return f.built(query.KindFuzzy)(f.qb.Fuzzy(value, opts))
}

// ExistsQuery matches documents with at least one value.
func (f *Field) ExistsQuery() Query { return f.qb.Exists() }

// ComponentQuery matches documents whose major, minor or patch number lies
// in [lo, hi]. Use lo == hi for equality.
func (f *Field) ComponentQuery(c Component, lo, hi int32) Query {
	return f.qb.Component(c, lo, hi)
}

// PreReleaseQuery matches documents by the presence of a pre-release section.
func (f *Field) PreReleaseQuery(isPreRelease bool) Query {
	return f.qb.PreRelease(isPreRelease)
}

func (f *Field) built(kind string) func(Query, error) (Query, error) {
	return func(q Query, err error) (Query, error) {
		if err != nil {
			f.metrics.RecordQueryRejected(kind, err)
			return nil, translateError(err)
		}
		return q, nil
	}
}
