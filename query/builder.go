package query

import (
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hupe1980/versionfield/internal/automaton"
	"github.com/hupe1980/versionfield/version"
)

// Kinds of expensive queries, as reported by policy errors and metrics.
const (
	KindRange    = "range"
	KindPrefix   = "prefix"
	KindWildcard = "wildcard"
	KindRegexp   = "regexp"
	KindFuzzy    = "fuzzy"
)

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMaxDeterminizedStates bounds wildcard automaton size.
func WithMaxDeterminizedStates(n int) BuilderOption {
	return func(b *Builder) {
		b.maxStates = n
	}
}

// WithPatternCache caches compiled wildcard automata. size <= 0 disables
// the cache; ttl <= 0 keeps entries until evicted by size.
func WithPatternCache(size int, ttl time.Duration) BuilderOption {
	return func(b *Builder) {
		b.cacheSize = size
		b.cacheTTL = ttl
	}
}

// Builder turns version text into queries over encoded terms.
// It is safe for concurrent use.
type Builder struct {
	enc       *version.Encoder
	policy    Policy
	maxStates int
	cacheSize int
	cacheTTL  time.Duration
	cache     *expirable.LRU[string, *automaton.DFA]
}

// NewBuilder creates a Builder bound to enc's sort mode.
func NewBuilder(enc *version.Encoder, policy Policy, opts ...BuilderOption) *Builder {
	b := &Builder{
		enc:       enc,
		policy:    policy,
		maxStates: automaton.DefaultMaxStates,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cacheSize > 0 {
		b.cache = expirable.NewLRU[string, *automaton.DFA](b.cacheSize, nil, b.cacheTTL)
	}
	return b
}

// Encoder returns the encoder queries are built with.
func (b *Builder) Encoder() *version.Encoder { return b.enc }

// Term matches documents holding exactly value.
func (b *Builder) Term(value string) (Query, error) {
	v, err := b.enc.Encode(value)
	if err != nil {
		return nil, err
	}
	return NewTermQuery(v), nil
}

// Terms matches documents holding any of values.
func (b *Builder) Terms(values ...string) (Query, error) {
	vs := make([]version.EncodedVersion, 0, len(values))
	for _, s := range values {
		v, err := b.enc.Encode(s)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return NewTermsQuery(vs...), nil
}

// Exists matches documents with at least one value.
func (b *Builder) Exists() Query { return Exists() }

// Range matches values between lower and upper. An empty bound is unbounded.
func (b *Builder) Range(lower, upper string, includeLower, includeUpper bool) (Query, error) {
	if err := b.policy.Admit(KindRange); err != nil {
		return nil, err
	}
	lo, err := b.bound(lower, includeLower)
	if err != nil {
		return nil, err
	}
	hi, err := b.bound(upper, includeUpper)
	if err != nil {
		return nil, err
	}
	return NewRangeQuery(lo, hi), nil
}

func (b *Builder) bound(s string, inclusive bool) (*Bound, error) {
	if s == "" {
		return nil, nil
	}
	v, err := b.enc.Encode(s)
	if err != nil {
		return nil, err
	}
	return &Bound{Value: v, Inclusive: inclusive}, nil
}

// Prefix matches values whose text starts with prefix.
func (b *Builder) Prefix(prefix string) (Query, error) {
	if err := b.policy.Admit(KindPrefix); err != nil {
		return nil, err
	}
	return b.automatonQuery(KindPrefix, "Prefix("+prefix+")", EscapeWildcard(prefix)+"*")
}

// Wildcard matches values against a pattern of '*', '?' and literals.
func (b *Builder) Wildcard(pattern string) (Query, error) {
	if err := b.policy.Admit(KindWildcard); err != nil {
		return nil, err
	}
	return b.automatonQuery(KindWildcard, "Wildcard("+pattern+")", pattern)
}

func (b *Builder) automatonQuery(kind, label, pattern string) (Query, error) {
	key := b.enc.Mode().String() + "\x00" + pattern
	if b.cache != nil {
		if dfa, ok := b.cache.Get(key); ok {
			return &AutomatonQuery{kind: kind, label: label, dfa: dfa}, nil
		}
	}
	dfa, err := CompileWildcard(pattern, b.maxStates)
	if err != nil {
		return nil, err
	}
	if b.cache != nil {
		b.cache.Add(key, dfa)
	}
	return &AutomatonQuery{kind: kind, label: label, dfa: dfa}, nil
}

// Regexp matches values whose whole text matches an RE2 expression.
func (b *Builder) Regexp(pattern string) (Query, error) {
	if err := b.policy.Admit(KindRegexp); err != nil {
		return nil, err
	}
	re, err := CompileRegexp(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexpQuery{pattern: pattern, re: re, dec: b.enc}, nil
}

// Fuzzy matches values within an edit distance of value.
func (b *Builder) Fuzzy(value string, opts FuzzyOptions) (Query, error) {
	if err := b.policy.Admit(KindFuzzy); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, &PatternError{Pattern: value, Pos: -1, Reason: err.Error()}
	}
	if !utf8.ValidString(value) {
		return nil, &PatternError{Pattern: value, Pos: -1, Reason: "invalid utf-8"}
	}
	return &FuzzyQuery{value: []rune(value), opts: opts, dec: b.enc}, nil
}

// Component matches documents whose c component lies in [lo, hi].
func (b *Builder) Component(c Component, lo, hi int32) Query {
	return NewComponentRangeQuery(c, lo, hi)
}

// PreRelease matches documents by the presence of a pre-release section.
func (b *Builder) PreRelease(flag bool) Query {
	return NewPreReleaseQuery(flag)
}
