package versionfield

import (
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/versionfield/internal/automaton"
	"github.com/hupe1980/versionfield/version"
)

// DefaultFieldName is the field name used when none is configured.
const DefaultFieldName = "version"

type options struct {
	fieldName         string
	sortMode          version.SortMode
	sortModeSet       bool
	ignoreMalformed   bool
	allowExpensive    bool
	queryLimiter      *rate.Limiter
	searchConcurrency int
	patternCacheSize  int
	patternCacheTTL   time.Duration
	maxStates         int
	compression       Compression
	flushThreshold    int
	metrics           MetricsCollector
	logger            *Logger
}

// Option configures a Field or an Index.
type Option func(*options)

// WithFieldName sets the field name used in logs and metrics.
func WithFieldName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.fieldName = name
		}
	}
}

// WithSortMode selects how alphanumeric pre-release identifiers compare.
// A field keeps one sort mode for its lifetime.
func WithSortMode(mode version.SortMode) Option {
	return func(o *options) {
		o.sortMode = mode
		o.sortModeSet = true
	}
}

// WithIgnoreMalformed skips values that fail validation instead of
// rejecting the document. Skipped values are counted.
func WithIgnoreMalformed(ignore bool) Option {
	return func(o *options) {
		o.ignoreMalformed = ignore
	}
}

// WithAllowExpensiveQueries permits range, prefix, wildcard, regexp and
// fuzzy queries. Allowed by default.
func WithAllowExpensiveQueries(allow bool) Option {
	return func(o *options) {
		o.allowExpensive = allow
	}
}

// WithQueryRateLimit caps how many expensive queries are admitted per
// second, with the given burst. Queries over the limit fail immediately.
// perSecond <= 0 removes the limit.
func WithQueryRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.queryLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.queryLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithSearchConcurrency bounds how many segments a search evaluates in parallel.
func WithSearchConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.searchConcurrency = n
		}
	}
}

// WithPatternCacheSize sets the capacity of the compiled wildcard cache.
// size <= 0 disables caching; ttl <= 0 keeps entries until evicted.
func WithPatternCacheSize(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.patternCacheSize = size
		o.patternCacheTTL = ttl
	}
}

// WithMaxDeterminizedStates bounds the size of compiled wildcard automata.
func WithMaxDeterminizedStates(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxStates = n
		}
	}
}

// WithCompression selects the compression of saved segment files.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithFlushThreshold seals the in-memory buffer into a segment once it
// holds about n bytes of encoded values. n <= 0 means flush only on demand.
func WithFlushThreshold(n int) Option {
	return func(o *options) {
		o.flushThreshold = n
	}
}

// WithMetricsCollector sets a metrics collector for observability.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metrics = mc
		}
	}
}

// WithLogger sets a structured logger.
// Use NoopLogger() to disable logging (the default).
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel installs a text logger at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fieldName:         DefaultFieldName,
		sortMode:          version.Lexicographic,
		allowExpensive:    true,
		searchConcurrency: runtime.GOMAXPROCS(0),
		patternCacheSize:  256,
		maxStates:         automaton.DefaultMaxStates,
		compression:       CompressionZSTD,
		flushThreshold:    4 << 20,
		metrics:           NoopMetricsCollector{},
		logger:            NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
