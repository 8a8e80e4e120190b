package versionfield

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/versionfield/internal/compress"
	"github.com/hupe1980/versionfield/version"
)

// Config is the file form of the index options.
//
//	field: app_version
//	sort_mode: numeric_aware
//	ignore_malformed: true
//	allow_expensive_queries: false
//	query_rate_limit: 50
//	query_burst: 10
//	pattern_cache_size: 512
//	pattern_cache_ttl: 10m
//	compression: lz4
//	store: s3://bucket/versions
type Config struct {
	Field                 string   `yaml:"field"`
	SortMode              string   `yaml:"sort_mode"`
	IgnoreMalformed       bool     `yaml:"ignore_malformed"`
	AllowExpensiveQueries *bool    `yaml:"allow_expensive_queries"`
	QueryRateLimit        float64  `yaml:"query_rate_limit"`
	QueryBurst            int      `yaml:"query_burst"`
	SearchConcurrency     int      `yaml:"search_concurrency"`
	PatternCacheSize      *int     `yaml:"pattern_cache_size"`
	PatternCacheTTL       Duration `yaml:"pattern_cache_ttl"`
	MaxDeterminizedStates int      `yaml:"max_determinized_states"`
	Compression           string   `yaml:"compression"`
	FlushThreshold        *int     `yaml:"flush_threshold"`
	LogLevel              string   `yaml:"log_level"`
	LogFormat             string   `yaml:"log_format"`
	// Store locates the blob store for saved indexes. It is interpreted by
	// the caller, not by Options.
	Store string `yaml:"store"`
}

// Duration is a time.Duration that unmarshals from strings like "90s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// DefaultConfig returns a Config equivalent to calling New without options.
// SortMode is left empty so that a loaded index keeps its saved mode.
func DefaultConfig() *Config {
	return &Config{
		Field:       DefaultFieldName,
		Compression: compress.ZSTD.String(),
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML from r on top of DefaultConfig. Unknown keys
// are an error.
func ParseConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// Options converts the config into index options.
func (c *Config) Options() ([]Option, error) {
	var opts []Option

	if c.Field != "" {
		opts = append(opts, WithFieldName(c.Field))
	}
	if c.SortMode != "" {
		mode, err := version.ParseSortMode(c.SortMode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSortMode(mode))
	}
	if c.IgnoreMalformed {
		opts = append(opts, WithIgnoreMalformed(true))
	}
	if c.AllowExpensiveQueries != nil {
		opts = append(opts, WithAllowExpensiveQueries(*c.AllowExpensiveQueries))
	}
	if c.QueryRateLimit < 0 {
		return nil, fmt.Errorf("query_rate_limit must not be negative, got %v", c.QueryRateLimit)
	}
	if c.QueryRateLimit > 0 {
		opts = append(opts, WithQueryRateLimit(c.QueryRateLimit, c.QueryBurst))
	}
	if c.SearchConcurrency != 0 {
		if c.SearchConcurrency < 0 {
			return nil, fmt.Errorf("search_concurrency must be positive, got %d", c.SearchConcurrency)
		}
		opts = append(opts, WithSearchConcurrency(c.SearchConcurrency))
	}
	if c.PatternCacheSize != nil || c.PatternCacheTTL != 0 {
		size := 256
		if c.PatternCacheSize != nil {
			size = *c.PatternCacheSize
		}
		opts = append(opts, WithPatternCacheSize(size, time.Duration(c.PatternCacheTTL)))
	}
	if c.MaxDeterminizedStates > 0 {
		opts = append(opts, WithMaxDeterminizedStates(c.MaxDeterminizedStates))
	}
	if c.Compression != "" {
		t, err := compress.ParseType(c.Compression)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCompression(t))
	}
	if c.FlushThreshold != nil {
		opts = append(opts, WithFlushThreshold(*c.FlushThreshold))
	}

	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithLogger(logger))
	return opts, nil
}

// Logger builds the logger described by log_level and log_format.
func (c *Config) Logger() (*Logger, error) {
	if strings.EqualFold(c.LogLevel, "off") || strings.EqualFold(c.LogLevel, "none") {
		return NoopLogger(), nil
	}
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return NewTextLogger(level), nil
	case "json":
		return NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
}

// ParseLogLevel maps "debug", "info", "warn" or "error" to a slog level.
// The empty string is info.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
