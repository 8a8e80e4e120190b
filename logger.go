package versionfield

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with versionfield-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithField tags every record with the field name.
func (l *Logger) WithField(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", name),
	}
}

// LogIndex logs a document add.
func (l *Logger) LogIndex(ctx context.Context, doc uint32, values, malformed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index failed",
			"values", values,
			"error", err,
		)
		return
	}
	if malformed > 0 {
		l.WarnContext(ctx, "malformed values ignored",
			"doc", doc,
			"values", values,
			"malformed", malformed,
		)
		return
	}
	l.DebugContext(ctx, "document indexed",
		"doc", doc,
		"values", values,
	)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, q string, segments, pruned int, hits uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"query", q,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"query", q,
		"segments", segments,
		"pruned", pruned,
		"hits", hits,
	)
}

// LogFlush logs the sealing of the in-memory buffer.
func (l *Logger) LogFlush(ctx context.Context, segment string, docs uint32, terms int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "segment flushed",
		"segment", segment,
		"docs", docs,
		"terms", terms,
		"elapsed", elapsed,
	)
}

// LogSave logs a save to a blob store.
func (l *Logger) LogSave(ctx context.Context, manifestID uint64, segments int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index saved",
		"manifest", manifestID,
		"segments", segments,
		"bytes", bytes,
	)
}

// LogLoad logs a load from a blob store.
func (l *Logger) LogLoad(ctx context.Context, manifestID uint64, segments int, docs uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index loaded",
		"manifest", manifestID,
		"segments", segments,
		"docs", docs,
	)
}
