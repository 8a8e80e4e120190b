package versionfield

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordIndex is called after each document add. values is the number
	// of values offered, malformed the number skipped by the ignore-malformed
	// policy.
	RecordIndex(values, malformed int, duration time.Duration, err error)

	// RecordSearch is called after each search. kind is the query kind
	// (term, range, wildcard, ...), hits the number of matching documents.
	RecordSearch(kind string, hits uint64, duration time.Duration, err error)

	// RecordQueryRejected is called when building a query fails, either by
	// policy or because the input is invalid.
	RecordQueryRejected(kind string, err error)

	// RecordFlush is called after the in-memory buffer is sealed.
	RecordFlush(docs uint32, terms int, duration time.Duration, err error)

	// RecordSave is called after an index is persisted.
	RecordSave(segments int, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndex(int, int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordSearch(string, uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordQueryRejected(string, error)                 {}
func (NoopMetricsCollector) RecordFlush(uint32, int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordSave(int, int64, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexCount       atomic.Int64
	IndexErrors      atomic.Int64
	IndexValues      atomic.Int64
	MalformedValues  atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchHits       atomic.Int64
	SearchTotalNanos atomic.Int64
	RejectedQueries  atomic.Int64
	FlushCount       atomic.Int64
	FlushErrors      atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
	SavedBytes       atomic.Int64

	mu     sync.Mutex
	byKind map[string]int64
}

// RecordIndex implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndex(values, malformed int, _ time.Duration, err error) {
	b.IndexCount.Add(1)
	if err != nil {
		b.IndexErrors.Add(1)
		return
	}
	b.IndexValues.Add(int64(values - malformed))
	b.MalformedValues.Add(int64(malformed))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(kind string, hits uint64, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchHits.Add(int64(hits))

	b.mu.Lock()
	if b.byKind == nil {
		b.byKind = make(map[string]int64)
	}
	b.byKind[kind]++
	b.mu.Unlock()
}

// RecordQueryRejected implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQueryRejected(string, error) {
	b.RejectedQueries.Add(1)
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(_ uint32, _ int, _ time.Duration, err error) {
	b.FlushCount.Add(1)
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ int, bytes int64, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SavedBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	b.mu.Lock()
	byKind := make(map[string]int64, len(b.byKind))
	for k, v := range b.byKind {
		byKind[k] = v
	}
	b.mu.Unlock()

	return BasicMetricsStats{
		IndexCount:      b.IndexCount.Load(),
		IndexErrors:     b.IndexErrors.Load(),
		IndexValues:     b.IndexValues.Load(),
		MalformedValues: b.MalformedValues.Load(),
		SearchCount:     b.SearchCount.Load(),
		SearchErrors:    b.SearchErrors.Load(),
		SearchHits:      b.SearchHits.Load(),
		SearchAvgNanos:  b.getAvgSearchNanos(),
		SearchesByKind:  byKind,
		RejectedQueries: b.RejectedQueries.Load(),
		FlushCount:      b.FlushCount.Load(),
		FlushErrors:     b.FlushErrors.Load(),
		SaveCount:       b.SaveCount.Load(),
		SaveErrors:      b.SaveErrors.Load(),
		SavedBytes:      b.SavedBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexCount      int64
	IndexErrors     int64
	IndexValues     int64
	MalformedValues int64
	SearchCount     int64
	SearchErrors    int64
	SearchHits      int64
	SearchAvgNanos  int64
	SearchesByKind  map[string]int64
	RejectedQueries int64
	FlushCount      int64
	FlushErrors     int64
	SaveCount       int64
	SaveErrors      int64
	SavedBytes      int64
}
