// Package prommetrics exports versionfield metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	ix := versionfield.New(versionfield.WithMetricsCollector(prommetrics.New(reg)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prommetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/versionfield"
)

const namespace = "versionfield"

var _ versionfield.MetricsCollector = (*Collector)(nil)

// Collector implements versionfield.MetricsCollector with Prometheus
// counters and histograms.
type Collector struct {
	gatherer prometheus.Gatherer

	values    *prometheus.CounterVec
	indexed   *prometheus.CounterVec
	searches  *prometheus.HistogramVec
	hits      *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	flushes   *prometheus.CounterVec
	flushDur  prometheus.Histogram
	segTerms  prometheus.Histogram
	saves     *prometheus.CounterVec
	savedSize prometheus.Counter
}

// New creates a Collector and registers it with reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		gatherer: reg,
		values: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_total",
			Help:      "Version values offered for indexing, by outcome.",
		}, []string{"outcome"}),
		indexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents added, by status.",
		}, []string{"status"}),
		searches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Latency of searches by query kind and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "status"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_hits_total",
			Help:      "Matching documents returned, by query kind.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_rejected_total",
			Help:      "Queries that failed to build, by kind.",
		}, []string{"kind"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Segment flushes, by status.",
		}, []string{"status"}),
		flushDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Time to seal the in-memory buffer.",
			Buckets:   prometheus.DefBuckets,
		}),
		segTerms: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_terms",
			Help:      "Distinct terms per flushed segment.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Index saves, by status.",
		}, []string{"status"}),
		savedSize: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saved_bytes_total",
			Help:      "Segment bytes written by saves.",
		}),
	}

	reg.MustRegister(
		c.values, c.indexed, c.searches, c.hits, c.rejected,
		c.flushes, c.flushDur, c.segTerms, c.saves, c.savedSize,
	)
	return c
}

// Handler serves the registry the collector was registered with.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordIndex implements versionfield.MetricsCollector.
func (c *Collector) RecordIndex(values, malformed int, _ time.Duration, err error) {
	c.indexed.WithLabelValues(status(err)).Inc()
	if err != nil {
		c.values.WithLabelValues("rejected").Add(float64(values))
		return
	}
	c.values.WithLabelValues("indexed").Add(float64(values - malformed))
	c.values.WithLabelValues("malformed").Add(float64(malformed))
}

// RecordSearch implements versionfield.MetricsCollector.
func (c *Collector) RecordSearch(kind string, hits uint64, duration time.Duration, err error) {
	c.searches.WithLabelValues(kind, status(err)).Observe(duration.Seconds())
	if err == nil {
		c.hits.WithLabelValues(kind).Add(float64(hits))
	}
}

// RecordQueryRejected implements versionfield.MetricsCollector.
func (c *Collector) RecordQueryRejected(kind string, _ error) {
	c.rejected.WithLabelValues(kind).Inc()
}

// RecordFlush implements versionfield.MetricsCollector.
func (c *Collector) RecordFlush(_ uint32, terms int, duration time.Duration, err error) {
	c.flushes.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.flushDur.Observe(duration.Seconds())
		c.segTerms.Observe(float64(terms))
	}
}

// RecordSave implements versionfield.MetricsCollector.
func (c *Collector) RecordSave(_ int, bytes int64, _ time.Duration, err error) {
	c.saves.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.savedSize.Add(float64(bytes))
	}
}
