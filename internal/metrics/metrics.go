// Package metrics is the relay's Prometheus registry: six relay_-prefixed
// metrics (spec.md §4.7), registered once at package init and exposed
// through promhttp.Handler(). Registration follows the teacher's
// internal/metrics/metrics.go idiom (init() + prometheus.MustRegister);
// the metric shape itself (no label dimensions) follows
// original_source/src/metrics.rs, which spec.md §4.7's table matches
// literally — the teacher's heavily-labeled CounterVec/HistogramVec style
// is not used here since the spec names six bare counters/gauges/a
// histogram, not per-route/per-method series.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_cache_hits_total",
		Help: "Total number of cache hits.",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_cache_misses_total",
		Help: "Total number of cache misses.",
	})
	CacheStaleServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_cache_stale_served_total",
		Help: "Total number of stale cache responses served.",
	})
	UpstreamErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_upstream_errors_total",
		Help: "Total number of upstream request errors.",
	})
	CacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_cache_entries",
		Help: "Current number of entries in the cache.",
	})
	RequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: []float64{0.001, 0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5},
	})
)

func init() {
	prometheus.MustRegister(
		CacheHits,
		CacheMisses,
		CacheStaleServed,
		UpstreamErrors,
		CacheEntries,
		RequestDuration,
	)
}

// Handler is the /metrics exposition handler, delegated entirely to
// promhttp per spec.md §1 (the wire format is an external collaborator).
func Handler() http.Handler {
	return promhttp.Handler()
}
