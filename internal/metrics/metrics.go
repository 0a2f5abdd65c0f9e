// Package metrics exposes Prometheus instrumentation for the numeric
// pipeline: solver health, position-cache effectiveness, and search cost.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	KeplerNonConvergence = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aspectarian_kepler_nonconvergence_total",
			Help: "Kepler iterations that hit the cap before converging.",
		},
	)

	PositionCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aspectarian_position_cache_hits_total",
			Help: "Position cache lookups served from the cache.",
		},
	)

	PositionCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aspectarian_position_cache_misses_total",
			Help: "Position cache lookups that required computation.",
		},
	)

	WindowSearches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aspectarian_window_searches_total",
			Help: "Aspect window searches performed.",
		},
	)

	WindowSearchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aspectarian_window_search_seconds",
			Help:    "Wall-clock duration of aspect window searches.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		KeplerNonConvergence,
		PositionCacheHits,
		PositionCacheMisses,
		WindowSearches,
		WindowSearchSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
