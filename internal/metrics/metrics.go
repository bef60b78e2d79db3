// Package metrics: Prometheus collectors for search traffic, exposed by Handler
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000}

var (
	SearchRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placesearch_search_requests_total",
		Help: "Total number of search requests",
	})
	SearchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "placesearch_search_duration_ms",
		Help:    "Search duration in milliseconds, cache hits included",
		Buckets: durationBuckets,
	})
	ValidationErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placesearch_validation_errors_total",
		Help: "Total number of rejected search requests",
	})
	InternalErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placesearch_internal_errors_total",
		Help: "Total number of searches that failed inside the engine",
	})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placesearch_empty_results_total",
		Help: "Total number of searches with no result in any strategy",
	})
	StrategyResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placesearch_strategy_results_total",
		Help: "Total number of results returned, by strategy",
	}, []string{"strategy"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placesearch_cache_hits_total",
		Help: "Total search result cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placesearch_cache_misses_total",
		Help: "Total search result cache misses",
	})
	NearestRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placesearch_nearest_requests_total",
		Help: "Total number of nearest-place requests",
	})
	NearestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "placesearch_nearest_duration_ms",
		Help:    "Nearest-place lookup duration in milliseconds",
		Buckets: durationBuckets,
	})
	TableRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "placesearch_table_records",
		Help: "Number of gazetteer records loaded",
	})
)

func init() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDurationMs,
		ValidationErrorsTotal,
		InternalErrorsTotal,
		EmptyResultsTotal,
		StrategyResultsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		NearestRequestsTotal,
		NearestDurationMs,
		TableRecords,
	)
}

// Handler serves every registered collector; mounted at {API_BASE}/metrics.
func Handler() http.Handler { return promhttp.Handler() }
