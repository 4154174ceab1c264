// Package metrics exposes the engine's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles the counters/histograms/gauges the orchestrator and its
// components report into, all registered via promauto at construction
// time.
type Registry struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	StageDuration     *prometheus.HistogramVec
	CacheHitRate      prometheus.Gauge
	BreakerTrips      *prometheus.CounterVec
	CandidatesTried   prometheus.Histogram
	FailuresRecorded  prometheus.Counter
	FailureQueueDrops prometheus.Counter
}

// New creates and registers the metrics registry.
func New() *Registry {
	return &Registry{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pricesearch_requests_total",
			Help: "Total number of search requests processed, by terminal status.",
		}, []string{"status", "source"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricesearch_request_duration_seconds",
			Help:    "End-to-end request duration.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 12, 15},
		}, []string{"status"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricesearch_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"stage"}),
		CacheHitRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pricesearch_cache_hit_rate",
			Help: "Rolling positive-cache hit rate.",
		}),
		BreakerTrips: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pricesearch_breaker_trips_total",
			Help: "Circuit breaker trips by origin.",
		}, []string{"origin"}),
		CandidatesTried: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricesearch_candidates_tried",
			Help:    "Number of candidate queries tried before success or exhaustion.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8},
		}),
		FailuresRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pricesearch_failures_recorded_total",
			Help: "Total terminal failures persisted to the failure log.",
		}),
		FailureQueueDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pricesearch_failure_queue_drops_total",
			Help: "Failure records dropped because the async write queue was full.",
		}),
	}
}
