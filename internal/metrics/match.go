package metrics

import "github.com/prometheus/client_golang/prometheus"

// Match pipeline Prometheus metrics.
var (
	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petmatch",
			Name:      "match_requests_total",
			Help:      "Total number of match requests by outcome",
		},
		[]string{"outcome"}, // found / not_found / invalid / error
	)

	RelaxationSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "petmatch",
			Name:      "relaxation_steps",
			Help:      "Number of traits removed before a match run finished",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)

	DegradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petmatch",
			Name:      "degradations_total",
			Help:      "Recoverable failures absorbed by the match pipeline",
		},
		[]string{"kind"}, // extraction / parse / search / enrichment
	)

	DirectoryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petmatch",
			Name:      "directory_requests_total",
			Help:      "Total number of pet directory API requests",
		},
		[]string{"operation", "status"},
	)

	DirectoryRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "petmatch",
			Name:      "directory_request_duration_seconds",
			Help:      "Pet directory request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	VisionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petmatch",
			Name:      "vision_requests_total",
			Help:      "Total number of vision/LLM provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	VisionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "petmatch",
			Name:      "vision_request_duration_seconds",
			Help:      "Vision/LLM provider request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	VisionBudgetRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "petmatch",
			Name:      "vision_budget_calls_remaining",
			Help:      "Vision calls left in the current budget period (-1 = unlimited)",
		},
		[]string{"provider", "period"}, // daily / monthly
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petmatch",
			Name:      "enrichment_cache_total",
			Help:      "Enrichment cache hits and misses",
		},
		[]string{"cache", "result"}, // organization|description, hit|miss
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers the pipeline metrics. Must be called once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		MatchRequestsTotal,
		RelaxationSteps,
		DegradationsTotal,
		DirectoryRequestsTotal,
		DirectoryRequestDuration,
		VisionRequestsTotal,
		VisionRequestDuration,
		VisionBudgetRemaining,
		CacheTotal,
	)
	matchMetricsRegistered = true
}
