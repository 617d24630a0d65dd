package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarscope_pipeline_runs_total",
			Help: "Pipeline stage executions (cache misses only)",
		},
		[]string{"site", "stage"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solarscope_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarscope_cache_hits_total",
			Help: "Memoization cache hits per stage",
		},
		[]string{"stage"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarscope_cache_misses_total",
			Help: "Memoization cache misses per stage",
		},
		[]string{"stage"},
	)

	ChartsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarscope_charts_built_total",
			Help: "Chart specs built per kind",
		},
		[]string{"kind"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solarscope_http_request_duration_seconds",
			Help:    "Dashboard HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
