// Package metrics defines Prometheus metrics for the similarity engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dlsim_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlsim_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlsim_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	EmbedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlsim_embed_requests_total",
			Help: "Total embedding requests by model",
		},
		[]string{"model"},
	)

	EmbedErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlsim_embed_errors_total",
			Help: "Total failed embedding requests by model",
		},
		[]string{"model"},
	)

	PairsScoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlsim_pairs_scored_total",
			Help: "Total profile pairs scored",
		},
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlsim_cache_hits_total",
			Help: "Total similarity cache hits",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlsim_cache_misses_total",
			Help: "Total similarity cache misses",
		},
	)

	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlsim_jobs_total",
			Help: "Total jobs by kind and final status",
		},
		[]string{"kind", "status"},
	)

	JobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlsim_jobs_running",
			Help: "Jobs currently running",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlsim_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	ProfileCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlsim_profiles_total",
			Help: "Profiles currently registered",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		EmbedRequestsTotal, EmbedErrorsTotal,
		PairsScoredTotal, CacheHitsTotal, CacheMissesTotal,
		JobsTotal, JobsRunning,
		WSConnections, ProfileCount,
	)
}
