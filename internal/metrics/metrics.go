package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gateway_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_gateway_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gateway_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Transcode process metrics
var (
	ProcessesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gateway_transcode_processes_active",
			Help: "Number of external transcoder processes currently running",
		},
	)

	ProcessTerminationsForced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_gateway_transcode_forced_terminations_total",
			Help: "Total number of processes that had to be force-killed after the grace period",
		},
	)
)

// Job metrics
var (
	JobsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gateway_jobs_created_total",
			Help: "Total number of background transcode jobs created",
		},
		[]string{"kind"},
	)

	JobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gateway_jobs_completed_total",
			Help: "Total number of background transcode jobs by terminal state",
		},
		[]string{"kind", "result"},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_gateway_jobs_active",
			Help: "Number of jobs currently tracked in the registry",
		},
	)
)

// Delivery metrics
var (
	BytesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_gateway_bytes_delivered_total",
			Help: "Total bytes written to clients by delivery strategy",
		},
		[]string{"strategy"},
	)
)
