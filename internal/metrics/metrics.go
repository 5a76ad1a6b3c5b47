package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelforge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_operations_total",
			Help: "Total number of pipeline operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelforge_operation_duration_seconds",
			Help:    "Pipeline operation duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"operation"},
	)

	OperationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelforge_operations_in_flight",
			Help: "Number of pipeline operations holding the directory lock",
		},
	)

	OperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_operation_errors_total",
			Help: "Total number of failed pipeline operations by error kind",
		},
		[]string{"operation", "kind"},
	)
)

// Transcoder metrics
var (
	TranscoderAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelforge_transcoder_attempts_total",
			Help: "Total number of conversion strategy attempts",
		},
		[]string{"strategy", "result"},
	)

	TranscoderAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelforge_transcoder_attempt_duration_seconds",
			Help:    "Conversion strategy attempt duration in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"strategy"},
	)
)

// Result label values for TranscoderAttemptsTotal.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
