package prometheus

import (
	"time"

	"github.com/Flazoukie/supplier-performance-data-pipeline/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Pipeline metrics
	PipelineRunsTotal     prometheus.CounterVec
	PipelineStageDuration prometheus.HistogramVec

	// Dashboard query metrics
	QueryOperationsCounter prometheus.CounterVec

	// Risk distribution metrics
	SuppliersPerTierGauge prometheus.GaugeVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Pipeline run metrics
	PipelineRunsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"},
	)

	// Pipeline stage durations
	PipelineStageDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// Dashboard query metrics
	QueryOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_query_operations_total",
			Help: "Total number of dashboard query operations",
		},
		[]string{"operation"},
	)

	// Risk distribution metrics
	SuppliersPerTierGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_suppliers_per_risk_tier",
			Help: "Number of suppliers in each risk tier after the last run",
		},
		[]string{"tier"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordQueryOperation increments the counter for dashboard query operations
func RecordQueryOperation(operation string) {
	QueryOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordPipelineRun increments the pipeline run counter for an outcome
func RecordPipelineRun(status string) {
	PipelineRunsTotal.WithLabelValues(status).Inc()
}

// TrackPipelineStage returns a function that records a pipeline stage duration
func TrackPipelineStage(stage string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		PipelineStageDuration.WithLabelValues(stage).Observe(duration)
	}
}

// UpdateSuppliersPerTier updates the gauge for suppliers per risk tier
func UpdateSuppliersPerTier(tier string, count int) {
	SuppliersPerTierGauge.WithLabelValues(tier).Set(float64(count))
}
