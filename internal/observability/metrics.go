package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	gradingOperationsTotal *prometheus.CounterVec
	gradingConflictsTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessment_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_operations_total",
			Help: "Lifecycle operations by outcome (ok or an error kind).",
		}, []string{"operation", "outcome"})

		gradingConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_conflicts_total",
			Help: "Versioned writes that lost a race with a concurrent writer.",
		}, []string{"entity"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, gradingOperationsTotal, gradingConflictsTotal)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradingOperations exposes the lifecycle operation counter.
func GradingOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingOperationsTotal
}

// GradingConflicts exposes the optimistic-lock conflict counter.
func GradingConflicts() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingConflictsTotal
}
