package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	enrollmentsTotal       *prometheus.CounterVec
	enrollmentDriftGauge   prometheus.Gauge
	logStreamClientsActive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enrollment_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		enrollmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_operations_total",
			Help: "Enrollment operations by kind, store and result.",
		}, []string{"operation", "store", "result"})

		enrollmentDriftGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enrollment_counter_drift_courses",
			Help: "Courses whose cached enrollment counter disagreed with the row count at the last reconcile.",
		})

		logStreamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enrollment_log_stream_clients_active",
			Help: "Connected admin action log stream clients.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			enrollmentsTotal,
			enrollmentDriftGauge,
			logStreamClientsActive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Enrollments exposes the enrollment operation counter.
func Enrollments() *prometheus.CounterVec {
	RegisterMetrics()
	return enrollmentsTotal
}

// EnrollmentDrift exposes the reconcile drift gauge.
func EnrollmentDrift() prometheus.Gauge {
	RegisterMetrics()
	return enrollmentDriftGauge
}

// LogStreamClients exposes the gauge of connected log stream clients.
func LogStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return logStreamClientsActive
}
