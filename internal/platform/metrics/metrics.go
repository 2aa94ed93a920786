package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-level Prometheus metrics for the application.
// Verification-specific metrics live in internal/verify/metrics.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all process-level Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certverify_http_requests_total",
			Help: "Total number of HTTP requests, labeled by endpoint and status",
		}, []string{"endpoint", "status"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certverify_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// IncrementHTTPRequests increments the request counter for an endpoint/status pair.
func (m *Metrics) IncrementHTTPRequests(endpoint, status string) {
	m.HTTPRequests.WithLabelValues(endpoint, status).Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
