// Package metrics exposes Prometheus metrics for the verification pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check result labels. A check that errors and a check that fails both report
// false in the verdict; the metric label is where the two stay distinguishable.
const (
	ResultPass  = "pass"
	ResultFail  = "fail"
	ResultError = "error"
)

// Metrics holds the verification-domain Prometheus metrics.
type Metrics struct {
	Verifications *prometheus.CounterVec
	CheckResults  *prometheus.CounterVec
	CheckLatency  *prometheus.HistogramVec
	FetchFailures prometheus.Counter
}

// New creates the verification metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the verification metrics on a specific registry. Tests use
// this with a fresh registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certverify_verifications_total",
			Help: "Total verification requests, labeled by credential type and outcome",
		}, []string{"type", "outcome"}),
		CheckResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certverify_check_results_total",
			Help: "Individual check results, labeled by check name and result",
		}, []string{"check", "result"}),
		CheckLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certverify_check_latency_seconds",
			Help:    "Latency of individual verification checks in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"check"}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "certverify_fetch_failures_total",
			Help: "Total credential fetch failures (whole-request errors)",
		}),
	}
}

// IncrementVerifications counts a completed verification request.
func (m *Metrics) IncrementVerifications(credentialType, outcome string) {
	m.Verifications.WithLabelValues(credentialType, outcome).Inc()
}

// RecordCheck counts one check result and its latency.
func (m *Metrics) RecordCheck(check, result string, latency time.Duration) {
	m.CheckResults.WithLabelValues(check, result).Inc()
	m.CheckLatency.WithLabelValues(check).Observe(latency.Seconds())
}

// IncrementFetchFailures counts a credential fetch failure.
func (m *Metrics) IncrementFetchFailures() {
	m.FetchFailures.Inc()
}
