package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics records outbound calls to the AI and messaging providers.
type ProviderMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewProviderMetrics registers the provider call metrics on the provided registerer.
func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	if reg == nil {
		return &ProviderMetrics{}
	}
	labels := []string{"provider", "operation"}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_call_duration_seconds",
		Help:    "Duration of outbound provider calls in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, labels)
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_call_success",
		Help: "Successful outbound provider calls.",
	}, labels)
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_call_failure",
		Help: "Failed outbound provider calls.",
	}, labels)
	reg.MustRegister(duration, success, failure)
	return &ProviderMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Observe records one call outcome and its duration.
func (m *ProviderMetrics) Observe(provider, operation string, duration time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	provider, operation = normalizeLabel(provider), normalizeLabel(operation)
	m.duration.WithLabelValues(provider, operation).Observe(duration.Seconds())
	if err != nil {
		m.failure.WithLabelValues(provider, operation).Inc()
		return
	}
	m.success.WithLabelValues(provider, operation).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
