package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records outbound calls against the distributor API.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Upstream API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	reg.MustRegister(duration, requests)
	return &UpstreamMetrics{
		duration: duration,
		requests: requests,
	}
}

// ObserveRequest records one finished upstream call.
func (m *UpstreamMetrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(endpoint)).Observe(elapsed.Seconds())
	m.requests.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
