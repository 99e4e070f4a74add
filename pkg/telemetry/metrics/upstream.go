package metrics

import (
	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks metrics related to upstream health and performance,
// mirroring the status a pkg/health Prober observes for each upstream.
//
// Metrics:
//   - <namespace>_upstream_health: upstream health status (1=healthy, 0=unhealthy)
//   - <namespace>_upstream_latency_seconds: connect/forward latency
//   - <namespace>_upstream_errors_total: upstream error count by type
type UpstreamMetrics struct {
	// Upstream health status (gauge: 1=healthy, 0=unhealthy)
	health *prometheus.GaugeVec

	// Upstream latency histogram
	latency *prometheus.HistogramVec

	// Upstream error counter
	errors *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "upstream_health",
				Help:      "Upstream health status (1=healthy, 0=unhealthy)",
			},
			[]string{"server", "upstream"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "upstream_latency_seconds",
				Help:      "Upstream connect/forward latency in seconds",
				Buckets:   requestDurationBuckets,
			},
			[]string{"server", "upstream"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream errors by type",
			},
			[]string{"server", "upstream", "error_type"},
		),
	}

	registry.MustRegister(
		um.health,
		um.latency,
		um.errors,
	)

	return um
}

// UpdateHealth updates the health status of an upstream, as observed by a
// health prober or by connection failures in the hot path.
//
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (um *UpstreamMetrics) UpdateHealth(server, upstream string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	um.health.WithLabelValues(server, upstream).Set(value)
}

// RecordLatency records the latency of a connect or forward to an upstream.
func (um *UpstreamMetrics) RecordLatency(server, upstream string, latencySeconds float64) {
	um.latency.WithLabelValues(server, upstream).Observe(latencySeconds)
}

// RecordError records an error reaching an upstream.
//
// Common error types:
//   - "dial_timeout": connection attempt timed out
//   - "dial_refused": connection refused
//   - "reset": connection reset mid-request
//   - "protocol": malformed upstream response
func (um *UpstreamMetrics) RecordError(server, upstream, errorType string) {
	um.errors.WithLabelValues(server, upstream, errorType).Inc()
}
