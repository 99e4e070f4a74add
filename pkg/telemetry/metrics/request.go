package metrics

import (
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// requestDurationBuckets are tuned for proxy hop latencies (sub-millisecond
// to multi-second upstream stalls) rather than end-user page-load buckets.
var requestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

// RequestMetrics tracks metrics related to proxied request handling.
//
// Metrics:
//   - <namespace>_requests_total: Total request count by server, route, status
//   - <namespace>_request_duration_seconds: Request duration histogram
//   - <namespace>_request_bytes_total: Request/response size
type RequestMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec

	// Request/response size in bytes
	bytesTotal *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Total number of proxied requests processed",
			},
			[]string{"server", "route", "upstream", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "request_duration_seconds",
				Help:      "Duration of proxied requests in seconds",
				Buckets:   requestDurationBuckets,
			},
			[]string{"server", "route"},
		),

		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "proxy",
				Name:      "request_bytes_total",
				Help:      "Total bytes transferred per direction",
			},
			[]string{"server", "route", "direction"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.bytesTotal,
	)

	return rm
}

// RecordRequest records metrics for a completed request.
//
// Parameters:
//   - server: configured server name
//   - route: matched route pattern
//   - upstream: selected upstream name
//   - status: outcome ("success", "error", "rejected")
//   - duration: request duration
func (rm *RequestMetrics) RecordRequest(server, route, upstream, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(server, route, upstream, status).Inc()
	rm.requestDuration.WithLabelValues(server, route).Observe(duration.Seconds())
}

// RecordBytes records the size of a request or response.
//
// Parameters:
//   - server: configured server name
//   - route: matched route pattern
//   - direction: "request" or "response"
//   - sizeBytes: size in bytes
func (rm *RequestMetrics) RecordBytes(server, route, direction string, sizeBytes int) {
	if sizeBytes > 0 {
		rm.bytesTotal.WithLabelValues(server, route, direction).Add(float64(sizeBytes))
	}
}
