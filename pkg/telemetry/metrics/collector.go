package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in relay.
// It manages metric registration, collection, and provides a unified interface
// for recording metrics across all components.
//
// The collector is designed for high-performance with minimal overhead (<50µs per update):
//   - Pre-allocated metric instances
//   - Lock-free counters where possible
//   - Cardinality limits to prevent memory issues
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Request metrics
	requestMetrics *RequestMetrics

	// Upstream metrics
	upstreamMetrics *UpstreamMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, the default Prometheus registry
// is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "relay",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "relay"
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)

	return c
}

// RecordRequest records metrics for a completed proxied request.
//
// Parameters:
//   - server: configured server name
//   - route: matched route pattern
//   - upstream: selected upstream name
//   - status: outcome ("success", "error", "rejected")
//   - duration: request duration
//
// Example:
//
//	collector.RecordRequest("edge", "/api/*", "backend-1", "success", 12*time.Millisecond)
func (c *Collector) RecordRequest(server, route, upstream, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	// Check cardinality limit; aggregate into "other" to prevent explosion
	// from unbounded route patterns (e.g. path parameters leaking through).
	labelSet := fmt.Sprintf("request:%s:%s:%s", server, route, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		route = "other"
	}

	c.requestMetrics.RecordRequest(server, route, upstream, status, duration)
}

// RecordBytes records the size of a request or response body.
func (c *Collector) RecordBytes(server, route, direction string, sizeBytes int) {
	if !c.config.Enabled {
		return
	}

	c.requestMetrics.RecordBytes(server, route, direction, sizeBytes)
}

// UpdateUpstreamHealth updates the health status of an upstream.
//
// Parameters:
//   - server: configured server name
//   - upstream: upstream name
//   - healthy: true if the upstream is healthy, false otherwise
func (c *Collector) UpdateUpstreamHealth(server, upstream string, healthy bool) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.UpdateHealth(server, upstream, healthy)
}

// RecordUpstreamLatency records the latency of a connect or forward to an upstream.
func (c *Collector) RecordUpstreamLatency(server, upstream string, latency time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.RecordLatency(server, upstream, latency.Seconds())
}

// RecordUpstreamError records an error reaching an upstream.
func (c *Collector) RecordUpstreamError(server, upstream, errorType string) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.RecordError(server, upstream, errorType)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
