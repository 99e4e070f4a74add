package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Benchmark_Collector_RecordRequest benchmarks request recording
func Benchmark_Collector_RecordRequest(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("edge", "/api/*", "backend-1", "success", time.Second)
	}
}

// Benchmark_Collector_RecordRequest_Parallel benchmarks parallel request recording
func Benchmark_Collector_RecordRequest_Parallel(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			collector.RecordRequest("edge", "/api/*", "backend-1", "success", time.Second)
		}
	})
}

// Benchmark_Collector_UpdateUpstreamHealth benchmarks health updates
func Benchmark_Collector_UpdateUpstreamHealth(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.UpdateUpstreamHealth("edge", "backend-1", true)
	}
}

// Benchmark_Collector_RecordUpstreamLatency benchmarks latency recording
func Benchmark_Collector_RecordUpstreamLatency(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordUpstreamLatency("edge", "backend-1", 95*time.Millisecond)
	}
}

// Benchmark_Collector_RecordUpstreamError benchmarks error recording
func Benchmark_Collector_RecordUpstreamError(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordUpstreamError("edge", "backend-1", "dial_timeout")
	}
}

// Benchmark_RequestMetrics_RecordRequest benchmarks raw request metric recording
func Benchmark_RequestMetrics_RecordRequest(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	rm := NewRequestMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rm.RecordRequest("edge", "/api/*", "backend-1", "success", time.Second)
	}
}

// Benchmark_RequestMetrics_RecordBytes benchmarks byte-count recording
func Benchmark_RequestMetrics_RecordBytes(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	rm := NewRequestMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rm.RecordBytes("edge", "/api/*", "request", 1024)
	}
}

// Benchmark_UpstreamMetrics_UpdateHealth benchmarks health updates
func Benchmark_UpstreamMetrics_UpdateHealth(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	um := NewUpstreamMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		um.UpdateHealth("edge", "backend-1", true)
	}
}

// Benchmark_UpstreamMetrics_RecordLatency benchmarks latency recording
func Benchmark_UpstreamMetrics_RecordLatency(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	um := NewUpstreamMetrics(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		um.RecordLatency("edge", "backend-1", 0.95)
	}
}

// Benchmark_CardinalityLimiter_Allow benchmarks cardinality checking
func Benchmark_CardinalityLimiter_Allow(b *testing.B) {
	limiter := NewCardinalityLimiter(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("label1")
	}
}

// Benchmark_CardinalityLimiter_Allow_New benchmarks cardinality checking with new labels
func Benchmark_CardinalityLimiter_Allow_New(b *testing.B) {
	limiter := NewCardinalityLimiter(100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("label" + string(rune(i)))
	}
}

// Benchmark_Collector_Disabled benchmarks metrics when disabled
func Benchmark_Collector_Disabled(b *testing.B) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("edge", "/api/*", "backend-1", "success", time.Second)
	}
}

// Benchmark_Collector_ManyLabels benchmarks recording with many different label values
func Benchmark_Collector_ManyLabels(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	servers := []string{"edge", "internal", "admin"}
	routes := []string{"/api/*", "/health", "/metrics"}
	statuses := []string{"success", "error", "rejected"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		server := servers[i%len(servers)]
		route := routes[i%len(routes)]
		status := statuses[i%len(statuses)]
		collector.RecordRequest(server, route, "backend-1", status, time.Second)
	}
}

// Benchmark_Collector_AllMetrics benchmarks recording all metric types
func Benchmark_Collector_AllMetrics(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("edge", "/api/*", "backend-1", "success", time.Second)
		collector.UpdateUpstreamHealth("edge", "backend-1", true)
		collector.RecordUpstreamLatency("edge", "backend-1", 2*time.Millisecond)
	}
}
