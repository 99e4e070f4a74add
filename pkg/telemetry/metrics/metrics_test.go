package metrics

import (
	"testing"
	"time"

	"mercator-hq/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
	}
}

// TestCollector_NewCollector tests collector creation
func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.registry != registry {
		t.Error("Collector registry not set correctly")
	}
}

// TestCollector_RecordRequest tests request recording
func TestCollector_RecordRequest(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	tests := []struct {
		name     string
		server   string
		route    string
		upstream string
		status   string
		duration time.Duration
	}{
		{
			name:     "success request",
			server:   "edge",
			route:    "/api/*",
			upstream: "backend-1",
			status:   "success",
			duration: 12 * time.Millisecond,
		},
		{
			name:     "error request",
			server:   "edge",
			route:    "/api/*",
			upstream: "backend-2",
			status:   "error",
			duration: 500 * time.Millisecond,
		},
		{
			name:     "rejected request",
			server:   "edge",
			route:    "/admin/*",
			upstream: "",
			status:   "rejected",
			duration: time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordRequest(tt.server, tt.route, tt.upstream, tt.status, tt.duration)

			count := testutil.ToFloat64(collector.requestMetrics.requestsTotal.WithLabelValues(tt.server, tt.route, tt.upstream, tt.status))
			if count < 1 {
				t.Errorf("Expected request counter >= 1, got %f", count)
			}
		})
	}
}

// TestCollector_UpstreamMetrics tests upstream metric recording
func TestCollector_UpstreamMetrics(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	t.Run("update health", func(t *testing.T) {
		collector.UpdateUpstreamHealth("edge", "backend-1", true)
		health := testutil.ToFloat64(collector.upstreamMetrics.health.WithLabelValues("edge", "backend-1"))
		if health != 1.0 {
			t.Errorf("Expected health=1.0, got %f", health)
		}

		collector.UpdateUpstreamHealth("edge", "backend-1", false)
		health = testutil.ToFloat64(collector.upstreamMetrics.health.WithLabelValues("edge", "backend-1"))
		if health != 0.0 {
			t.Errorf("Expected health=0.0, got %f", health)
		}
	})

	t.Run("record latency", func(t *testing.T) {
		collector.RecordUpstreamLatency("edge", "backend-1", 95*time.Millisecond)
		// Just verify it doesn't panic
	})

	t.Run("record error", func(t *testing.T) {
		collector.RecordUpstreamError("edge", "backend-1", "dial_timeout")
		count := testutil.ToFloat64(collector.upstreamMetrics.errors.WithLabelValues("edge", "backend-1", "dial_timeout"))
		if count < 1 {
			t.Errorf("Expected error count >= 1, got %f", count)
		}
	})
}

// TestCollector_Disabled tests that metrics are not recorded when disabled
func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// These should not panic
	collector.RecordRequest("edge", "/api/*", "backend-1", "success", time.Second)
	collector.UpdateUpstreamHealth("edge", "backend-1", true)
	collector.RecordUpstreamLatency("edge", "backend-1", time.Millisecond)
}

// TestCardinalityLimiter tests cardinality limiting
func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	// First 3 should be allowed
	if !limiter.Allow("label1") {
		t.Error("Expected first label to be allowed")
	}
	if !limiter.Allow("label2") {
		t.Error("Expected second label to be allowed")
	}
	if !limiter.Allow("label3") {
		t.Error("Expected third label to be allowed")
	}

	// Fourth should be rejected
	if limiter.Allow("label4") {
		t.Error("Expected fourth label to be rejected")
	}

	// Existing labels should still be allowed
	if !limiter.Allow("label1") {
		t.Error("Expected existing label to be allowed")
	}

	// Check count
	if limiter.Count() != 3 {
		t.Errorf("Expected count=3, got %d", limiter.Count())
	}
}

// TestRequestMetrics_RecordBytes tests size recording
func TestRequestMetrics_RecordBytes(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	rm := NewRequestMetrics(cfg, registry)

	rm.RecordBytes("edge", "/api/*", "request", 5120)
	rm.RecordBytes("edge", "/api/*", "response", 10240)

	// Just verify it doesn't panic
}

// TestUpstreamMetrics_RecordLatency tests upstream latency recording
func TestUpstreamMetrics_RecordLatency(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	um := NewUpstreamMetrics(cfg, registry)

	um.RecordLatency("edge", "backend-1", 0.05)
	// Just verify it doesn't panic
}

// TestCollector_ConcurrentRecording tests thread-safety
func TestCollector_ConcurrentRecording(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	done := make(chan bool)

	// Spawn multiple goroutines recording metrics
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				collector.RecordRequest("edge", "/api/*", "backend-1", "success", time.Second)
				collector.UpdateUpstreamHealth("edge", "backend-1", true)
			}
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	// Verify we got all requests recorded
	count := testutil.ToFloat64(collector.requestMetrics.requestsTotal.WithLabelValues("edge", "/api/*", "backend-1", "success"))
	if count != 1000 {
		t.Errorf("Expected 1000 requests, got %f", count)
	}
}
