// Package tracing provides OpenTelemetry distributed tracing for relay.
//
// # Overview
//
// The tracing package implements W3C Trace Context propagation, span creation,
// and trace export to OTLP collectors. It provides visibility into request
// flows through the proxy pipeline with minimal overhead (<100µs per span).
//
// # Distributed Tracing
//
// Distributed tracing tracks requests as they flow through multiple services,
// creating a hierarchy of spans that represent operations. Each span records:
//   - Operation name and duration
//   - Attributes (key-value pairs)
//   - Events (timestamped logs within the span)
//   - Trace context (trace ID, span ID, sampling decision)
//
// # Trace Context Propagation
//
// The package implements W3C Trace Context (https://www.w3.org/TR/trace-context/)
// for propagating trace context across HTTP boundaries:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//	tracestate: congo=t61rcWkgMzE
//
// # Sampling
//
// The sample ratio in configuration drives the sampling strategy directly:
// a ratio of 0 samples nothing, a ratio of 1 samples everything, and
// anything in between uses trace-ID-ratio-based sampling so that a given
// trace ID always produces the same decision across hops.
//
// # Usage
//
//	// Initialize tracer
//	cfg := &config.TracingConfig{
//	    Enabled:     true,
//	    SampleRatio: 0.1,
//	    Exporter:    "otlp",
//	    Endpoint:    "localhost:4317",
//	}
//	tracer, err := tracing.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	// Create span
//	ctx, span := tracer.Start(ctx, "relay.proxy.request")
//	defer span.End()
//
//	// Add attributes
//	tracing.SetServerAttributes(span, "edge", "socket", "public")
//	tracing.SetRouteAttributes(span, "/api/*", "backend-1")
//
//	// Add event
//	span.AddEvent("upstream_selected", trace.WithAttributes(
//	    attribute.String("upstream", "backend-1"),
//	))
//
// # Span Hierarchy
//
// Spans form a hierarchy representing the call tree of a single proxied
// request:
//
//	relay.proxy.request (12ms)
//	├── relay.router.select (1ms)
//	├── relay.limits.check (0.1ms)
//	└── relay.connector.forward (10ms)
//
// # HTTP Integration
//
// Extract trace context from incoming HTTP requests:
//
//	ctx := propagation.Extract(r.Context(), r.Header)
//	ctx, span := tracer.Start(ctx, "handle_request")
//	defer span.End()
//
// Inject trace context into outgoing HTTP requests:
//
//	req, _ := http.NewRequestWithContext(ctx, "POST", url, body)
//	propagation.Inject(ctx, req.Header)
//
// # Performance
//
// The tracing package is designed for minimal overhead:
//   - Span creation: <100µs per span
//   - Context propagation: <10µs
//   - Sampling decision: <1µs
//   - When disabled: <1µs (noop span)
//
// # Trace Exporter
//
// Only the OTLP gRPC exporter is wired up; it's expected to point at a
// collector sidecar or local agent:
//
//	telemetry:
//	  tracing:
//	    exporter: otlp
//	    endpoint: localhost:4317
//	    sample_ratio: 0.1
//
// # Attribute Helpers
//
// Common attributes can be set using helper functions:
//
//	// Server/listener attributes
//	tracing.SetServerAttributes(span, "edge", "socket", "public")
//
//	// Request attributes
//	tracing.SetRequestAttributes(span, requestID, clientIP)
//
//	// Route/upstream attributes
//	tracing.SetRouteAttributes(span, "/api/*", "backend-1")
//
//	// Error attributes
//	tracing.SetErrorAttributes(span, err, "upstream_timeout")
package tracing
