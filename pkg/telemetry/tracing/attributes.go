package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans.
// They use semantic conventions where applicable and ensure consistent attribute
// naming across the codebase.
//
// # Attribute Keys
//
// Standard attribute keys follow OpenTelemetry semantic conventions:
//   - http.*: HTTP-related attributes
//   - rpc.*: RPC-related attributes
//   - net.*: connection-related attributes
//
// Custom attribute keys use the "relay.*" namespace:
//   - relay.server: configured server name
//   - relay.route: matched route pattern
//   - relay.upstream: selected upstream name

// Common attribute keys used throughout the system
const (
	// Listener/server attributes
	AttrServer   = "relay.server"
	AttrListener = "relay.listener"
	AttrProtocol = "relay.protocol"

	// Request attributes
	AttrRequestID = "relay.request_id"
	AttrClientIP  = "relay.client_ip"

	// Routing attributes
	AttrRoutePattern = "relay.route"
	AttrUpstream     = "relay.upstream"
	AttrGeneration   = "relay.generation"

	// Error attributes
	AttrErrorType    = "relay.error.type"
	AttrErrorMessage = "error.message"

	// Performance attributes
	AttrDuration   = "relay.duration_ms"
	AttrRetryCount = "relay.retry_count"
)

// SetServerAttributes sets listener/server identification attributes on a span.
//
// Example:
//
//	SetServerAttributes(span, "edge", "socket", "public")
func SetServerAttributes(span trace.Span, server, protocol, listener string) {
	span.SetAttributes(
		attribute.String(AttrServer, server),
		attribute.String(AttrProtocol, protocol),
		attribute.String(AttrListener, listener),
	)
}

// SetRequestAttributes sets request-related attributes on a span.
//
// Example:
//
//	SetRequestAttributes(span, "req-123", "10.0.0.4")
func SetRequestAttributes(span trace.Span, requestID, clientIP string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRequestID, requestID),
	}

	if clientIP != "" {
		attrs = append(attrs, attribute.String(AttrClientIP, clientIP))
	}

	span.SetAttributes(attrs...)
}

// SetRouteAttributes sets the matched route and selected upstream on a span.
//
// Example:
//
//	SetRouteAttributes(span, "/api/*", "backend-1")
func SetRouteAttributes(span trace.Span, pattern, upstream string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRoutePattern, pattern),
	}
	if upstream != "" {
		attrs = append(attrs, attribute.String(AttrUpstream, upstream))
	}
	span.SetAttributes(attrs...)
}

// SetGenerationAttribute records which config generation served the request.
func SetGenerationAttribute(span trace.Span, generation uint64) {
	span.SetAttributes(attribute.Int64(AttrGeneration, int64(generation)))
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "upstream_timeout")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span.
// Duration is recorded in milliseconds.
//
// Example:
//
//	start := time.Now()
//	// ... do work ...
//	SetDurationAttribute(span, time.Since(start).Milliseconds())
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetRetryAttribute sets the retry count attribute on a span.
//
// Example:
//
//	SetRetryAttribute(span, 2)
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// AddEvent adds a named event to the span with optional attributes.
// Events represent interesting points in the span's lifetime.
//
// Example:
//
//	AddEvent(span, "upstream_selected",
//	    attribute.String("upstream", "backend-1"),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
func RecordException(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 10),
	}
}

// WithServer adds server/protocol/listener attributes.
func (ab *AttributeBuilder) WithServer(server, protocol, listener string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrServer, server),
		attribute.String(AttrProtocol, protocol),
		attribute.String(AttrListener, listener),
	)
	return ab
}

// WithRequest adds request-related attributes.
func (ab *AttributeBuilder) WithRequest(requestID, clientIP string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrRequestID, requestID))
	if clientIP != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrClientIP, clientIP))
	}
	return ab
}

// WithRoute adds route/upstream attributes.
func (ab *AttributeBuilder) WithRoute(pattern, upstream string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrRoutePattern, pattern))
	if upstream != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrUpstream, upstream))
	}
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
