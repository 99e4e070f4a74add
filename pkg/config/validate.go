package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "servers.public.listener").
	Field string
	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// *ValidationError if any validation rules fail, nil otherwise. All
// errors are collected and returned together rather than failing fast on
// the first one, so a misconfigured file reports everything wrong with
// it in one pass.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRuntime(&cfg.Runtime)...)
	if len(cfg.Servers) == 0 {
		errs = append(errs, FieldError{Field: "servers", Message: "at least one server must be configured"})
	}
	for name, server := range cfg.Servers {
		errs = append(errs, validateServer(name, &server)...)
	}
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateHealth(&cfg.Health)...)
	errs = append(errs, validateReload(&cfg.Reload)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateRuntime(r *RuntimeConfig) []FieldError {
	var errs []FieldError
	switch r.RuntimeType {
	case "completion", "readiness":
	default:
		errs = append(errs, FieldError{Field: "runtime.runtime_type", Message: fmt.Sprintf("must be 'completion' or 'readiness', got %q", r.RuntimeType)})
	}
	if r.WorkerThreads < 1 {
		errs = append(errs, FieldError{Field: "runtime.worker_threads", Message: "must be >= 1"})
	}
	return errs
}

func validateServer(name string, s *ServerConfig) []FieldError {
	var errs []FieldError
	prefix := fmt.Sprintf("servers.%s", name)

	switch s.ProxyType {
	case "http", "thrift":
	default:
		errs = append(errs, FieldError{Field: prefix + ".proxy_type", Message: fmt.Sprintf("must be 'http' or 'thrift', got %q", s.ProxyType)})
	}

	switch s.Listener.Type {
	case "socket", "unix":
	default:
		errs = append(errs, FieldError{Field: prefix + ".listener.type", Message: fmt.Sprintf("must be 'socket' or 'unix', got %q", s.Listener.Type)})
	}
	if s.Listener.Value == "" {
		errs = append(errs, FieldError{Field: prefix + ".listener.value", Message: "must not be empty"})
	}

	if s.TLS != nil {
		if s.TLS.Chain == "" || s.TLS.Key == "" {
			errs = append(errs, FieldError{Field: prefix + ".tls", Message: "chain and key are both required when [tls] is set"})
		}
		switch s.TLS.Stack {
		case "", "platform-native", "rustls-equivalent":
		default:
			errs = append(errs, FieldError{Field: prefix + ".tls.stack", Message: fmt.Sprintf("must be 'platform-native' or 'rustls-equivalent', got %q", s.TLS.Stack)})
		}
	}

	switch s.Connector.UpstreamHTTPVersion {
	case "", "auto", "http11", "http2":
	default:
		errs = append(errs, FieldError{Field: prefix + ".connector.upstream_http_version", Message: fmt.Sprintf("must be 'auto', 'http11', or 'http2', got %q", s.Connector.UpstreamHTTPVersion)})
	}

	if len(s.Routes) == 0 {
		errs = append(errs, FieldError{Field: prefix + ".routes", Message: "at least one route must be configured"})
	}
	for i, route := range s.Routes {
		errs = append(errs, validateRoute(fmt.Sprintf("%s.routes[%d]", prefix, i), &route)...)
	}

	return errs
}

func validateRoute(prefix string, r *RouteConfig) []FieldError {
	var errs []FieldError
	if r.Path == "" {
		errs = append(errs, FieldError{Field: prefix + ".path", Message: "must not be empty"})
	}
	switch r.LoadBalancer {
	case "", "random", "round_robin":
	default:
		errs = append(errs, FieldError{Field: prefix + ".load_balancer", Message: fmt.Sprintf("must be 'random' or 'round_robin', got %q", r.LoadBalancer)})
	}
	if len(r.Upstreams) == 0 {
		errs = append(errs, FieldError{Field: prefix + ".upstreams", Message: "at least one upstream must be configured"})
	}
	for i, u := range r.Upstreams {
		if u.Endpoint.Value == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("%s.upstreams[%d].endpoint.value", prefix, i), Message: "must not be empty"})
		}
		if u.Weight < 0 {
			errs = append(errs, FieldError{Field: fmt.Sprintf("%s.upstreams[%d].weight", prefix, i), Message: "must be >= 0"})
		}
	}
	return errs
}

func validateEvidence(e *EvidenceConfig) []FieldError {
	var errs []FieldError
	if !e.Enabled {
		return errs
	}
	switch e.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{Field: "evidence.backend", Message: fmt.Sprintf("must be 'memory' or 'sqlite', got %q", e.Backend)})
	}
	if e.Backend == "sqlite" && e.SQLite.Path == "" {
		errs = append(errs, FieldError{Field: "evidence.sqlite.path", Message: "must not be empty when backend is 'sqlite'"})
	}
	return errs
}

func validateHealth(h *HealthConfig) []FieldError {
	var errs []FieldError
	if h.Enabled && h.IntervalSec <= 0 {
		errs = append(errs, FieldError{Field: "health.interval_sec", Message: "must be > 0 when health checking is enabled"})
	}
	return errs
}

func validateReload(r *ReloadConfig) []FieldError {
	var errs []FieldError
	if gs := r.GitSource; gs != nil && gs.Repo == "" {
		errs = append(errs, FieldError{Field: "reload.gitsource.repo", Message: "must not be empty when [reload.gitsource] is set"})
	}
	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError
	switch t.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("must be one of debug/info/warn/error, got %q", t.Logging.Level)})
	}
	switch t.Logging.Format {
	case "", "json", "text", "console":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("must be one of json/text/console, got %q", t.Logging.Format)})
	}
	if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0.0 and 1.0"})
	}
	return errs
}
