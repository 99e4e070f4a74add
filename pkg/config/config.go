package config

import (
	"time"

	"mercator-hq/relay/pkg/telemetry/logging"
)

// Config is the root configuration structure for relay. It is decoded
// from a single TOML file (see pkg/config/load.go) and, once validated,
// carries everything pkg/runtime, pkg/listener, pkg/httpproxy,
// pkg/thriftproxy, pkg/router, pkg/connector, pkg/tlsstack,
// pkg/evidence, and pkg/reload need to build a running proxy.
type Config struct {
	// Runtime configures the thread-per-core substrate.
	Runtime RuntimeConfig `toml:"runtime"`

	// Servers maps a server name to its listener, protocol, TLS, and
	// route table. Keys become pkg/listener.Config.Name and the
	// pkg/reload.Target.Name for that listener.
	Servers map[string]ServerConfig `toml:"servers"`

	// Evidence configures the audit trail.
	Evidence EvidenceConfig `toml:"evidence"`

	// Limits configures request throttling.
	Limits LimitsConfig `toml:"limits"`

	// Health configures upstream liveness probing.
	Health HealthConfig `toml:"health"`

	// Reload configures the hot-reload trigger surface.
	Reload ReloadConfig `toml:"reload"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// RuntimeConfig configures pkg/runtime.Substrate.
type RuntimeConfig struct {
	// RuntimeType selects the I/O driver model: "completion" or
	// "readiness". Only "readiness" has a meaningful Go implementation;
	// "completion" is accepted and logged as a no-op equivalent.
	// Default: "readiness"
	RuntimeType string `toml:"runtime_type"`

	// WorkerThreads is the number of worker goroutines, each pinned to
	// its own OS thread and owning an independent accept path.
	// Default: 1
	WorkerThreads int `toml:"worker_threads"`

	// Entries is the accept backlog depth.
	// Default: 32768
	Entries int `toml:"entries"`
}

// ListenerRef names a listener's transport and address.
type ListenerRef struct {
	// Type is "socket" (TCP) or "unix".
	Type string `toml:"type"`
	// Value is "host:port" for "socket", a filesystem path for "unix".
	Value string `toml:"value"`
}

// EndpointRef names one upstream candidate's address.
type EndpointRef struct {
	// Type is "uri"; Value is "http://host:port" or "https://host:port".
	Type string `toml:"type"`
	// Value is the upstream URI; a Unix socket path is not accepted here.
	Value string `toml:"value"`
}

// UpstreamConfig is one route's candidate destination.
type UpstreamConfig struct {
	// Weight is the relative selection weight, >= 1, default 1.
	Weight int `toml:"weight"`
	// Endpoint names the upstream's address.
	Endpoint EndpointRef `toml:"endpoint"`
}

// RouteConfig is one `[[servers.NAME.routes]]` table entry.
type RouteConfig struct {
	// Path is a literal path, a single-segment pattern ("/users/{id}"),
	// or a tail-wildcard pattern ("/static/{*rest}").
	Path string `toml:"path"`
	// LoadBalancer selects among Upstreams: "random" or "round_robin".
	// Default: "random"
	LoadBalancer string `toml:"load_balancer"`
	// When, if non-empty, is a route-admission predicate compiled by
	// pkg/routepolicy and evaluated before this route is considered a
	// match.
	When string `toml:"when"`
	// ContentHandler, if true, tells pkg/httpproxy to fully buffer the
	// response body instead of streaming it.
	ContentHandler bool             `toml:"content_handler"`
	Upstreams      []UpstreamConfig `toml:"upstreams"`
}

// TLSConfig configures pkg/tlsstack for one server.
type TLSConfig struct {
	// Chain is the PEM certificate chain file path.
	Chain string `toml:"chain"`
	// Key is the PEM private key file path.
	Key string `toml:"key"`
	// Stack selects "platform-native" or "rustls-equivalent".
	// Default: "platform-native"
	Stack string `toml:"stack"`
	// ClientCAFile, if set, enables mTLS against the given CA.
	ClientCAFile string `toml:"client_ca_file"`
	// RequireClientCert, when ClientCAFile is set, rejects handshakes
	// that present no client certificate rather than merely annotating
	// them unauthenticated.
	RequireClientCert bool `toml:"require_client_cert"`
}

// HTTPTimeoutConfig is the `[servers.NAME.http_timeout]` table.
type HTTPTimeoutConfig struct {
	ServerKeepAliveTimeoutSec  int `toml:"server_keepalive_timeout_sec"`
	ServerReadHeaderTimeoutSec int `toml:"server_read_header_timeout_sec"`
	ServerReadBodyTimeoutSec   int `toml:"server_read_body_timeout_sec"`
	UpstreamConnectTimeoutSec  int `toml:"upstream_connect_timeout_sec"`
	UpstreamReadTimeoutSec     int `toml:"upstream_read_timeout_sec"`
}

// ThriftTimeoutConfig is the `[servers.NAME.thrift_timeout]` table.
type ThriftTimeoutConfig struct {
	ServerKeepAliveTimeoutSec int `toml:"server_keepalive_timeout_sec"`
	ServerMessageTimeoutSec   int `toml:"server_message_timeout_sec"`
	MaxFrameSize              int `toml:"max_frame_size"`
}

// HTTPOptHandlersConfig is the `[servers.NAME.http_opt_handlers]` table.
type HTTPOptHandlersConfig struct {
	// ContentHandler, if true, is the server-wide default for routes
	// that do not set their own content_handler.
	ContentHandler bool `toml:"content_handler"`
	// MaxContentHandlerBytes bounds the buffer used when content
	// handling is active.
	MaxContentHandlerBytes int64 `toml:"max_content_handler_bytes"`
	// ViaPseudonym is appended to the Via header on forwarded requests
	// and returned responses.
	ViaPseudonym string `toml:"via_pseudonym"`
}

// ConnectorConfig is the `[servers.NAME.connector]` table.
type ConnectorConfig struct {
	// UpstreamHTTPVersion selects "auto", "http11", or "http2".
	// Default: "auto"
	UpstreamHTTPVersion string `toml:"upstream_http_version"`
	// MaxIdlePerKey bounds idle pooled connections per upstream key.
	MaxIdlePerKey int `toml:"max_idle_per_key"`
	// IdleTimeoutSec closes pooled idle connections after this long.
	IdleTimeoutSec int `toml:"idle_timeout_sec"`
}

// ServerConfig is one `[servers.NAME]` table: a listener plus its
// protocol, TLS, timeouts, connector settings, and route table.
type ServerConfig struct {
	// Name identifies the server; defaults to its map key if empty.
	Name string `toml:"name"`
	// ProxyType selects "http" or "thrift". Default: "http".
	ProxyType string `toml:"proxy_type"`
	// Listener names the transport and address to bind.
	Listener ListenerRef `toml:"listener"`
	// TLS, if set, fronts this listener with TLS termination.
	TLS *TLSConfig `toml:"tls"`
	// HTTPTimeout configures pkg/httpproxy.Config for proxy_type="http".
	HTTPTimeout *HTTPTimeoutConfig `toml:"http_timeout"`
	// ThriftTimeout configures pkg/thriftproxy.Config for proxy_type="thrift".
	ThriftTimeout *ThriftTimeoutConfig `toml:"thrift_timeout"`
	// HTTPOptHandlers configures server-wide content-handling defaults.
	HTTPOptHandlers *HTTPOptHandlersConfig `toml:"http_opt_handlers"`
	// Connector configures pooled upstream dialing for this server.
	Connector ConnectorConfig `toml:"connector"`
	// Routes is this server's route table.
	Routes []RouteConfig `toml:"routes"`
}

// EvidenceConfig configures the audit trail (pkg/evidence).
type EvidenceConfig struct {
	// Enabled controls whether evidence recording is active.
	// ApplyDefaults does not set it, so a file that omits it leaves
	// recording off.
	Enabled bool `toml:"enabled"`
	// Backend selects "memory" or "sqlite". Default: "sqlite"
	Backend string `toml:"backend"`
	// SQLite configures the SQLite backend.
	SQLite EvidenceSQLiteConfig `toml:"sqlite"`
	// AsyncBuffer is the size of the recorder's async write channel.
	AsyncBuffer int `toml:"async_buffer"`
	// WriteTimeoutSec bounds one Storage.Store call.
	WriteTimeoutSec int `toml:"write_timeout_sec"`
	// RedactHeaders names request headers stored as "[redacted]".
	RedactHeaders []string `toml:"redact_headers"`
	// MaxFieldLength truncates RequestPath/Error before storage.
	MaxFieldLength int `toml:"max_field_length"`
	// Retention configures record pruning.
	Retention RetentionConfig `toml:"retention"`
}

// EvidenceSQLiteConfig contains SQLite-specific evidence storage configuration.
type EvidenceSQLiteConfig struct {
	// Path is the database file path. Default: "data/evidence.db"
	Path string `toml:"path"`
	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int `toml:"max_open_conns"`
	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int `toml:"max_idle_conns"`
	// WALMode enables Write-Ahead Logging mode. ApplyDefaults does not
	// set it, so a file that omits it leaves WAL mode off.
	WALMode bool `toml:"wal_mode"`
	// BusyTimeoutSec bounds waiting when the database is locked.
	BusyTimeoutSec int `toml:"busy_timeout_sec"`
}

// RetentionConfig configures pkg/evidence/retention.Pruner.
type RetentionConfig struct {
	// RetentionDays is how long to keep evidence; 0 disables pruning.
	RetentionDays int `toml:"retention_days"`
	// PruneSchedule is a cron expression, e.g. "0 3 * * *".
	PruneSchedule string `toml:"prune_schedule"`
	// ArchiveBeforeDelete enables archiving evidence before deletion.
	ArchiveBeforeDelete bool `toml:"archive_before_delete"`
	// ArchivePath is the directory archived evidence is written to.
	ArchivePath string `toml:"archive_path"`
	// MaxRecords bounds total retained records; 0 disables the cap.
	MaxRecords int `toml:"max_records"`
}

// LimitsConfig configures request throttling (pkg/limits).
type LimitsConfig struct {
	// Enabled controls whether the rate-limiting stage is installed.
	Enabled bool `toml:"enabled"`
	// Routes maps a route pattern to its rate limit. A route with no
	// entry here is unthrottled.
	Routes map[string]RouteLimitConfig `toml:"routes"`
}

// RouteLimitConfig is one route's throttling configuration.
type RouteLimitConfig struct {
	// RequestsPerSecond bounds the steady-state request rate.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	// Burst is parsed but not applied: the route's token bucket always
	// holds twice RequestsPerSecond (see ratelimit.NewLimiter).
	Burst int `toml:"burst"`
	// MaxConcurrent bounds in-flight requests; 0 disables the check.
	MaxConcurrent int `toml:"max_concurrent"`
}

// HealthConfig configures upstream liveness probing (pkg/health).
type HealthConfig struct {
	// Enabled controls whether background probing runs.
	Enabled bool `toml:"enabled"`
	// IntervalSec is the time between probes of one upstream.
	IntervalSec int `toml:"interval_sec"`
	// TimeoutSec bounds one probe.
	TimeoutSec int `toml:"timeout_sec"`
	// UnhealthyThreshold is the number of consecutive failures before an
	// upstream is annotated unhealthy.
	UnhealthyThreshold int `toml:"unhealthy_threshold"`
	// HealthyThreshold is the number of consecutive successes before an
	// unhealthy upstream is annotated healthy again.
	HealthyThreshold int `toml:"healthy_threshold"`
}

// ReloadConfig configures the hot-reload trigger surface.
type ReloadConfig struct {
	// GitSource, if non-nil, polls a Git repository for TOML config
	// changes and triggers pkg/reload.Controller.Reload.
	GitSource *GitSourceConfig `toml:"gitsource"`
}

// GitSourceConfig configures pkg/reload/gitsource.Source.
type GitSourceConfig struct {
	// Repo is the remote URL of the Git repository to clone and poll.
	Repo string `toml:"repo"`
	// Branch is the branch to track. Default: "main"
	Branch string `toml:"branch"`
	// PollIntervalSec is the time between polls.
	PollIntervalSec int `toml:"poll_interval_sec"`
	// PollTimeoutSec bounds one Git fetch/pull.
	PollTimeoutSec int `toml:"poll_timeout_sec"`
}

// TelemetryConfig configures logging, metrics, and tracing.
type TelemetryConfig struct {
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
	Tracing TracingConfig `toml:"tracing"`
}

// LoggingConfig configures pkg/telemetry/logging.Logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error". Default: "info"
	Level string `toml:"level"`
	// Format is "json", "text", or "console". Default: "json"
	Format string `toml:"format"`
	// AddSource includes file:line in log entries.
	AddSource bool `toml:"add_source"`
	// RedactSensitive enables pattern-based redaction of log fields.
	RedactSensitive bool `toml:"redact_sensitive"`
	// BufferSize is the async log buffer size. Default: 10000
	BufferSize int `toml:"buffer_size"`
	// RedactPatterns contains custom redaction patterns, in addition to
	// the logging package's built-in set.
	RedactPatterns []logging.RedactPattern `toml:"redact_patterns"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool `toml:"enabled"`
	// Path is the HTTP path for the metrics endpoint. Default: "/metrics"
	Path string `toml:"path"`
	// Namespace is the metric name prefix. Default: "relay"
	Namespace string `toml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled controls whether tracing spans are emitted.
	Enabled bool `toml:"enabled"`
	// Exporter selects "otlp" or "none". Default: "none"
	Exporter string `toml:"exporter"`
	// Endpoint is the OTLP collector endpoint.
	Endpoint string `toml:"endpoint"`
	// SampleRatio is the fraction of traces sampled (0.0 to 1.0).
	SampleRatio float64 `toml:"sample_ratio"`
}

// durationSec converts a config field expressed in seconds to a
// time.Duration, treating 0 as "use the caller's default" rather than
// "zero timeout" — see DefaultConfig in pkg/httpproxy and
// pkg/thriftproxy for the defaults a zero value falls back to.
func durationSec(sec int) time.Duration {
	if sec <= 0 {
		return 0
	}
	return time.Duration(sec) * time.Second
}
