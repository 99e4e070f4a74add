package config

// Default values for configuration fields not otherwise zero-valued.
const (
	DefaultRuntimeType     = "readiness"
	DefaultWorkerThreads   = 1
	DefaultRuntimeEntries  = 32768

	DefaultProxyType           = "http"
	DefaultListenerType        = "socket"
	DefaultLoadBalancer        = "random"
	DefaultUpstreamHTTPVersion = "auto"
	DefaultConnectorMaxIdlePerKey = 32
	DefaultConnectorIdleTimeoutSec = 60

	DefaultTLSStack = "platform-native"

	DefaultEvidenceEnabled        = true
	DefaultEvidenceBackend        = "sqlite"
	DefaultEvidenceSQLitePath     = "data/evidence.db"
	DefaultEvidenceAsyncBuffer    = 1000
	DefaultEvidenceWriteTimeoutSec = 5
	DefaultEvidenceMaxFieldLength = 500

	DefaultHealthIntervalSec        = 10
	DefaultHealthTimeoutSec         = 2
	DefaultHealthUnhealthyThreshold = 3
	DefaultHealthyThreshold         = 2

	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultLoggingBufferSize = 10000

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "relay"

	DefaultGitSourceBranch          = "main"
	DefaultGitSourcePollIntervalSec = 30
	DefaultGitSourcePollTimeoutSec  = 10
)

// DefaultRedactHeaders lists the request headers evidence recording
// redacts by default.
func DefaultRedactHeaders() []string {
	return []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key"}
}

// ApplyDefaults fills in zero-valued fields of cfg with the package
// defaults. Called by LoadConfig after unmarshaling and before
// Validate, so a config file only needs to set the fields it cares
// about.
func ApplyDefaults(cfg *Config) {
	if cfg.Runtime.RuntimeType == "" {
		cfg.Runtime.RuntimeType = DefaultRuntimeType
	}
	if cfg.Runtime.WorkerThreads == 0 {
		cfg.Runtime.WorkerThreads = DefaultWorkerThreads
	}
	if cfg.Runtime.Entries == 0 {
		cfg.Runtime.Entries = DefaultRuntimeEntries
	}

	for name, server := range cfg.Servers {
		if server.Name == "" {
			server.Name = name
		}
		if server.ProxyType == "" {
			server.ProxyType = DefaultProxyType
		}
		if server.Listener.Type == "" {
			server.Listener.Type = DefaultListenerType
		}
		if server.Connector.UpstreamHTTPVersion == "" {
			server.Connector.UpstreamHTTPVersion = DefaultUpstreamHTTPVersion
		}
		if server.Connector.MaxIdlePerKey == 0 {
			server.Connector.MaxIdlePerKey = DefaultConnectorMaxIdlePerKey
		}
		if server.Connector.IdleTimeoutSec == 0 {
			server.Connector.IdleTimeoutSec = DefaultConnectorIdleTimeoutSec
		}
		if server.TLS != nil && server.TLS.Stack == "" {
			server.TLS.Stack = DefaultTLSStack
		}
		for i, route := range server.Routes {
			if route.LoadBalancer == "" {
				route.LoadBalancer = DefaultLoadBalancer
			}
			server.Routes[i] = route
		}
		cfg.Servers[name] = server
	}

	if cfg.Evidence.Backend == "" {
		cfg.Evidence.Backend = DefaultEvidenceBackend
	}
	if cfg.Evidence.SQLite.Path == "" {
		cfg.Evidence.SQLite.Path = DefaultEvidenceSQLitePath
	}
	if cfg.Evidence.AsyncBuffer == 0 {
		cfg.Evidence.AsyncBuffer = DefaultEvidenceAsyncBuffer
	}
	if cfg.Evidence.WriteTimeoutSec == 0 {
		cfg.Evidence.WriteTimeoutSec = DefaultEvidenceWriteTimeoutSec
	}
	if cfg.Evidence.MaxFieldLength == 0 {
		cfg.Evidence.MaxFieldLength = DefaultEvidenceMaxFieldLength
	}
	if len(cfg.Evidence.RedactHeaders) == 0 {
		cfg.Evidence.RedactHeaders = DefaultRedactHeaders()
	}

	if cfg.Health.IntervalSec == 0 {
		cfg.Health.IntervalSec = DefaultHealthIntervalSec
	}
	if cfg.Health.TimeoutSec == 0 {
		cfg.Health.TimeoutSec = DefaultHealthTimeoutSec
	}
	if cfg.Health.UnhealthyThreshold == 0 {
		cfg.Health.UnhealthyThreshold = DefaultHealthUnhealthyThreshold
	}
	if cfg.Health.HealthyThreshold == 0 {
		cfg.Health.HealthyThreshold = DefaultHealthyThreshold
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.BufferSize == 0 {
		cfg.Telemetry.Logging.BufferSize = DefaultLoggingBufferSize
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	if gs := cfg.Reload.GitSource; gs != nil {
		if gs.Branch == "" {
			gs.Branch = DefaultGitSourceBranch
		}
		if gs.PollIntervalSec == 0 {
			gs.PollIntervalSec = DefaultGitSourcePollIntervalSec
		}
		if gs.PollTimeoutSec == 0 {
			gs.PollTimeoutSec = DefaultGitSourcePollTimeoutSec
		}
	}
}
