package config

// ConfigBuilder provides a fluent API for building Config instances in
// tests. It starts with a minimal valid configuration and allows
// selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with a single "public" HTTP
// server routing "/" to one upstream. The resulting configuration is
// valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{
		Servers: map[string]ServerConfig{
			"public": {
				Name:      "public",
				ProxyType: "http",
				Listener:  ListenerRef{Type: "socket", Value: "127.0.0.1:0"},
				Routes: []RouteConfig{
					{
						Path:         "/",
						LoadBalancer: "random",
						Upstreams: []UpstreamConfig{
							{Weight: 1, Endpoint: EndpointRef{Type: "uri", Value: "http://127.0.0.1:9000"}},
						},
					},
				},
			},
		},
	}
	ApplyDefaults(&cfg)
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithWorkerThreads overrides runtime.worker_threads.
func (b *ConfigBuilder) WithWorkerThreads(n int) *ConfigBuilder {
	b.cfg.Runtime.WorkerThreads = n
	return b
}

// WithEvidence overrides the evidence section.
func (b *ConfigBuilder) WithEvidence(e EvidenceConfig) *ConfigBuilder {
	b.cfg.Evidence = e
	return b
}
