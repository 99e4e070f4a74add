// Package config provides configuration management for relay.
//
// This package handles loading, validating, and managing configuration from
// TOML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults,
// and conversion methods (build.go) that turn a parsed ServerConfig into
// the pkg/listener, pkg/httpproxy, pkg/thriftproxy, pkg/tlsstack, and
// pkg/router values cmd/relay needs to build a running server.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a TOML file only:
//     cfg, err := config.LoadConfig("relay.toml")
//
//  2. From a TOML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("relay.toml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RELAY_SECTION_FIELD.
// For example:
//
//   - RELAY_RUNTIME_WORKER_THREADS overrides runtime.worker_threads
//   - RELAY_EVIDENCE_BACKEND overrides evidence.backend
//   - RELAY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the TOML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At process startup
//	if err := config.Initialize("relay.toml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the process
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Runtime.WorkerThreads)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading:
//
//   - Required field checks (e.g., a server's listener.value)
//   - Enum validation (e.g., proxy_type must be "http" or "thrift")
//   - Structural validation (e.g., every route needs at least one upstream)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - servers.public.listener.value: must not be empty
//	  - servers.public.routes: at least one route must be configured
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	[runtime]
//	worker_threads = 4
//
//	[servers.public]
//	proxy_type = "http"
//	listener = { type = "socket", value = "0.0.0.0:8080" }
//
//	[[servers.public.routes]]
//	path = "/api/{*rest}"
//	load_balancer = "round_robin"
//
//	  [[servers.public.routes.upstreams]]
//	  endpoint = { type = "uri", value = "http://127.0.0.1:9000" }
//
//	[evidence]
//	enabled = true
//	backend = "sqlite"
//
//	[telemetry.logging]
//	level = "info"
//	format = "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses
// read-write locks to allow concurrent reads while protecting against
// concurrent writes during reload operations.
package config
