package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/connector"
	"mercator-hq/relay/pkg/evidence"
	"mercator-hq/relay/pkg/evidence/recorder"
	"mercator-hq/relay/pkg/evidence/retention"
	"mercator-hq/relay/pkg/evidence/storage"
	"mercator-hq/relay/pkg/health"
	"mercator-hq/relay/pkg/httpproxy"
	"mercator-hq/relay/pkg/limits/routestage"
	"mercator-hq/relay/pkg/listener"
	policygit "mercator-hq/relay/pkg/policy/git"
	"mercator-hq/relay/pkg/reload"
	"mercator-hq/relay/pkg/reload/gitsource"
	"mercator-hq/relay/pkg/router"
	"mercator-hq/relay/pkg/runtime"
	"mercator-hq/relay/pkg/service"
	"mercator-hq/relay/pkg/telemetry/logging"
	"mercator-hq/relay/pkg/telemetry/metrics"
	"mercator-hq/relay/pkg/telemetry/tracing"
	"mercator-hq/relay/pkg/thriftproxy"
	"mercator-hq/relay/pkg/tlsstack"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the proxy",
	Long:  `Load config.toml (or the path given by --config), build every configured server's listeners, and serve until SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelay(cmd.Context(), cfgFile, dryRun)
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "load and validate config, then exit without starting any listener")
	rootCmd.AddCommand(runCmd)
}

// serverRuntime is everything one [[servers.NAME]] entry needs kept
// alive for the lifetime of the process: its probe targets, and the
// per-worker bindings the reload controller publishes into.
type serverRuntime struct {
	name      string
	cfg       config.ServerConfig
	bindings  []*listener.Binding
	upstreams []router.Upstream
}

func runRelay(ctx context.Context, path string, dryRun bool) error {
	if err := config.Initialize(path); err != nil {
		return fmt.Errorf("relay: loading config: %w", err)
	}
	cfg := config.GetConfig()

	logger, err := logging.New(logging.Config{
		Level:          cfg.Telemetry.Logging.Level,
		Format:         cfg.Telemetry.Logging.Format,
		AddSource:      cfg.Telemetry.Logging.AddSource,
		RedactPII:      cfg.Telemetry.Logging.RedactSensitive,
		BufferSize:     cfg.Telemetry.Logging.BufferSize,
		RedactPatterns: cfg.Telemetry.Logging.RedactPatterns,
	})
	if err != nil {
		return fmt.Errorf("relay: building logger: %w", err)
	}
	slog.SetDefault(logger.Slog())

	if dryRun {
		slog.Info("relay: config valid, exiting (--dry-run)", "servers", len(cfg.Servers))
		return nil
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return fmt.Errorf("relay: building tracer: %w", err)
	}
	defer tracer.Shutdown(context.Background())

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	sub, err := runtime.New(runtime.Config{
		RuntimeType:   runtime.Type(cfg.Runtime.RuntimeType),
		WorkerThreads: cfg.Runtime.WorkerThreads,
		Entries:       cfg.Runtime.Entries,
	})
	if err != nil {
		return fmt.Errorf("relay: building runtime substrate: %w", err)
	}

	evidenceStore, err := buildEvidenceStorage(&cfg.Evidence)
	if err != nil {
		return fmt.Errorf("relay: building evidence storage: %w", err)
	}

	controller := reload.NewController()
	servers := make([]*serverRuntime, 0, len(cfg.Servers))

	for name, serverCfg := range cfg.Servers {
		serverCfg := serverCfg
		if serverCfg.Name == "" {
			serverCfg.Name = name
		}

		routes, err := serverCfg.RouteTable()
		if err != nil {
			return fmt.Errorf("relay: server %q: %w", name, err)
		}
		table, err := router.NewTable(routes)
		if err != nil {
			return fmt.Errorf("relay: server %q: building route table: %w", name, err)
		}

		var upstreams []router.Upstream
		for _, r := range table.Routes() {
			upstreams = append(upstreams, r.Upstreams...)
		}

		sr := &serverRuntime{name: name, cfg: serverCfg, upstreams: upstreams}

		buildFn, err := newBuildFunc(serverCfg, table, evidenceStore, cfg.Evidence, collector, tracer, cfg.Limits)
		if err != nil {
			return fmt.Errorf("relay: server %q: %w", name, err)
		}

		bindings := make([]*listener.Binding, len(sub.Workers()))
		for workerID := range bindings {
			built, closer, err := buildFn(workerID, nil)
			if err != nil {
				return fmt.Errorf("relay: server %q: worker %d: initial build: %w", name, workerID, err)
			}
			bindings[workerID] = listener.NewBinding(name, &listener.Generation{ID: 0, Built: built, Closer: closer})
		}
		sr.bindings = bindings
		servers = append(servers, sr)

		controller.Register(reload.Target{Name: name, Bindings: bindings, Build: buildFn})
	}

	prober := startHealthProber(ctx, &cfg.Health, servers)
	pruner := startRetentionPruner(ctx, &cfg.Evidence, evidenceStore)
	gitSrc := startGitSource(ctx, cfg.Reload.GitSource, controller)

	go reload.WatchSignals(ctx, controller)

	for _, sr := range servers {
		listenerCfg := sr.cfg.ListenerConfig(sr.name)
		for workerID, binding := range sr.bindings {
			ln, err := listener.Listen(ctx, sub, listenerCfg)
			if err != nil {
				return fmt.Errorf("relay: server %q: worker %d: listening on %s: %w", sr.name, workerID, listenerCfg.Address, err)
			}
			go func() {
				<-ctx.Done()
				_ = ln.Close()
			}()

			worker := sub.Workers()[workerID]
			onAccept := newAcceptHandler(sr)
			worker.Spawn(ctx, func(ctx context.Context, w *runtime.Worker) {
				listener.AcceptLoop(ctx, ln, binding, onAccept)
			})
			slog.Info("relay: listening", "server", sr.name, "worker", workerID, "address", listenerCfg.Address, "proxy_type", sr.cfg.ProxyType)
		}
	}

	<-ctx.Done()
	slog.Info("relay: shutting down")
	if prober != nil {
		prober.Stop()
	}
	if pruner != nil {
		pruner.Stop()
	}
	if gitSrc != nil {
		_ = gitSrc.Stop()
	}
	return nil
}

// newAcceptHandler returns the listener.AcceptLoop callback for one
// server: it TLS-terminates when configured, then dispatches to
// httpproxy.ServeConn or thriftproxy.ServeConn by proxy_type.
func newAcceptHandler(sr *serverRuntime) func(*listener.Conn, *listener.Generation) {
	var tlsConfig *tls.Config
	tlsFailed := false
	if sr.cfg.TLS != nil {
		cfg, err := tlsstack.Build(sr.cfg.TLSStackConfig())
		if err != nil {
			slog.Error("relay: building TLS stack, server will reject every connection", "server", sr.name, "error", err)
			tlsFailed = true
		} else {
			tlsConfig = cfg
		}
	}

	httpCfg := sr.cfg.HTTPProxyConfig()
	thriftCfg := sr.cfg.ThriftProxyConfig()
	proxyType := sr.cfg.ProxyType
	if proxyType == "" {
		proxyType = "http"
	}

	return func(conn *listener.Conn, gen *listener.Generation) {
		go func() {
			defer conn.Raw.Close()
			if tlsFailed {
				return
			}

			raw := conn.Raw
			pc := conn.Context
			ctx := context.Background()

			if tlsConfig != nil {
				tlsConn, outPC, err := tlsstack.Terminate(ctx, raw, tlsConfig, pc, httpCfg.ReadHeaderTimeout)
				if err != nil {
					slog.Warn("relay: TLS handshake failed", "server", sr.name, "error", err)
					return
				}
				raw = tlsConn
				pc = outPC
			}

			switch proxyType {
			case "thrift":
				thriftproxy.ServeConn(ctx, raw, pc, gen.Built.Entry, sr.name, thriftCfg)
			default:
				httpproxy.ServeConn(ctx, raw, pc, gen.Built.Entry, sr.name, httpCfg)
			}
		}()
	}
}

// newBuildFunc returns the reload.BuildFunc for one server: on every
// call it composes a fresh Stack (tracing -> metrics -> recorder ->
// router -> limits -> connector) around a per-generation connector and
// recorder, and returns a Closer that releases both once this
// generation is superseded.
func newBuildFunc(serverCfg config.ServerConfig, table *router.Table, evidenceStore evidence.Storage, evidenceCfg config.EvidenceConfig, collector *metrics.Collector, tracer *tracing.Tracer, limitsCfg config.LimitsConfig) (reload.BuildFunc, error) {
	var genSeq atomic.Uint64

	return func(workerID int, previous *service.Built) (*service.Built, io.Closer, error) {
		conn := connector.NewConnector(connectorMaxIdle(serverCfg.Connector), connectorIdleTimeout(serverCfg.Connector))

		var rec *recorder.Recorder
		if evidenceStore != nil {
			gen := genSeq.Add(1)
			recCfg := recorder.DefaultConfig()
			recCfg.Enabled = true
			if evidenceCfg.AsyncBuffer > 0 {
				recCfg.AsyncBuffer = evidenceCfg.AsyncBuffer
			}
			if evidenceCfg.WriteTimeoutSec > 0 {
				recCfg.WriteTimeout = time.Duration(evidenceCfg.WriteTimeoutSec) * time.Second
			}
			if len(evidenceCfg.RedactHeaders) > 0 {
				recCfg.RedactHeaders = evidenceCfg.RedactHeaders
			}
			if evidenceCfg.MaxFieldLength > 0 {
				recCfg.MaxFieldLength = evidenceCfg.MaxFieldLength
			}
			rec =recorder.NewRecorder(evidenceStore, recCfg, serverCfg.Name, gen)
		}

		stack := service.NewStack()
		stack.Use("tracing", newTracingStage(tracer, serverCfg.Name, serverCfg.Name, serverCfg.ProxyType))
		stack.Use("metrics", newMetricsStage(collector, serverCfg.Name))
		stack.Use("recorder", recorder.NewStage(rec))

		switch serverCfg.ProxyType {
		case "thrift":
			stack.Use("router", thriftproxy.NewRouterStage(table, conn, serverCfg.Name, serverCfg.ThriftProxyConfig()))
		default:
			stack.Use("router", httpproxy.NewRouterStage(table, conn, serverCfg.Name, serverCfg.HTTPProxyConfig()))
		}

		var routeLimits map[string]config.RouteLimitConfig
		if limitsCfg.Enabled {
			routeLimits = limitsCfg.Routes
		}
		stack.Use("limits", routestage.NewStage(routeLimitsFor(routeLimits)))
		stack.Use("connector", connector.NewStage(conn))

		built, err := stack.Build(previous)
		if err != nil {
			return nil, nil, err
		}

		var closers multiCloser
		closers = append(closers, conn)
		if rec != nil {
			closers = append(closers, rec)
		}
		return built, closers, nil
	}, nil
}

func connectorMaxIdle(cfg config.ConnectorConfig) int {
	if cfg.MaxIdlePerKey > 0 {
		return cfg.MaxIdlePerKey
	}
	return connector.DefaultMaxIdlePerKey
}

func connectorIdleTimeout(cfg config.ConnectorConfig) time.Duration {
	if cfg.IdleTimeoutSec > 0 {
		return time.Duration(cfg.IdleTimeoutSec) * time.Second
	}
	return connector.DefaultIdleTimeout
}

// routeLimitsFor converts the configured rate-limit table into the shape
// pkg/limits/routestage expects. routes is nil when [limits] is
// disabled or empty; an empty Config makes every route unthrottled,
// which is routestage's documented passthrough behavior.
func routeLimitsFor(routes map[string]config.RouteLimitConfig) routestage.Config {
	out := routestage.Config{Routes: make(map[string]routestage.RouteLimit, len(routes))}
	for pattern, rl := range routes {
		out.Routes[pattern] = routestage.RouteLimit{
			RequestsPerSecond: rl.RequestsPerSecond,
			MaxConcurrent:     rl.MaxConcurrent,
		}
	}
	return out
}

func buildEvidenceStorage(cfg *config.EvidenceConfig) (evidence.Storage, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite", "":
		sqliteCfg := storage.DefaultSQLiteConfig()
		if cfg.SQLite.Path != "" {
			sqliteCfg.Path = cfg.SQLite.Path
		}
		if cfg.SQLite.MaxOpenConns > 0 {
			sqliteCfg.MaxOpenConns = cfg.SQLite.MaxOpenConns
		}
		if cfg.SQLite.MaxIdleConns > 0 {
			sqliteCfg.MaxIdleConns = cfg.SQLite.MaxIdleConns
		}
		sqliteCfg.WALMode = cfg.SQLite.WALMode
		if cfg.SQLite.BusyTimeoutSec > 0 {
			sqliteCfg.BusyTimeout = time.Duration(cfg.SQLite.BusyTimeoutSec) * time.Second
		}
		return storage.NewSQLiteStorage(sqliteCfg)
	default:
		return nil, fmt.Errorf("unknown evidence backend %q", cfg.Backend)
	}
}

func startHealthProber(ctx context.Context, cfg *config.HealthConfig, servers []*serverRuntime) *health.Prober {
	if !cfg.Enabled {
		return nil
	}
	prober := health.New(health.Config{
		Interval:           time.Duration(cfg.IntervalSec) * time.Second,
		Timeout:            time.Duration(cfg.TimeoutSec) * time.Second,
		UnhealthyThreshold: cfg.UnhealthyThreshold,
		HealthyThreshold:   cfg.HealthyThreshold,
	})
	for _, sr := range servers {
		prober.Register(sr.name, sr.upstreams)
	}
	prober.Start(ctx)
	return prober
}

func startRetentionPruner(ctx context.Context, cfg *config.EvidenceConfig, store evidence.Storage) *retention.Scheduler {
	if store == nil || cfg.Retention.RetentionDays == 0 && cfg.Retention.MaxRecords == 0 {
		return nil
	}
	pruner := retention.NewPruner(store, &retention.Config{
		RetentionDays:       cfg.Retention.RetentionDays,
		PruneSchedule:       cfg.Retention.PruneSchedule,
		ArchiveBeforeDelete: cfg.Retention.ArchiveBeforeDelete,
		ArchivePath:         cfg.Retention.ArchivePath,
		MaxRecords:          int64(cfg.Retention.MaxRecords),
	})
	scheduler := retention.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("relay: starting retention scheduler", "error", err)
		return nil
	}
	return scheduler
}

func startGitSource(ctx context.Context, cfg *config.GitSourceConfig, controller *reload.Controller) *gitsource.Source {
	if cfg == nil {
		return nil
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	repo, err := policygit.NewRepository(&policygit.RepoConfig{Repository: cfg.Repo, Branch: branch})
	if err != nil {
		slog.Error("relay: building gitsource repository", "error", err)
		return nil
	}
	if err := repo.Clone(ctx); err != nil {
		slog.Error("relay: cloning gitsource repository", "error", err)
		return nil
	}

	interval := time.Duration(cfg.PollIntervalSec) * time.Second
	timeout := time.Duration(cfg.PollTimeoutSec) * time.Second
	src := gitsource.NewSource(repo, interval, timeout, controller)
	if err := src.Start(ctx); err != nil {
		slog.Error("relay: starting gitsource", "error", err)
		return nil
	}
	return src
}
