package health

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"mercator-hq/relay/pkg/router"
)

// ProbeFunc dials target and returns nil if it is reachable. The default
// implementation (DefaultProbe) opens and immediately closes a
// connection; callers needing a richer check (e.g. an HTTP HEAD against
// a specific path) can supply their own.
type ProbeFunc func(ctx context.Context, target router.Upstream) error

// Config configures a Prober.
type Config struct {
	// Interval is the time between probes of one upstream while healthy.
	// Default: 10s.
	Interval time.Duration
	// Timeout bounds one probe. Default: 2s.
	Timeout time.Duration
	// UnhealthyThreshold is the number of consecutive failed probes
	// before an upstream is annotated Unhealthy. Default: 3.
	UnhealthyThreshold int
	// HealthyThreshold is the number of consecutive successful probes
	// before an Unhealthy upstream is annotated Healthy again. Default: 2.
	HealthyThreshold int
	// Probe performs one liveness check. Default: DefaultProbe.
	Probe ProbeFunc
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Second
	}
	if c.UnhealthyThreshold <= 0 {
		c.UnhealthyThreshold = 3
	}
	if c.HealthyThreshold <= 0 {
		c.HealthyThreshold = 2
	}
	if c.Probe == nil {
		c.Probe = DefaultProbe
	}
	return c
}

// DefaultProbe dials target's address and closes the connection without
// sending data.
func DefaultProbe(ctx context.Context, target router.Upstream) error {
	network, addr := "tcp", target.URI
	if target.UnixPath != "" {
		network, addr = "unix", target.UnixPath
	} else if u, err := url.Parse(target.URI); err == nil && u.Host != "" {
		addr = u.Host
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Prober periodically probes a set of registered upstreams and tracks
// their advisory health. It never feeds back into pkg/router's
// selection logic.
type Prober struct {
	cfg Config

	mu       sync.RWMutex
	targets  map[string]router.Upstream
	statuses map[string]*UpstreamStatus

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Prober. Call Register for each server's upstreams before
// Start.
func New(cfg Config) *Prober {
	return &Prober{
		cfg:      cfg.withDefaults(),
		targets:  make(map[string]router.Upstream),
		statuses: make(map[string]*UpstreamStatus),
		stopCh:   make(chan struct{}),
	}
}

func targetKey(serverName, name string) string { return serverName + "#" + name }

// Register adds serverName's upstreams to the probe set. Safe to call
// before Start; calling after Start has begun probing an upstream that
// was already registered has no effect (Register does not restart an
// in-flight probe loop).
func (p *Prober) Register(serverName string, upstreams []router.Upstream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range upstreams {
		key := targetKey(serverName, u.Name)
		if _, exists := p.targets[key]; exists {
			continue
		}
		p.targets[key] = u
		p.statuses[key] = &UpstreamStatus{
			ServerName: serverName,
			Name:       u.Name,
			Endpoint:   endpointOf(u),
			Status:     StatusUnknown,
		}
	}
}

func endpointOf(u router.Upstream) string {
	if u.UnixPath != "" {
		return u.UnixPath
	}
	return u.URI
}

// Start launches one probe loop per registered upstream. It returns
// immediately; probing continues in the background until ctx is
// cancelled or Stop is called.
func (p *Prober) Start(ctx context.Context) {
	p.mu.RLock()
	keys := make([]string, 0, len(p.targets))
	for key := range p.targets {
		keys = append(keys, key)
	}
	p.mu.RUnlock()

	for _, key := range keys {
		target := p.targets[key]
		p.wg.Add(1)
		go p.runLoop(ctx, key, target)
	}
}

// Stop halts all probe loops and waits for them to exit.
func (p *Prober) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Prober) runLoop(ctx context.Context, key string, target router.Upstream) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.probeOnce(ctx, key, target)

			st, _ := p.Status(key)
			if st.Status == StatusUnhealthy {
				ticker.Reset(calculateBackoff(st.ConsecutiveFailures, p.cfg.Interval))
			} else {
				ticker.Reset(p.cfg.Interval)
			}
		}
	}
}

func (p *Prober) probeOnce(ctx context.Context, key string, target router.Upstream) {
	checkCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := p.cfg.Probe(checkCtx, target)
	latency := time.Since(start)

	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.statuses[key]
	if st == nil {
		return
	}
	st.LastCheck = time.Now()
	st.LastLatency = latency

	if err != nil {
		st.ConsecutiveFailures++
		st.ConsecutiveSuccesses = 0
		st.LastError = err.Error()
		if st.ConsecutiveFailures >= p.cfg.UnhealthyThreshold {
			if st.Status != StatusUnhealthy {
				slog.Warn("upstream marked unhealthy", "server", st.ServerName, "upstream", st.Name, "consecutive_failures", st.ConsecutiveFailures, "error", err)
			}
			st.Status = StatusUnhealthy
		}
		return
	}

	st.ConsecutiveFailures = 0
	st.LastError = ""
	st.ConsecutiveSuccesses++
	if st.Status != StatusHealthy && (st.Status == StatusUnknown || st.ConsecutiveSuccesses >= p.cfg.HealthyThreshold) {
		if st.Status == StatusUnhealthy {
			slog.Info("upstream recovered", "server", st.ServerName, "upstream", st.Name)
		}
		st.Status = StatusHealthy
	}
}

// calculateBackoff doubles the base interval per consecutive failure,
// capped at 10x base and an absolute ceiling of 5 minutes.
func calculateBackoff(consecutiveFailures int, base time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return base
	}
	multiplier := 1 << uint(consecutiveFailures)
	if multiplier > 10 {
		multiplier = 10
	}
	backoff := base * time.Duration(multiplier)
	if max := 5 * time.Minute; backoff > max {
		backoff = max
	}
	return backoff
}

// Status returns the current status of one upstream, identified by the
// serverName/upstream-name pair passed to Register.
func (p *Prober) Status(key string) (UpstreamStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.statuses[key]
	if !ok {
		return UpstreamStatus{}, false
	}
	return *st, true
}

// StatusFor is Status keyed by serverName and upstream name separately.
func (p *Prober) StatusFor(serverName, name string) (UpstreamStatus, bool) {
	return p.Status(targetKey(serverName, name))
}

// Snapshot returns every registered upstream's current status.
func (p *Prober) Snapshot() []UpstreamStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]UpstreamStatus, 0, len(p.statuses))
	for _, st := range p.statuses {
		out = append(out, *st)
	}
	return out
}
