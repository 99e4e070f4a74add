package reload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"mercator-hq/relay/pkg/listener"
	"mercator-hq/relay/pkg/service"
)

// BuildFunc builds the service pipeline for one worker of one listener.
// previous is nil on the very first build (process startup) and
// otherwise that worker's currently-published *service.Built, passed
// through so the stages underneath (pkg/connector's pool, pkg/router's
// round-robin counters) can carry warm state across the reload rather
// than starting cold. The returned io.Closer, if non-nil, is invoked
// once this generation is itself superseded by a later reload and is no
// longer reachable by any new connection — the right place for a
// connector to close its idle pool.
type BuildFunc func(workerID int, previous *service.Built) (*service.Built, io.Closer, error)

// Target is one listener's reload surface: its per-worker Bindings (one
// per worker.Worker, same order as pkg/runtime.Substrate.Workers) and
// the BuildFunc the controller calls to produce each worker's fresh
// generation.
type Target struct {
	Name     string
	Bindings []*listener.Binding
	Build    BuildFunc
}

// Controller orchestrates a hot reload across every registered
// listener. See the package doc for the build-verify-publish-drop
// sequence it guarantees.
type Controller struct {
	mu      sync.Mutex
	targets []Target
	genSeq  atomic.Uint64
}

// NewController creates an empty Controller.
func NewController() *Controller { return &Controller{} }

// Register adds a listener to the controller's reload surface. Bindings
// must already hold their startup generation (built and published
// before the process starts accepting connections); Reload only ever
// builds *subsequent* generations.
func (c *Controller) Register(t Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = append(c.targets, t)
}

type builtTarget struct {
	target      Target
	generations []*listener.Generation
	previous    []*listener.Generation
}

// Reload builds a fresh generation for every worker of every registered
// listener and, only if every single build across every listener
// succeeds, publishes them all and then closes every superseded
// generation's resources. On the first build failure it returns
// immediately, having published nothing — every listener keeps serving
// whatever generation was already current.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	targets := append([]Target(nil), c.targets...)
	c.mu.Unlock()

	if len(targets) == 0 {
		return fmt.Errorf("reload: no listeners registered")
	}

	genID := c.genSeq.Add(1)
	results := make([]builtTarget, 0, len(targets))

	for _, t := range targets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		gens := make([]*listener.Generation, len(t.Bindings))
		prevs := make([]*listener.Generation, len(t.Bindings))
		for workerID, b := range t.Bindings {
			prev := b.Current()
			prevs[workerID] = prev
			var prevBuilt *service.Built
			if prev != nil {
				prevBuilt = prev.Built
			}
			svcBuilt, closer, err := t.Build(workerID, prevBuilt)
			if err != nil {
				return fmt.Errorf("reload: listener %q worker %d: %w", t.Name, workerID, err)
			}
			gens[workerID] = &listener.Generation{ID: genID, Built: svcBuilt, Closer: closer}
		}
		results = append(results, builtTarget{target: t, generations: gens, previous: prevs})
	}

	for _, r := range results {
		for workerID, b := range r.target.Bindings {
			b.Publish(r.generations[workerID])
		}
		slog.Info("reload: published new generation", "listener", r.target.Name, "generation", genID, "workers", len(r.generations))
	}

	for _, r := range results {
		for workerID, prev := range r.previous {
			if prev == nil || prev.Closer == nil {
				continue
			}
			if err := prev.Closer.Close(); err != nil {
				slog.Warn("reload: closing superseded generation", "listener", r.target.Name, "worker", workerID, "generation", prev.ID, "error", err)
			}
		}
	}
	return nil
}
