package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	gorun "runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

// Type selects the I/O driver model requested by config.
type Type string

const (
	// TypeCompletion requests a completion-queue driver. Go has none;
	// this value is accepted for config compatibility and treated
	// identically to TypeReadiness (see package doc).
	TypeCompletion Type = "completion"
	// TypeReadiness requests a readiness (edge-triggered) driver, which
	// is what the Go runtime's netpoller actually provides.
	TypeReadiness Type = "readiness"
)

// Config configures the Substrate.
type Config struct {
	// RuntimeType is the requested driver model. See Type.
	RuntimeType Type
	// WorkerThreads is N, the number of worker goroutines, each bound to
	// its own accept path. Must be >= 1; worker_threads=1 must work
	// end-to-end.
	WorkerThreads int
	// Entries is the submission-queue depth for TypeCompletion. It is
	// defaulted and kept for config compatibility but not applied: there
	// is no completion driver, and listeners use the Go runtime's own
	// accept backlog.
	Entries int
}

// DefaultEntries is the default submission-queue depth.
const DefaultEntries = 32768

// Substrate owns the N worker goroutines. Each worker is pinned to an OS
// thread via runtime.LockOSThread and listens on its own clone of every
// bound listener address via SO_REUSEPORT, so the kernel fans
// connections out across workers without any acceptor-level
// cross-thread handoff.
type Substrate struct {
	cfg     Config
	workers []*Worker
}

// Worker is one thread-per-core execution context. Tasks spawned on a
// Worker via Worker.Spawn never migrate to another worker.
type Worker struct {
	ID int
}

// New validates cfg and constructs a Substrate. It does not start any
// workers; call Run to do that.
func New(cfg Config) (*Substrate, error) {
	if cfg.WorkerThreads < 1 {
		return nil, fmt.Errorf("runtime: worker_threads must be >= 1, got %d", cfg.WorkerThreads)
	}
	if cfg.Entries <= 0 {
		cfg.Entries = DefaultEntries
	}
	if cfg.RuntimeType == "" {
		cfg.RuntimeType = TypeReadiness
	}
	if cfg.RuntimeType == TypeCompletion {
		slog.Info("runtime_type=completion requested; Go has no completion-queue driver, using the netpoller (readiness) and logging this once")
	}

	workers := make([]*Worker, cfg.WorkerThreads)
	for i := range workers {
		workers[i] = &Worker{ID: i}
	}
	return &Substrate{cfg: cfg, workers: workers}, nil
}

// Workers returns the substrate's worker set.
func (s *Substrate) Workers() []*Worker { return s.workers }

// ListenConfig returns a net.ListenConfig whose Control hook sets
// SO_REUSEPORT (and SO_REUSEADDR) so that every worker's call to Listen
// on the same address receives an independent kernel-side accept queue,
// rather than one worker distributing to the others over a channel.
// Falls back silently to a plain listener (still correct, just with a
// single shared accept queue) on platforms where SO_REUSEPORT is
// unavailable.
func (s *Substrate) ListenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var controlErr error
			err := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
					controlErr = err
					return
				}
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			if controlErr != nil {
				slog.Debug("SO_REUSEPORT unavailable, falling back to a shared accept queue", "network", network, "address", address, "error", controlErr)
			}
			return nil
		},
	}
}

// Spawn runs fn on a new goroutine that stays locked to its own OS thread
// for as long as fn runs, and returns at once without waiting for fn. fn
// must not block indefinitely without observing ctx. cmd/relay invokes
// Spawn once per worker per server to start that worker's accept loop.
func (w *Worker) Spawn(ctx context.Context, fn func(ctx context.Context, w *Worker)) {
	go func() {
		gorun.LockOSThread()
		defer gorun.UnlockOSThread()
		fn(ctx, w)
	}()
}
