package listener

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/runtime"
)

// Protocol selects the transport the listener binds.
type Protocol string

const (
	ProtocolTCP  Protocol = "socket"
	ProtocolUnix Protocol = "unix"
)

// Config describes one listener binding.
type Config struct {
	Name     string
	Protocol Protocol
	Address  string // host:port for ProtocolTCP, filesystem path for ProtocolUnix
}

// minBackoff/maxBackoff bound the transient-accept-error back-off,
// following the capped-exponential retry idiom used for the rest of the
// module's transient-failure handling rather than a fixed sleep.
const (
	minBackoff = 5 * time.Millisecond
	maxBackoff = 100 * time.Millisecond
)

// Conn is one accepted, bidirectional stream: a local id, the underlying
// net.Conn, and the Context that accumulates facts as the connection's
// service pipeline runs.
type Conn struct {
	ID           uint64
	Raw          net.Conn
	ListenerName string
	Generation   uint64
	Context      pcontext.Context
}

var connSeq atomic.Uint64

// nextConnID returns a process-local, monotonically increasing
// connection id.
func nextConnID() uint64 { return connSeq.Add(1) }

// Listen binds cfg's address on the given substrate's ListenConfig
// (SO_REUSEPORT-enabled where available) and returns the raw
// net.Listener for one worker to Accept from.
func Listen(ctx context.Context, sub *runtime.Substrate, cfg Config) (net.Listener, error) {
	network := "tcp"
	if cfg.Protocol == ProtocolUnix {
		network = "unix"
	}
	return sub.ListenConfig().Listen(ctx, network, cfg.Address)
}

// AcceptLoop runs one worker's accept loop against ln until ctx is
// cancelled or ln is closed. On each accepted connection it stamps
// PeerAddr into a fresh Context, loads the Binding's current generation,
// and invokes onAccept with the resulting Conn and Generation — onAccept
// is responsible for obtaining/reusing the generation's Service instance
// and launching the connection's pipeline task; AcceptLoop itself never
// touches the pipeline.
//
// Transient accept errors (EMFILE, ECONNABORTED, etc.) are logged and
// retried with a capped exponential back-off; a permanent error
// (listener closed, e.g. for a reload-driven socket swap or shutdown)
// ends the loop cleanly.
func AcceptLoop(ctx context.Context, ln net.Listener, binding *Binding, onAccept func(*Conn, *Generation)) {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() { //nolint:staticcheck // EMFILE/ECONNABORTED are transient
				slog.Warn("transient accept error, retrying", "listener", binding.Name, "error", err, "backoff", backoff)
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return
				}
				if backoff < maxBackoff {
					backoff *= 2
					if backoff > maxBackoff {
						backoff = maxBackoff
					}
				}
				continue
			}
			slog.Info("listener closed, accept loop exiting", "listener", binding.Name, "error", err)
			return
		}
		backoff = minBackoff

		gen := binding.Current()
		conn := &Conn{
			ID:           nextConnID(),
			Raw:          raw,
			ListenerName: binding.Name,
			Generation:   gen.ID,
			Context:      pcontext.New(time.Now()).WithPeerAddr(raw.RemoteAddr()),
		}
		onAccept(conn, gen)
	}
}
