package listener

import (
	"io"
	"sync/atomic"

	"mercator-hq/relay/pkg/service"
)

// Generation is one immutable, fully-built service pipeline plus the
// monotonically increasing id that names it. New connections adopt
// whatever generation is current at the moment they are accepted; a
// connection never switches generation mid-flight.
type Generation struct {
	ID    uint64
	Built *service.Built
	// Closer, if non-nil, releases resources this generation privately
	// owns (e.g. a connector's idle connection pool) once pkg/reload has
	// confirmed every worker's Binding has moved past this generation —
	// closing it any earlier could sever a connection an in-flight
	// request on the old generation is still using.
	Closer io.Closer
}

// Binding is the one cross-thread shared object on the data path: an
// atomic pointer to the listener's current Generation. Workers Load it
// with acquire ordering on every accept; the reconfiguration controller
// (pkg/reload) Stores a new Generation with release ordering. Go's
// atomic.Pointer already provides acquire/release semantics for
// Load/Store, so no explicit memory-order annotation is needed — this is
// the one place in the whole pipeline that uses an atomic rather than a
// channel or mutex, since the read on the hot path must be wait-free.
type Binding struct {
	Name string

	gen atomic.Pointer[Generation]
}

// NewBinding creates a Binding for the named listener, initialized to the
// given first generation (built at process startup, before any
// connection is accepted).
func NewBinding(name string, first *Generation) *Binding {
	b := &Binding{Name: name}
	b.gen.Store(first)
	return b
}

// Current returns the listener's active generation. Safe for concurrent
// use from any worker without locking.
func (b *Binding) Current() *Generation {
	return b.gen.Load()
}

// Publish atomically swaps in a new generation. Called only by the
// reconfiguration controller, once per worker, after that worker's
// factory.Make has already succeeded — so Publish itself never fails.
func (b *Binding) Publish(g *Generation) {
	b.gen.Store(g)
}
