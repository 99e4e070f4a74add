package service

import (
	"context"

	"mercator-hq/relay/pkg/pcontext"
)

// Service is the abstract transform every pipeline layer implements:
// call(ctx, request) -> response | error. Request and Response are
// opaque `any` at this layer — concrete codecs (HTTP, Thrift) narrow
// them with a type assertion at the boundary where they are
// produced/consumed, rather than threading a generic request type
// through the whole stack.
//
// Implementations must not hold a lock across the call's own suspension
// points (I/O, timers). The one documented exception is the connector
// Pool, which synchronizes only around its map, never across the
// dial/handshake itself.
type Service interface {
	// Call executes the service's transform. ctx carries deadline/
	// cancellation (stdlib context.Context); pc carries the typed
	// pipeline facts (pcontext.Context, passed by value since it is a
	// small immutable struct of optional fields — copying it is cheaper
	// and safer than sharing a pointer across concurrent layers). Call
	// returns the Context as it stood after this layer ran (with any
	// facts this layer inserted) so an outer layer — or the top-level
	// caller, for per-request logging — observes them without pc needing
	// to be a shared, mutable pointer.
	Call(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error)
}

// ServiceFunc adapts a plain function to the Service interface, the way
// http.HandlerFunc adapts a function to http.Handler.
type ServiceFunc func(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error)

// Call implements Service.
func (f ServiceFunc) Call(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
	return f(ctx, pc, req)
}

// Factory builds a Service instance. It is invoked once at startup and
// once per worker on every reload. previous is the prior generation's
// Service instance for this same layer, if any, giving the new factory
// the right to salvage warm state (pools, counters) rather than
// rebuilding it from scratch, as an in-place carry-over built into the
// layer's own constructor contract instead of a side update method.
type Factory interface {
	// Make builds a new Service instance. previous is nil on the very
	// first build (process startup) and non-nil on every subsequent
	// reload. A non-nil BuildError aborts the reload; the caller
	// (pkg/reload) guarantees the previous pipeline keeps serving traffic
	// unchanged.
	Make(previous Service) (Service, error)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc func(previous Service) (Service, error)

// Make implements Factory.
func (f FactoryFunc) Make(previous Service) (Service, error) { return f(previous) }

// BuildError wraps a factory build failure with the layer name that
// failed, so the reconfiguration controller can log which layer aborted
// the reload without losing the underlying cause.
type BuildError struct {
	Layer string
	Err   error
}

func (e *BuildError) Error() string {
	return "build " + e.Layer + ": " + e.Err.Error()
}

func (e *BuildError) Unwrap() error { return e.Err }
