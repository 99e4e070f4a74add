package routestage

import (
	"context"

	"mercator-hq/relay/pkg/limits/ratelimit"
	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/perrors"
	"mercator-hq/relay/pkg/service"
)

// RouteLimit is one route pattern's throttling configuration.
type RouteLimit struct {
	// RequestsPerSecond bounds the steady-state request rate for this
	// route. Zero disables the request-rate check.
	RequestsPerSecond float64
	// MaxConcurrent bounds in-flight requests for this route. Zero
	// disables the concurrency check.
	MaxConcurrent int
}

// Config maps a route pattern to its RouteLimit. A pattern with no
// entry is unthrottled.
type Config struct {
	Routes map[string]RouteLimit
}

// NewStage returns a StageFactory that throttles requests per matched
// route pattern. It must be installed between the router stage (which
// writes pcontext.RouteMatch) and the connector stage; a request whose
// Context carries no RouteMatch, or whose matched pattern has no entry
// in cfg.Routes, passes straight through.
func NewStage(cfg Config) service.StageFactory {
	limiters := make(map[string]*ratelimit.Limiter, len(cfg.Routes))
	for pattern, rl := range cfg.Routes {
		limiters[pattern] = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: int(rl.RequestsPerSecond),
			MaxConcurrent:     rl.MaxConcurrent,
		})
	}

	return func(inner service.Service) service.Factory {
		return service.FactoryFunc(func(previous service.Service) (service.Service, error) {
			return &stage{limiters: limiters, inner: inner}, nil
		})
	}
}

type stage struct {
	limiters map[string]*ratelimit.Limiter
	inner    service.Service
}

func (s *stage) Call(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
	lim := s.limiterFor(pc)
	if lim == nil {
		return s.inner.Call(ctx, pc, req)
	}

	if res := lim.CheckRequest(); !res.Allowed {
		return pc, nil, perrors.New(perrors.RateLimited, "limits.rate_exceeded", res.Reason)
	}
	if !lim.AcquireConcurrent() {
		return pc, nil, perrors.New(perrors.RateLimited, "limits.concurrency_exceeded", "max concurrent requests exceeded for this route")
	}
	defer lim.ReleaseConcurrent()

	return s.inner.Call(ctx, pc, req)
}

func (s *stage) limiterFor(pc pcontext.Context) *ratelimit.Limiter {
	rm, ok := pc.RouteMatch()
	if !ok {
		return nil
	}
	return s.limiters[rm.Pattern]
}
