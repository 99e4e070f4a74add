package main

import (
	"context"
	"errors"
	"time"

	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/perrors"
	"mercator-hq/relay/pkg/service"
	"mercator-hq/relay/pkg/telemetry/tracing"
)

// newTracingStage returns a StageFactory that opens a span around inner,
// stamping server/listener/request attributes before the call and route/
// upstream/error/duration attributes once inner has written them into
// pc. Placed outermost so the span covers the recorder and metrics
// stages too.
func newTracingStage(tracer *tracing.Tracer, serverName, listenerName, protocol string) service.StageFactory {
	return func(inner service.Service) service.Factory {
		return service.FactoryFunc(func(previous service.Service) (service.Service, error) {
			return service.ServiceFunc(func(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
				spanCtx, span := tracer.Start(ctx, "relay.proxy.request")
				defer span.End()

				tracing.SetServerAttributes(span, serverName, protocol, listenerName)
				if addr, ok := pc.PeerAddr(); ok {
					tracing.SetRequestAttributes(span, "", addr.String())
				}

				start := time.Now()
				outPC, resp, err := inner.Call(spanCtx, pc, req)
				tracing.SetDurationAttribute(span, time.Since(start).Milliseconds())

				if rm, ok := outPC.RouteMatch(); ok {
					upstream := ""
					if su, ok := outPC.SelectedUpstream(); ok {
						upstream = su.Name
					}
					tracing.SetRouteAttributes(span, rm.Pattern, upstream)
				}

				if err != nil {
					var perr *perrors.Error
					errType := "unknown"
					if errors.As(err, &perr) {
						errType = string(perr.Kind)
					}
					tracing.SetErrorAttributes(span, err, errType)
				}

				return outPC, resp, err
			}), nil
		})
	}
}
