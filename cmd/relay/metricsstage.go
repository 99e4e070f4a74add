package main

import (
	"context"
	"errors"
	"time"

	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/perrors"
	"mercator-hq/relay/pkg/service"
	"mercator-hq/relay/pkg/telemetry/metrics"
)

// newMetricsStage returns a StageFactory that times inner and records the
// result against collector, keyed by the route and upstream the inner
// call wrote into pc (router and connector have both already run by the
// time this stage's wrapped Call returns). Placed just inside the
// tracing stage and just outside the evidence recorder, so it observes
// exactly what was recorded.
func newMetricsStage(collector *metrics.Collector, serverName string) service.StageFactory {
	return func(inner service.Service) service.Factory {
		return service.FactoryFunc(func(previous service.Service) (service.Service, error) {
			return service.ServiceFunc(func(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
				start := time.Now()
				outPC, resp, err := inner.Call(ctx, pc, req)
				duration := time.Since(start)

				route := "unmatched"
				if rm, ok := outPC.RouteMatch(); ok {
					route = rm.Pattern
				}
				upstream := ""
				if su, ok := outPC.SelectedUpstream(); ok {
					upstream = su.Name
					collector.RecordUpstreamLatency(serverName, upstream, duration)
				}

				collector.RecordRequest(serverName, route, upstream, statusOf(err), duration)
				if err != nil {
					var perr *perrors.Error
					if errors.As(err, &perr) && upstream != "" {
						collector.RecordUpstreamError(serverName, upstream, string(perr.Kind))
					}
				}

				return outPC, resp, err
			}), nil
		})
	}
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	var perr *perrors.Error
	if errors.As(err, &perr) && perr.Kind == perrors.RateLimited {
		return "rejected"
	}
	return "error"
}
