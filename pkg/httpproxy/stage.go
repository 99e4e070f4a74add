package httpproxy

import (
	"context"
	"fmt"

	"mercator-hq/relay/pkg/connector"
	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/perrors"
	"mercator-hq/relay/pkg/router"
	"mercator-hq/relay/pkg/routepolicy"
	"mercator-hq/relay/pkg/service"
)

// NewRouterStage returns the StageFactory for the combined router+forward
// stage: it matches and admits a route (evaluating each candidate's
// optional `when` predicate, most-specific first, falling through on
// denial per router.Table.MatchAll's "try next candidate" contract),
// selects an upstream, acquires a connection (via inner, the connector
// stage), writes the translated request to it, reads the response back,
// and returns the connection to conn for reuse. conn and inner wrap the
// same underlying *connector.Connector: inner.Call performs the Acquire
// half through the ordinary Service composition so reload carries its
// warm pool across generations; conn.Release is called directly because
// release has no Service-shaped request/response to model it as a Call.
func NewRouterStage(table *router.Table, conn *connector.Connector, serverName string, cfg Config) service.StageFactory {
	return func(inner service.Service) service.Factory {
		return service.FactoryFunc(func(previous service.Service) (service.Service, error) {
			policies, err := compileRoutePolicies(table)
			if err != nil {
				return nil, err
			}
			return &routerStage{
				table:      table,
				policies:   policies,
				serverName: serverName,
				cfg:        cfg,
				conn:       conn,
				inner:      inner,
			}, nil
		})
	}
}

// compileRoutePolicies precompiles every route's `when` expression,
// keyed on the expression text itself rather than the route's pattern:
// two routes commonly share a pattern (a guarded route with a plain
// fallback behind it), and keying on pattern would have the fallback
// pick up the guarded route's predicate.
func compileRoutePolicies(table *router.Table) (map[string]*routepolicy.Predicate, error) {
	out := map[string]*routepolicy.Predicate{}
	for _, route := range table.Routes() {
		if route.When == "" || out[route.When] != nil {
			continue
		}
		pred, err := routepolicy.Compile(route.When)
		if err != nil {
			return nil, fmt.Errorf("routepolicy: route %q: %w", route.Pattern, err)
		}
		out[route.When] = pred
	}
	return out, nil
}

type routerStage struct {
	table      *router.Table
	policies   map[string]*routepolicy.Predicate
	serverName string
	cfg        Config
	conn       *connector.Connector
	inner      service.Service
}

func (s *routerStage) Call(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
	httpReq, ok := req.(*Request)
	if !ok {
		return pc, nil, fmt.Errorf("httpproxy: unexpected request type %T", req)
	}

	route, err := s.admit(pc, httpReq)
	if err != nil {
		return pc, nil, err
	}

	upstream, pc, err := s.table.Select(s.serverName, route, pc)
	if err != nil {
		return pc, nil, perrors.Wrap(perrors.ServerPolicy, "httpproxy.select_upstream", "selecting an upstream", err)
	}

	target := connector.Target{
		Name:        upstream.Name,
		URI:         upstream.URI,
		UnixPath:    upstream.UnixPath,
		DialTimeout: s.cfg.ConnectTimeout,
	}

	pc, resp, err := s.inner.Call(ctx, pc, connector.AcquireRequest{Target: target})
	if err != nil {
		return pc, nil, err
	}
	leased, ok := resp.(*connector.Leased)
	if !ok {
		return pc, nil, fmt.Errorf("httpproxy: connector stage returned unexpected type %T", resp)
	}

	upstreamResp, err := forwardRequest(ctx, leased.Conn, httpReq.Raw, s.cfg.ViaPseudonym, s.cfg.UpstreamReadTimeout)
	if err != nil {
		s.conn.Release(leased.Key, leased.Conn, false)
		return pc, nil, err
	}

	reusable := !upstreamResp.Close && !wantsClose(upstreamResp.Header, upstreamResp.ProtoMajor, upstreamResp.ProtoMinor)
	release := func(ok bool) { s.conn.Release(leased.Key, leased.Conn, ok && reusable) }

	if route.ContentHandler {
		if err := bufferBody(upstreamResp, s.cfg.MaxContentHandlerBytes); err != nil {
			release(false)
			return pc, nil, err
		}
		// The body is already fully drained; release immediately rather
		// than waiting for the caller to stream it downstream.
		release(true)
		return pc, &Response{Raw: upstreamResp, Release: func(bool) {}}, nil
	}

	return pc, &Response{Raw: upstreamResp, Release: release}, nil
}

// admit finds the most specific route matching the request path whose
// `when` predicate (if any) is satisfied, falling through to the next
// candidate on denial, matching router.Table.MatchAll's contract.
func (s *routerStage) admit(pc pcontext.Context, req *Request) (router.Route, error) {
	path := req.Raw.URL.Path
	candidates := s.table.MatchAll(path)
	if len(candidates) == 0 {
		return router.Route{}, perrors.New(perrors.ServerPolicy, "httpproxy.no_route", "no route matches "+path)
	}

	sni, _ := pc.TLSSNI()
	fields := routepolicy.Fields{
		Method: req.Raw.Method,
		Path:   path,
		Header: req.Raw.Header,
		SNI:    sni,
	}

	for _, route := range candidates {
		if route.When == "" {
			return route, nil
		}
		pred, hasPred := s.policies[route.When]
		if !hasPred {
			return route, nil
		}
		ok, err := pred.Evaluate(fields)
		if err != nil {
			return router.Route{}, perrors.Wrap(perrors.ServerPolicy, "httpproxy.predicate_error", "evaluating route predicate", err)
		}
		if ok {
			return route, nil
		}
	}
	return router.Route{}, perrors.New(perrors.ServerPolicy, "httpproxy.no_admitted_route", "no candidate route's predicate admitted "+path)
}
