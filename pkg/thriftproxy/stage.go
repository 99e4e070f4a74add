package thriftproxy

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

// Request is the request half of the typed payload that flows through
// the service pipeline between the connection loop and the
// router-and-forward stage: the decoded message plus the server
// listener's name, for RouteMatch/Stats bookkeeping.
type Request struct {
	Message    *Message
	ServerName string
}

// Response is the response half: the decoded reply message, or nil for
// a Oneway call that produced none.
type Response struct {
	Message *Message
}

// NewRouterStage returns the StageFactory for the Thrift router-and-
// forward stage: routes on the message's method name exactly as
// pkg/httpproxy routes on a request path (router.Table's pattern
// matching is protocol-agnostic), evaluates each candidate's optional
// `when` predicate, selects an upstream, acquires a pooled connection
// via inner (the connector stage), forwards the message, and reads the
// reply back. Unlike HTTP, a Thrift frame is a single self-contained
// unit with no streamed body, so the connection is released immediately
// after the round trip rather than deferred to a caller-driven Release.
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
	treq, ok := req.(*Request)
	if !ok {
		return pc, nil, fmt.Errorf("thriftproxy: unexpected request type %T", req)
	}

	route, err := s.admit(pc, treq)
	if err != nil {
		return pc, nil, err
	}

	upstream, pc, err := s.table.Select(s.serverName, route, pc)
	if err != nil {
		return pc, nil, perrors.Wrap(perrors.ServerPolicy, "thriftproxy.select_upstream", "selecting an upstream", err)
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
		return pc, nil, fmt.Errorf("thriftproxy: connector stage returned unexpected type %T", resp)
	}

	reply, err := forwardMessage(leased.Conn, treq.Message, s.cfg.ServerMessageTimeout, s.cfg.MaxFrameSize)
	s.conn.Release(leased.Key, leased.Conn, err == nil)
	if err != nil {
		return pc, nil, err
	}
	return pc, &Response{Message: reply}, nil
}

// admit finds the most specific route whose pattern matches the
// message's method name and whose `when` predicate (if any) is
// satisfied, falling through to the next candidate on denial.
func (s *routerStage) admit(pc pcontext.Context, req *Request) (router.Route, error) {
	name := req.Message.Name
	candidates := s.table.MatchAll(name)
	if len(candidates) == 0 {
		return router.Route{}, perrors.New(perrors.ServerPolicy, "thriftproxy.no_route", "no route matches method "+name)
	}

	sni, _ := pc.TLSSNI()
	fields := routepolicy.Fields{
		Method: req.Message.Type.String(),
		Path:   name,
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
			return router.Route{}, perrors.Wrap(perrors.ServerPolicy, "thriftproxy.predicate_error", "evaluating route predicate", err)
		}
		if ok {
			return route, nil
		}
	}
	return router.Route{}, perrors.New(perrors.ServerPolicy, "thriftproxy.no_admitted_route", "no candidate route's predicate admitted method "+name)
}
