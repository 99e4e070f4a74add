package config

import (
	"fmt"

	"mercator-hq/relay/pkg/httpproxy"
	"mercator-hq/relay/pkg/listener"
	"mercator-hq/relay/pkg/router"
	"mercator-hq/relay/pkg/thriftproxy"
	"mercator-hq/relay/pkg/tlsstack"
)

// ListenerConfig returns the pkg/listener.Config this server's Listener
// table describes.
func (s ServerConfig) ListenerConfig(name string) listener.Config {
	proto := listener.ProtocolTCP
	if s.Listener.Type == "unix" {
		proto = listener.ProtocolUnix
	}
	return listener.Config{Name: name, Protocol: proto, Address: s.Listener.Value}
}

// HTTPProxyConfig returns the pkg/httpproxy.Config this server's
// http_timeout and http_opt_handlers tables describe, falling back to
// httpproxy.DefaultConfig for any zero field.
func (s ServerConfig) HTTPProxyConfig() httpproxy.Config {
	cfg := httpproxy.DefaultConfig()
	if t := s.HTTPTimeout; t != nil {
		if d := durationSec(t.ServerReadHeaderTimeoutSec); d > 0 {
			cfg.ReadHeaderTimeout = d
		}
		if d := durationSec(t.ServerReadBodyTimeoutSec); d > 0 {
			cfg.ReadBodyTimeout = d
		}
		if d := durationSec(t.ServerKeepAliveTimeoutSec); d > 0 {
			cfg.KeepAliveTimeout = d
		}
		if d := durationSec(t.UpstreamConnectTimeoutSec); d > 0 {
			cfg.ConnectTimeout = d
		}
		if d := durationSec(t.UpstreamReadTimeoutSec); d > 0 {
			cfg.UpstreamReadTimeout = d
		}
	}
	if h := s.HTTPOptHandlers; h != nil {
		if h.ViaPseudonym != "" {
			cfg.ViaPseudonym = h.ViaPseudonym
		}
		if h.MaxContentHandlerBytes > 0 {
			cfg.MaxContentHandlerBytes = h.MaxContentHandlerBytes
		}
	}
	return cfg
}

// ThriftProxyConfig returns the pkg/thriftproxy.Config this server's
// thrift_timeout table describes, falling back to
// thriftproxy.DefaultConfig for any zero field.
func (s ServerConfig) ThriftProxyConfig() thriftproxy.Config {
	cfg := thriftproxy.DefaultConfig()
	if t := s.ThriftTimeout; t != nil {
		if d := durationSec(t.ServerKeepAliveTimeoutSec); d > 0 {
			cfg.ServerKeepAliveTimeout = d
		}
		if d := durationSec(t.ServerMessageTimeoutSec); d > 0 {
			cfg.ServerMessageTimeout = d
		}
		if t.MaxFrameSize > 0 {
			cfg.MaxFrameSize = t.MaxFrameSize
		}
	}
	return cfg
}

// TLSStackConfig returns the pkg/tlsstack.Config this server's tls table
// describes. Returns the zero Config if TLS is not set; callers should
// check ServerConfig.TLS != nil before using the result.
func (s ServerConfig) TLSStackConfig() tlsstack.Config {
	if s.TLS == nil {
		return tlsstack.Config{}
	}
	stack := tlsstack.StackPlatformNative
	if s.TLS.Stack == string(tlsstack.StackRustlsEquivalent) {
		stack = tlsstack.StackRustlsEquivalent
	}
	return tlsstack.Config{
		ChainFile:         s.TLS.Chain,
		KeyFile:           s.TLS.Key,
		Stack:             stack,
		ClientCAFile:      s.TLS.ClientCAFile,
		RequireClientCert: s.TLS.RequireClientCert,
	}
}

// RouteTable returns the pkg/router.Route slice this server's routes
// tables describe.
func (s ServerConfig) RouteTable() ([]router.Route, error) {
	routes := make([]router.Route, 0, len(s.Routes))
	for _, rc := range s.Routes {
		lb := router.LoadBalancerRandom
		switch rc.LoadBalancer {
		case "", string(router.LoadBalancerRandom):
			lb = router.LoadBalancerRandom
		case string(router.LoadBalancerRoundRobin):
			lb = router.LoadBalancerRoundRobin
		default:
			return nil, fmt.Errorf("config: route %q: unknown load_balancer %q", rc.Path, rc.LoadBalancer)
		}

		upstreams := make([]router.Upstream, 0, len(rc.Upstreams))
		for i, uc := range rc.Upstreams {
			if uc.Endpoint.Type != "" && uc.Endpoint.Type != "uri" {
				return nil, fmt.Errorf("config: route %q: upstream %d: unknown endpoint type %q", rc.Path, i, uc.Endpoint.Type)
			}
			upstreams = append(upstreams, router.Upstream{
				Name:   fmt.Sprintf("%s#%d", rc.Path, i),
				URI:    uc.Endpoint.Value,
				Weight: uc.Weight,
			})
		}

		routes = append(routes, router.Route{
			Pattern:        rc.Path,
			LoadBalancer:   lb,
			Upstreams:      upstreams,
			When:           rc.When,
			ContentHandler: rc.ContentHandler || (s.HTTPOptHandlers != nil && s.HTTPOptHandlers.ContentHandler),
		})
	}
	return routes, nil
}
