package pcontext

import (
	"crypto/x509"
	"net"
	"time"
)

// RouteMatch records which route pattern and upstream list a request
// matched, for downstream layers (the connector, the observability
// spine) and for per-request tracing attributes.
type RouteMatch struct {
	Pattern   string
	ServerName string
	Matched   []string
}

// SelectedUpstream records the upstream a load-balancer chose for this
// request, and which strategy chose it.
type SelectedUpstream struct {
	Name     string
	Endpoint string
	Strategy string
}

// UpstreamConn records facts about the upstream connection obtained from
// the connector stack: whether it came from the idle pool, and the pool
// key it was filed under.
type UpstreamConn struct {
	Key    string
	Pooled bool
	Proto  string // "http/1.1", "h2", "thrift"
}

// Context is the additive, per-connection fact map that flows through
// the service pipeline. The zero value is a valid, empty Context. Every accessor
// reports presence separately from value so a layer that inserted a
// zero-value fact (e.g. an empty PeerCert) is distinguishable from a
// layer that never ran.
type Context struct {
	peerAddr    net.Addr
	hasPeerAddr bool

	tlsSNI    string
	hasTLSSNI bool

	tlsALPN    string
	hasTLSALPN bool

	peerCert    *x509.Certificate
	hasPeerCert bool

	proxyProtoSrc    net.Addr
	hasProxyProtoSrc bool

	routeMatch    RouteMatch
	hasRouteMatch bool

	selectedUpstream    SelectedUpstream
	hasSelectedUpstream bool

	upstreamConn    UpstreamConn
	hasUpstreamConn bool

	acceptedAt time.Time
}

// New returns an empty Context stamped with the acceptance time, the one
// fact every connection carries from the moment the listener accepts it.
func New(acceptedAt time.Time) Context {
	return Context{acceptedAt: acceptedAt}
}

// AcceptedAt returns the connection's acceptance timestamp.
func (c Context) AcceptedAt() time.Time { return c.acceptedAt }

// WithPeerAddr returns a copy of c with PeerAddr inserted. Only the
// listener/acceptor layer should call this.
func (c Context) WithPeerAddr(addr net.Addr) Context {
	c.peerAddr, c.hasPeerAddr = addr, true
	return c
}

// PeerAddr returns the accepted connection's remote address and whether
// it has been set.
func (c Context) PeerAddr() (net.Addr, bool) { return c.peerAddr, c.hasPeerAddr }

// WithTLSSNI returns a copy of c with the negotiated SNI inserted. Only
// the TLS termination layer should call this.
func (c Context) WithTLSSNI(sni string) Context {
	c.tlsSNI, c.hasTLSSNI = sni, true
	return c
}

// TLSSNI returns the negotiated SNI, if TLS was terminated.
func (c Context) TLSSNI() (string, bool) { return c.tlsSNI, c.hasTLSSNI }

// WithTLSALPN returns a copy of c with the negotiated ALPN protocol
// inserted. Only the TLS termination layer should call this.
func (c Context) WithTLSALPN(alpn string) Context {
	c.tlsALPN, c.hasTLSALPN = alpn, true
	return c
}

// TLSALPN returns the negotiated ALPN protocol, if TLS was terminated.
func (c Context) TLSALPN() (string, bool) { return c.tlsALPN, c.hasTLSALPN }

// WithPeerCert returns a copy of c with the verified client certificate
// inserted. Only the TLS termination layer should call this, and
// only when mTLS verification succeeded.
func (c Context) WithPeerCert(cert *x509.Certificate) Context {
	c.peerCert, c.hasPeerCert = cert, true
	return c
}

// PeerCert returns the verified client certificate, if mTLS was used.
func (c Context) PeerCert() (*x509.Certificate, bool) { return c.peerCert, c.hasPeerCert }

// WithProxyProtoSrc returns a copy of c with the PROXY-protocol-reported
// original source address inserted. Only the (external) PROXY-protocol
// decoding layer should call this.
func (c Context) WithProxyProtoSrc(addr net.Addr) Context {
	c.proxyProtoSrc, c.hasProxyProtoSrc = addr, true
	return c
}

// ProxyProtoSrc returns the PROXY-protocol original source address, if
// present.
func (c Context) ProxyProtoSrc() (net.Addr, bool) { return c.proxyProtoSrc, c.hasProxyProtoSrc }

// WithRouteMatch returns a copy of c with the router's match result
// inserted. Only the router should call this.
func (c Context) WithRouteMatch(m RouteMatch) Context {
	c.routeMatch, c.hasRouteMatch = m, true
	return c
}

// RouteMatch returns the router's match result, if routing has run.
func (c Context) RouteMatch() (RouteMatch, bool) { return c.routeMatch, c.hasRouteMatch }

// WithSelectedUpstream returns a copy of c with the load balancer's
// selection inserted. Only the router should call this, after
// WithRouteMatch.
func (c Context) WithSelectedUpstream(u SelectedUpstream) Context {
	c.selectedUpstream, c.hasSelectedUpstream = u, true
	return c
}

// SelectedUpstream returns the load balancer's selection, if one has
// been made.
func (c Context) SelectedUpstream() (SelectedUpstream, bool) {
	return c.selectedUpstream, c.hasSelectedUpstream
}

// WithUpstreamConn returns a copy of c with facts about the obtained
// upstream connection inserted. Only the connector stack should
// call this, after WithSelectedUpstream.
func (c Context) WithUpstreamConn(u UpstreamConn) Context {
	c.upstreamConn, c.hasUpstreamConn = u, true
	return c
}

// UpstreamConn returns facts about the upstream connection, if the
// connector stack has run.
func (c Context) UpstreamConn() (UpstreamConn, bool) { return c.upstreamConn, c.hasUpstreamConn }
