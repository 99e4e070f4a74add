// Package connector implements the dialer-and-pool layer that sits
// innermost in every service pipeline: given a selected upstream, it
// returns a ready-to-use net.Conn — reused from an idle pool when one is
// available, freshly dialed (and, for TLS upstreams, handshaked)
// otherwise — and later reclaims it for reuse once the caller is done.
//
// Pooling follows the shape of a keep-alive-aware HTTP transport: a
// bounded number of idle connections per pool key, an idle timeout, and
// a periodic sweep that evicts connections that have sat idle too long.
// The pool key folds in everything that makes two connections
// interchangeable: scheme, host, port, negotiated ALPN protocol, and (for
// mTLS upstreams) a hash of the client certificate presented, so a
// connection negotiated under one identity or protocol is never handed
// back out under another.
package connector
