// Package httpproxy implements the HTTP/1.1 protocol handler: request
// head parsing bounded by a timeout, hop-by-hop header stripping, Via
// insertion, body streaming, and the per-connection keep-alive state
// machine (Idle -> ReadingHead -> Routing -> Upstreaming -> WritingResp
// -> Idle | Closed).
//
// The router-and-forward stage in this package sits directly on top of
// pkg/connector in the service pipeline: it matches a route, selects an
// upstream, acquires a connection from the connector, writes the
// translated request to it, and reads the response back. The
// per-connection server loop (ServeConn) is the one piece that owns the
// raw net.Conn and drives the state machine; everything downstream of it
// only ever sees the typed Request/Response pair through pkg/service.
package httpproxy
