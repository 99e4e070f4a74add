package connector

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/service"
)

// HTTPVersion selects which HTTP version a connector should prefer when
// dialing an upstream.
type HTTPVersion string

const (
	HTTPVersionAuto  HTTPVersion = "auto"
	HTTPVersionHTTP1 HTTPVersion = "http11"
	HTTPVersionHTTP2 HTTPVersion = "http2"
)

// Target is everything the connector needs to dial (or reuse a pooled
// connection for) one upstream.
type Target struct {
	Name        string
	URI         string // "http://host:port" or "https://host:port"; empty if UnixPath is set
	UnixPath    string
	TLS         *tls.Config // non-nil selects a TLS client connection
	HTTPVersion HTTPVersion
	DialTimeout time.Duration
}

// key computes the pool Key for t, folding in the TLS client certificate
// (if any) so a connection authenticated as one identity is never handed
// back out under another.
func (t Target) key() (Key, DialTarget, error) {
	if t.UnixPath != "" {
		return Key{Scheme: "unix", Host: t.UnixPath}, DialTarget{
			Network: "unix", Address: t.UnixPath, TLS: t.TLS, Timeout: t.DialTimeout,
		}, nil
	}

	u, err := url.Parse(t.URI)
	if err != nil {
		return Key{}, DialTarget{}, fmt.Errorf("connector: parse upstream uri %q: %w", t.URI, err)
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	var certHash string
	if t.TLS != nil && len(t.TLS.Certificates) > 0 {
		certHash = ClientCertHash(&t.TLS.Certificates[0])
	}

	k := Key{Scheme: u.Scheme, Host: host, Port: port, ClientCertHash: certHash}
	if t.TLS != nil {
		k.ALPN = alpnFor(t.HTTPVersion)
		tlsCfg := t.TLS.Clone()
		if len(tlsCfg.NextProtos) == 0 {
			tlsCfg.NextProtos = nextProtosFor(t.HTTPVersion)
		}
		return k, DialTarget{Network: "tcp", Address: net.JoinHostPort(host, port), TLS: tlsCfg, Timeout: t.DialTimeout}, nil
	}
	return k, DialTarget{Network: "tcp", Address: net.JoinHostPort(host, port), Timeout: t.DialTimeout}, nil
}

func alpnFor(v HTTPVersion) string {
	switch v {
	case HTTPVersionHTTP2:
		return "h2"
	case HTTPVersionHTTP1:
		return "http/1.1"
	default:
		return ""
	}
}

func nextProtosFor(v HTTPVersion) []string {
	switch v {
	case HTTPVersionHTTP2:
		return []string{"h2"}
	case HTTPVersionHTTP1:
		return []string{"http/1.1"}
	default:
		return []string{"h2", "http/1.1"}
	}
}

// Leased is a connection handed out by Connector.Acquire, plus enough
// bookkeeping for the caller to return it via Release.
type Leased struct {
	Conn  net.Conn
	Key   Key
	Proto string // effective application protocol: "http/1.1", "h2", "thrift", or "" for a raw TCP/unix stream
	Fresh bool   // true if this connection was freshly dialed, false if reused from the pool
}

// Connector dials upstream connections and pools them for reuse. One
// Connector instance is shared by every request a generation serves;
// Acquire/Release are safe for concurrent use.
type Connector struct {
	pool *Pool
}

// NewConnector creates a Connector with the given pooling limits. Zero
// values select DefaultMaxIdlePerKey / DefaultIdleTimeout.
func NewConnector(maxIdlePerKey int, idleTimeout time.Duration) *Connector {
	return &Connector{pool: NewPool(maxIdlePerKey, idleTimeout)}
}

// Close shuts down the connector's pool, closing every idle connection.
func (c *Connector) Close() error { return c.pool.Close() }

// Acquire returns a ready-to-use connection to target: reused from the
// idle pool if one is filed under target's key, freshly dialed (and, for
// TLS targets, handshaked) otherwise.
func (c *Connector) Acquire(ctx context.Context, target Target) (*Leased, error) {
	key, dial, err := target.key()
	if err != nil {
		return nil, err
	}
	keyStr := key.String()

	if conn, ok := c.pool.Get(keyStr); ok {
		return &Leased{Conn: conn, Key: key, Proto: protoOf(conn, target.HTTPVersion), Fresh: false}, nil
	}

	conn, err := Dial(ctx, dial)
	if err != nil {
		return nil, err
	}
	return &Leased{Conn: conn, Key: key, Proto: protoOf(conn, target.HTTPVersion), Fresh: true}, nil
}

func protoOf(conn net.Conn, v HTTPVersion) string {
	if alpn := NegotiatedALPN(conn); alpn != "" {
		return alpn
	}
	if v == HTTPVersionHTTP2 {
		return "h2"
	}
	return "http/1.1"
}

// Release returns conn to the idle pool for reuse under key, or closes it
// if reusable is false (e.g. the upstream sent Connection: close, or the
// exchange ended in a protocol error that leaves the stream in an
// unknown state).
func (c *Connector) Release(key Key, conn net.Conn, reusable bool) {
	if !reusable {
		_ = conn.Close()
		return
	}
	c.pool.Put(key.String(), conn)
}

// AcquireRequest is the request type the connector's Service stage
// expects: the upstream to dial or reuse a pooled connection for.
type AcquireRequest struct {
	Target Target
}

// NewStage returns a StageFactory for the connector: the terminal,
// innermost stage of every service pipeline. Its Call acquires a
// connection for the request's target and writes pcontext.UpstreamConn;
// it returns the *Leased connection as its response for the wrapping
// protocol stage (pkg/httpproxy, pkg/thriftproxy) to write the request to
// and read the response from, and to eventually hand back via Release.
func NewStage(c *Connector) service.StageFactory {
	return func(inner service.Service) service.Factory {
		return service.FactoryFunc(func(previous service.Service) (service.Service, error) {
			return service.ServiceFunc(func(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
				areq, ok := req.(AcquireRequest)
				if !ok {
					return pc, nil, fmt.Errorf("connector: unexpected request type %T", req)
				}
				leased, err := c.Acquire(ctx, areq.Target)
				if err != nil {
					return pc, nil, err
				}
				pc = pc.WithUpstreamConn(pcontext.UpstreamConn{
					Key:    leased.Key.String(),
					Pooled: !leased.Fresh,
					Proto:  leased.Proto,
				})
				return pc, leased, nil
			}), nil
		})
	}
}
