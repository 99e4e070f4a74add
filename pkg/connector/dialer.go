package connector

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// DialTarget describes what Dial should connect to and, optionally,
// secure with TLS.
type DialTarget struct {
	Network string // "tcp" or "unix"
	Address string // host:port, or a filesystem path for "unix"
	TLS     *tls.Config
	Timeout time.Duration
}

// Dial opens a fresh connection to target, performing a TLS client
// handshake when target.TLS is set. The returned connection's
// negotiated ALPN protocol (if any) can be read back off its
// tls.ConnectionState.
func Dial(ctx context.Context, target DialTarget) (net.Conn, error) {
	network := target.Network
	if network == "" {
		network = "tcp"
	}

	dialer := &net.Dialer{Timeout: target.Timeout}
	raw, err := dialer.DialContext(ctx, network, target.Address)
	if err != nil {
		return nil, fmt.Errorf("connector: dial %s %s: %w", network, target.Address, err)
	}

	if target.TLS == nil {
		return raw, nil
	}

	tlsConn := tls.Client(raw, target.TLS)
	if target.Timeout > 0 {
		if err := tlsConn.SetDeadline(time.Now().Add(target.Timeout)); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("connector: set handshake deadline: %w", err)
		}
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("connector: TLS handshake with %s: %w", target.Address, err)
	}
	if target.Timeout > 0 {
		_ = tlsConn.SetDeadline(time.Time{})
	}
	return tlsConn, nil
}

// NegotiatedALPN returns the ALPN protocol negotiated on conn, if conn is
// a *tls.Conn that has completed its handshake.
func NegotiatedALPN(conn net.Conn) string {
	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return ""
	}
	return tlsConn.ConnectionState().NegotiatedProtocol
}
