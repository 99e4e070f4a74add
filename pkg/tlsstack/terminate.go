package tlsstack

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/perrors"
)

// Terminate performs the accept-side TLS handshake, bounded by timeout
// (the handshake counts as part of first-byte, so timeout should equal
// the listener's header-read timeout). On success it returns the wrapped
// *tls.Conn and pc with TLSSNI/TLSALPN (and PeerCert, if mTLS
// verification produced one) inserted.
func Terminate(ctx context.Context, raw net.Conn, tlsConfig *tls.Config, pc pcontext.Context, timeout time.Duration) (*tls.Conn, pcontext.Context, error) {
	conn := tls.Server(raw, tlsConfig)

	if timeout > 0 {
		deadline := time.Now().Add(timeout)
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, pc, perrors.Wrap(perrors.TlsHandshake, "set_deadline_failed", "preparing TLS handshake", err)
		}
	}

	if err := conn.HandshakeContext(ctx); err != nil {
		return nil, pc, perrors.Wrap(perrors.TlsHandshake, "handshake_failed", "TLS handshake", err)
	}

	// Clear the handshake-only deadline; pkg/httpproxy/pkg/thriftproxy
	// set their own read/write deadlines for the request lifecycle.
	if timeout > 0 {
		_ = conn.SetDeadline(time.Time{})
	}

	state := conn.ConnectionState()
	pc = pc.WithTLSSNI(state.ServerName).WithTLSALPN(state.NegotiatedProtocol)
	if len(state.PeerCertificates) > 0 {
		pc = pc.WithPeerCert(state.PeerCertificates[0])
	}
	return conn, pc, nil
}

// NextProtocol decides which application protocol the pipeline's
// protocol-dispatch stage should take: if ALPN negotiated h2, the
// HTTP/2 branch is taken; otherwise HTTP/1.1.
func NextProtocol(pc pcontext.Context) string {
	if alpn, ok := pc.TLSALPN(); ok && alpn == "h2" {
		return "h2"
	}
	return "http/1.1"
}
