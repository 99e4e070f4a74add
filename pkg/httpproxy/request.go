package httpproxy

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/perrors"
)

// Request is the request half of the typed payload that flows through
// the service pipeline between the connection loop and the
// router-and-forward stage.
type Request struct {
	Raw        *http.Request
	ServerName string
}

// readRequestHead reads and parses one request head from r, bounded by
// timeout. raw is the underlying connection, used only to set/clear the
// read deadline — the head itself is parsed from the buffered reader so
// a second request's head can already be buffered ahead of the first
// one finishing (HTTP/1.1 pipelining-safe, even though relay does not
// pipeline responses out of order).
func readRequestHead(raw net.Conn, r *bufio.Reader, timeout time.Duration) (*http.Request, error) {
	if timeout > 0 {
		if err := raw.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, perrors.Wrap(perrors.ClientIo, "httpproxy.set_deadline", "setting read-header deadline", err)
		}
	}

	req, err := http.ReadRequest(r)
	if err != nil {
		return nil, classifyReadErr(err)
	}

	if err := validateHead(req); err != nil {
		return nil, err
	}
	return req, nil
}

// classifyReadErr distinguishes a timed-out read (ClientTimeout) from a
// clean close by the peer before a head arrived, which is returned
// unwrapped so callers can recognise it with isClosedOrEOF (not itself an
// error worth reporting). Every other read or parse failure is reported
// as ClientProto.
func classifyReadErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return perrors.Wrap(perrors.ClientTimeout, "httpproxy.read_head", "reading request head", err)
	}
	if isClosedOrEOF(err) {
		return err
	}
	return perrors.Wrap(perrors.ClientProto, "httpproxy.read_head", "parsing request head", err)
}

// isClosedOrEOF reports whether err is the ordinary "peer hung up"
// signal rather than a protocol violation worth reporting as such.
func isClosedOrEOF(err error) bool {
	return err.Error() == "EOF" // net/http wraps io.EOF without further context for a clean close
}

// validateHead enforces spec.md's head-well-formedness rule beyond what
// http.ReadRequest already checks: Host presence for HTTP/1.1, and
// Content-Length/Transfer-Encoding must not both be present and
// contradictory.
func validateHead(req *http.Request) error {
	if req.ProtoMajor == 1 && req.ProtoMinor == 1 && req.Host == "" {
		return perrors.New(perrors.ClientProto, "httpproxy.missing_host", "HTTP/1.1 request with no Host header")
	}
	_, hasCL := req.Header["Content-Length"]
	_, hasTE := req.Header["Transfer-Encoding"]
	if hasCL && hasTE {
		return perrors.New(perrors.ClientProto, "httpproxy.cl_te_conflict", "Content-Length and Transfer-Encoding both present")
	}
	return nil
}

// boundBody bounds the overall request-processing context by
// bodyTimeout, covering the time the body takes to stream through to the
// upstream write; http.Request.Write already streams the body rather
// than buffering it, so this only wires the deadline into ctx.
func boundBody(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
