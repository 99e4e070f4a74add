package httpproxy

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"mercator-hq/relay/pkg/perrors"
)

// Response is the response half of the typed payload the
// router-and-forward stage returns. Release must be called exactly once,
// after the response body has been fully drained (written downstream or
// buffered), with whether the upstream connection is still in a reusable
// state — releasing any earlier would let another request acquire the
// same connection while this response's body is still in flight on it.
type Response struct {
	Raw     *http.Response
	Release func(reusable bool)
}

// forwardRequest writes req to upstream (translating headers per
// spec.md's hop-by-hop rule and appending Via), then reads the response
// head bounded by readTimeout (measured from the first byte of the
// response head, per spec.md's "upstream_read_timeout" definition).
func forwardRequest(ctx context.Context, upstream net.Conn, req *http.Request, via string, readTimeout time.Duration) (*http.Response, error) {
	out := req.Clone(ctx)
	out.RequestURI = "" // Write refuses to serialize a request with RequestURI set
	stripHopByHop(out.Header)
	appendVia(out.Header, protoString(out.ProtoMajor, out.ProtoMinor), via)

	if err := out.Write(upstream); err != nil {
		return nil, perrors.Wrap(perrors.UpstreamIo, "httpproxy.write_upstream", "writing request to upstream", err)
	}

	if readTimeout > 0 {
		if err := upstream.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return nil, perrors.Wrap(perrors.UpstreamIo, "httpproxy.set_deadline", "setting upstream read deadline", err)
		}
	}

	resp, err := http.ReadResponse(bufio.NewReader(upstream), req)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, perrors.Wrap(perrors.UpstreamTimeout, "httpproxy.read_upstream", "reading upstream response head", err)
		}
		return nil, perrors.Wrap(perrors.UpstreamProto, "httpproxy.read_upstream", "parsing upstream response head", err)
	}
	return resp, nil
}

// bufferBody fully buffers resp.Body up to maxBytes, for the
// content_handler case where an inner stage needs the whole body before
// it can run (e.g. response rewriting). The body is replaced with a
// fresh reader over the buffered bytes so downstream code sees an
// ordinary, still-readable response.
func bufferBody(resp *http.Response, maxBytes int64) error {
	limited := io.LimitReader(resp.Body, maxBytes+1)
	buf, err := io.ReadAll(limited)
	_ = resp.Body.Close()
	if err != nil {
		return perrors.Wrap(perrors.UpstreamIo, "httpproxy.buffer_body", "buffering response body", err)
	}
	if int64(len(buf)) > maxBytes {
		return perrors.New(perrors.UpstreamProto, "httpproxy.body_too_large", "response body exceeds content_handler buffer limit")
	}
	resp.Body = io.NopCloser(bytes.NewReader(buf))
	resp.ContentLength = int64(len(buf))
	return nil
}

// writeResponse streams resp back to the client connection, restoring
// keep-alive framing per the downstream protocol version and appending
// Via.
func writeResponse(client net.Conn, resp *http.Response, via string, downstreamClose bool) error {
	stripHopByHop(resp.Header)
	appendVia(resp.Header, protoString(resp.ProtoMajor, resp.ProtoMinor), via)
	if downstreamClose {
		resp.Close = true
		resp.Header.Set("Connection", "close")
	}
	if err := resp.Write(client); err != nil {
		return perrors.Wrap(perrors.ClientIo, "httpproxy.write_client", "writing response to client", err)
	}
	return nil
}

func protoString(major, minor int) string {
	switch {
	case major == 2:
		return "2"
	case major == 1 && minor == 0:
		return "1.0"
	default:
		return "1.1"
	}
}
