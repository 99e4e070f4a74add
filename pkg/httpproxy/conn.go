package httpproxy

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/perrors"
	"mercator-hq/relay/pkg/service"
)

// ServeConn drives one accepted connection through the HTTP/1.1
// keep-alive state machine: Idle -> ReadingHead -> Routing -> Upstreaming
// -> WritingResp -> Idle | Closed. base is the connection-level Context
// (PeerAddr, and TLSSNI/TLSALPN/PeerCert if pkg/tlsstack already
// terminated TLS on raw before this call) that every request on this
// connection starts from; svc is the generation's composed entry service
// (router stage wrapping the connector stage).
func ServeConn(ctx context.Context, raw net.Conn, base pcontext.Context, svc service.Service, serverName string, cfg Config) {
	defer raw.Close()

	br := bufio.NewReader(raw)
	state := StateIdle
	setState := func(s State) {
		state = s
		slog.Debug("httpproxy connection state", "listener", serverName, "state", state.String())
	}
	first := true

	for {
		if ctx.Err() != nil {
			return
		}

		setState(StateReadingHead)
		headTimeout := cfg.ReadHeaderTimeout
		if !first {
			headTimeout = cfg.KeepAliveTimeout
		}
		req, err := readRequestHead(raw, br, headTimeout)
		if err != nil {
			if isClosedOrEOF(err) {
				return // client hung up cleanly, nothing to answer
			}
			if !first {
				// idle keep-alive timeout: a bare closed connection, not
				// a protocol error worth an error response.
				var perr *perrors.Error
				if errors.As(err, &perr) && perr.Kind == perrors.ClientTimeout {
					return
				}
			}
			writeErrorResponse(raw, err, cfg.ViaPseudonym)
			setState(StateClosed)
			return
		}
		first = false

		setState(StateRouting)
		reqCtx, cancel := boundBody(ctx, cfg.ReadBodyTimeout)
		if err := raw.SetReadDeadline(time.Now().Add(cfg.ReadBodyTimeout)); err != nil {
			cancel()
			return
		}

		setState(StateUpstreaming)
		_, resp, err := svc.Call(reqCtx, base, &Request{Raw: req, ServerName: serverName})
		cancel()
		_ = req.Body.Close()
		if err != nil {
			writeErrorResponse(raw, err, cfg.ViaPseudonym)
			setState(StateClosed)
			return
		}

		httpResp, ok := resp.(*Response)
		if !ok {
			slog.Error("httpproxy: service returned unexpected response type", "type", resp)
			return
		}

		setState(StateWritingResp)
		downstreamClose := wantsClose(req.Header, req.ProtoMajor, req.ProtoMinor) ||
			wantsClose(httpResp.Raw.Header, httpResp.Raw.ProtoMajor, httpResp.Raw.ProtoMinor)

		writeErr := writeResponse(raw, httpResp.Raw, cfg.ViaPseudonym, downstreamClose)
		if httpResp.Release != nil {
			httpResp.Release(writeErr == nil)
		}
		if writeErr != nil {
			setState(StateClosed)
			return
		}

		if downstreamClose {
			setState(StateClosed)
			return
		}
		setState(StateIdle)
	}
}
