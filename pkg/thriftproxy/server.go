package thriftproxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"mercator-hq/relay/pkg/pcontext"
	"mercator-hq/relay/pkg/service"
)

// ServeConn drives one accepted Thrift connection: read a framed
// message, run it through svc (the router stage wrapping the connector
// stage), write the reply back (unless the message was Oneway, which
// never gets one), and loop until the client closes the connection, a
// read fails, or the keep-alive idle timeout between messages fires.
// base is the connection-level Context (PeerAddr, and TLSSNI/TLSALPN/
// PeerCert if pkg/tlsstack already terminated TLS on raw) every message
// on this connection starts from.
func ServeConn(ctx context.Context, raw net.Conn, base pcontext.Context, svc service.Service, serverName string, cfg Config) {
	defer raw.Close()

	first := true
	for {
		if ctx.Err() != nil {
			return
		}

		readTimeout := cfg.ServerMessageTimeout
		if !first {
			readTimeout = cfg.ServerKeepAliveTimeout
		}
		if readTimeout > 0 {
			if err := raw.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
				return
			}
		}

		msg, err := ReadMessage(raw, cfg.MaxFrameSize)
		if err != nil {
			if isClosedOrEOF(err) {
				return // client hung up cleanly
			}
			if !first {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					return // idle keep-alive timeout, not worth reporting
				}
			}
			slog.Warn("thriftproxy: malformed frame, closing connection", "listener", serverName, "error", err)
			return
		}
		first = false

		_, resp, err := svc.Call(ctx, base, &Request{Message: msg, ServerName: serverName})
		if msg.Type == MessageTypeOneway {
			// Observed for routing/stats regardless of outcome, but a
			// Oneway call never produces a wire reply on either side.
			continue
		}
		if err != nil {
			exc := exceptionMessage(msg.Name, msg.SeqID, err)
			if writeErr := WriteMessage(raw, exc); writeErr != nil {
				return
			}
			continue
		}

		treply, ok := resp.(*Response)
		if !ok || treply.Message == nil {
			slog.Error("thriftproxy: service returned no reply for a non-oneway call", "listener", serverName, "method", msg.Name)
			return
		}
		if err := WriteMessage(raw, treply.Message); err != nil {
			return
		}
	}
}

func isClosedOrEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
