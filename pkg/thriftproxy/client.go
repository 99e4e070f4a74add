package thriftproxy

import (
	"net"
	"time"

	"mercator-hq/relay/pkg/perrors"
)

// forwardMessage writes msg to upstream byte-identical (Thrift has no
// hop-by-hop headers to strip) and, unless msg is Oneway, reads the
// upstream's reply bounded by timeout. A Oneway call has no reply on
// either side of the proxy, so forwardMessage returns (nil, nil) for it
// once the write succeeds.
func forwardMessage(upstream net.Conn, msg *Message, timeout time.Duration, maxFrameSize int) (*Message, error) {
	if err := WriteMessage(upstream, msg); err != nil {
		return nil, perrors.Wrap(perrors.UpstreamIo, "thriftproxy.write_upstream", "writing message to upstream", err)
	}
	if msg.Type == MessageTypeOneway {
		return nil, nil
	}

	if timeout > 0 {
		if err := upstream.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, perrors.Wrap(perrors.UpstreamIo, "thriftproxy.set_deadline", "setting upstream read deadline", err)
		}
	}
	resp, err := ReadMessage(upstream, maxFrameSize)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, perrors.Wrap(perrors.UpstreamTimeout, "thriftproxy.read_upstream", "reading upstream reply", err)
		}
		return nil, perrors.Wrap(perrors.UpstreamProto, "thriftproxy.read_upstream", "parsing upstream reply", err)
	}
	return resp, nil
}
