package httpproxy

import (
	"net/http"
	"strings"
)

// hopByHop lists the headers stripped before forwarding in either
// direction, per spec.md's §4.6 list. Connection-listed extension tokens
// (RFC 7230 §6.1) are stripped in addition to this fixed set.
var hopByHop = []string{
	"Connection",
	"Keep-Alive",
	"Transfer-Encoding",
	"TE",
	"Trailer",
	"Upgrade",
}

// stripHopByHop removes h's hop-by-hop headers in place: the fixed list
// above, plus whatever extension tokens the Connection header itself
// names, plus any header starting with "Proxy-".
func stripHopByHop(h http.Header) {
	for _, tok := range h.Values("Connection") {
		for _, name := range strings.Split(tok, ",") {
			h.Del(http.CanonicalHeaderKey(strings.TrimSpace(name)))
		}
	}
	for _, name := range hopByHop {
		h.Del(name)
	}
	for name := range h {
		if strings.HasPrefix(http.CanonicalHeaderKey(name), "Proxy-") {
			delete(h, name)
		}
	}
}

// appendVia appends pseudonym to h's Via header, preserving any Via
// entries already present from an upstream hop.
func appendVia(h http.Header, protoVersion, pseudonym string) {
	entry := protoVersion + " " + pseudonym
	if existing := h.Get("Via"); existing != "" {
		h.Set("Via", existing+", "+entry)
		return
	}
	h.Set("Via", entry)
}

// wantsClose reports whether h (either direction) asks for the
// connection to be closed after this exchange: an explicit
// "Connection: close" token, or an HTTP/1.0 request/response with no
// "Connection: keep-alive" override.
func wantsClose(h http.Header, protoMajor, protoMinor int) bool {
	for _, tok := range h.Values("Connection") {
		for _, name := range strings.Split(tok, ",") {
			if strings.EqualFold(strings.TrimSpace(name), "close") {
				return true
			}
		}
	}
	if protoMajor == 1 && protoMinor == 0 {
		for _, tok := range h.Values("Connection") {
			for _, name := range strings.Split(tok, ",") {
				if strings.EqualFold(strings.TrimSpace(name), "keep-alive") {
					return false
				}
			}
		}
		return true
	}
	return false
}
