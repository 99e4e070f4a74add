package httpproxy

import (
	"net/http"
	"testing"
)

func TestStripHopByHopRemovesFixedSet(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "keep-alive")
	h.Set("Keep-Alive", "timeout=5")
	h.Set("Transfer-Encoding", "chunked")
	h.Set("TE", "trailers")
	h.Set("Trailer", "X-Checksum")
	h.Set("Upgrade", "websocket")
	h.Set("Proxy-Authorization", "Basic xyz")
	h.Set("X-App-Header", "keep-me")

	stripHopByHop(h)

	for _, name := range []string{"Connection", "Keep-Alive", "Transfer-Encoding", "TE", "Trailer", "Upgrade", "Proxy-Authorization"} {
		if h.Get(name) != "" {
			t.Fatalf("header %q should have been stripped, got %q", name, h.Get(name))
		}
	}
	if h.Get("X-App-Header") != "keep-me" {
		t.Fatal("unrelated header should survive stripping")
	}
}

func TestStripHopByHopRemovesConnectionListedTokens(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "X-Custom-Token")
	h.Set("X-Custom-Token", "drop-me")
	stripHopByHop(h)
	if h.Get("X-Custom-Token") != "" {
		t.Fatal("a header named by the Connection token list should be stripped")
	}
}

func TestAppendViaFreshHeader(t *testing.T) {
	h := http.Header{}
	appendVia(h, "1.1", "relay")
	if got, want := h.Get("Via"), "1.1 relay"; got != want {
		t.Fatalf("Via = %q, want %q", got, want)
	}
}

func TestAppendViaPreservesPriorHop(t *testing.T) {
	h := http.Header{}
	h.Set("Via", "1.1 upstream-proxy")
	appendVia(h, "1.1", "relay")
	if got, want := h.Get("Via"), "1.1 upstream-proxy, 1.1 relay"; got != want {
		t.Fatalf("Via = %q, want %q", got, want)
	}
}

func TestWantsCloseExplicitToken(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "close")
	if !wantsClose(h, 1, 1) {
		t.Fatal("Connection: close should signal close for HTTP/1.1")
	}
}

func TestWantsCloseHTTP10DefaultsClosed(t *testing.T) {
	h := http.Header{}
	if !wantsClose(h, 1, 0) {
		t.Fatal("HTTP/1.0 with no Connection header should default to close")
	}
}

func TestWantsCloseHTTP10KeepAliveOverride(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "keep-alive")
	if wantsClose(h, 1, 0) {
		t.Fatal("HTTP/1.0 with Connection: keep-alive should not close")
	}
}

func TestWantsCloseHTTP11DefaultsOpen(t *testing.T) {
	h := http.Header{}
	if wantsClose(h, 1, 1) {
		t.Fatal("HTTP/1.1 with no Connection header should default to keep-alive")
	}
}
