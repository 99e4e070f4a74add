package httpproxy

import "time"

// Config bounds every timeout named in the HTTP handler's state machine,
// plus the knobs that shape header/body handling. Field names mirror the
// TOML config keys documented in SPEC_FULL.md's external interface
// section.
type Config struct {
	// ReadHeaderTimeout bounds reading the request head (the handshake
	// too, when TLS fronts this listener).
	ReadHeaderTimeout time.Duration
	// ReadBodyTimeout bounds receiving the full request body.
	ReadBodyTimeout time.Duration
	// KeepAliveTimeout bounds idle time between one response finishing
	// and the next request's head arriving on the same connection.
	KeepAliveTimeout time.Duration
	// ConnectTimeout bounds dialing (or reusing) the upstream connection.
	ConnectTimeout time.Duration
	// UpstreamReadTimeout bounds the wait for the first byte of the
	// upstream's response head.
	UpstreamReadTimeout time.Duration
	// ViaPseudonym is the value appended to the Via header on both the
	// request forwarded upstream and the response returned downstream.
	ViaPseudonym string
	// MaxContentHandlerBytes bounds the buffer used when an inner stage
	// declares content_handler: the body is fully buffered rather than
	// streamed, up to this many bytes.
	MaxContentHandlerBytes int64
}

// DefaultConfig returns conservative defaults matching spec.md's named
// timeouts; every field is expected to be overridden from the loaded
// TOML config in practice.
func DefaultConfig() Config {
	return Config{
		ReadHeaderTimeout:      10 * time.Second,
		ReadBodyTimeout:        60 * time.Second,
		KeepAliveTimeout:       75 * time.Second,
		ConnectTimeout:         5 * time.Second,
		UpstreamReadTimeout:    30 * time.Second,
		ViaPseudonym:           "1.1 relay",
		MaxContentHandlerBytes: 10 << 20,
	}
}
