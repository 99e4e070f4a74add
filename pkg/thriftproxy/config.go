package thriftproxy

import "time"

// Config bounds the Thrift handler's per-connection and per-message
// timeouts, mirroring spec.md's `thrift_timeout` server config block.
type Config struct {
	// ServerKeepAliveTimeout bounds idle time between one message's
	// response finishing and the next message's frame arriving.
	ServerKeepAliveTimeout time.Duration
	// ServerMessageTimeout bounds reading one full frame (length prefix
	// plus payload) and, separately, the round trip to the upstream.
	ServerMessageTimeout time.Duration
	// ConnectTimeout bounds dialing (or reusing) the upstream connection.
	ConnectTimeout time.Duration
	// MaxFrameSize bounds the length a frame's 4-byte prefix may declare,
	// guarding against a corrupt or hostile prefix.
	MaxFrameSize int
}

// DefaultConfig returns conservative defaults; every field is expected
// to be overridden from the loaded TOML config in practice.
func DefaultConfig() Config {
	return Config{
		ServerKeepAliveTimeout: 75 * time.Second,
		ServerMessageTimeout:   30 * time.Second,
		ConnectTimeout:         5 * time.Second,
		MaxFrameSize:           16 << 20,
	}
}
