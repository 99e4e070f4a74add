// Package tlsstack implements accept-side TLS termination selected by
// `stack ∈ {rustls-equivalent, platform-native}`, SNI/ALPN extraction
// into pcontext, and handshake-timeout enforcement (the handshake counts
// as part of first-byte).
//
// Go ships exactly one TLS implementation (crypto/tls); relay cannot
// fabricate a second engine the way a system with pluggable TLS
// providers could swap in rustls versus a platform SChannel/Secure
// Transport binding. Both config values therefore build a *tls.Config
// from crypto/tls, with different profiles: "platform-native" is broad
// interop, TLS 1.2 floor, OS trust store for client verification;
// "rustls-equivalent" pins the constrained, TLS-1.3-preferring,
// narrow-curve profile a memory-safe userspace stack like rustls ships
// by default. See DESIGN.md.
package tlsstack
