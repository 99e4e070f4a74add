package perrors

import "fmt"

// Kind enumerates the typed error kinds every component reports with.
type Kind string

const (
	ClientProto      Kind = "client_proto"
	ClientIo         Kind = "client_io"
	ClientTimeout    Kind = "client_timeout"
	ServerPolicy     Kind = "server_policy"
	UpstreamConnect  Kind = "upstream_connect"
	UpstreamProto    Kind = "upstream_proto"
	UpstreamIo       Kind = "upstream_io"
	UpstreamTimeout  Kind = "upstream_timeout"
	TlsHandshake     Kind = "tls_handshake"
	ConfigBuild      Kind = "config_build"
	Shutdown         Kind = "shutdown"
	RateLimited      Kind = "rate_limited"
)

// Error is the one error type every typed kind uses: a Kind, a short
// stable Code, a human Context string, and an optional wrapped Cause.
type Error struct {
	Kind    Kind
	Code    string
	Context string
	Cause   error
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, code, context string) *Error {
	return &Error{Kind: kind, Code: code, Context: context}
}

// Wrap constructs an *Error wrapping cause.
func Wrap(kind Kind, code, context string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Context: context, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Context)
}

// Unwrap exposes Cause to errors.Is/errors.As/errors.Unwrap.
func (e *Error) Unwrap() error { return e.Cause }

// StatusClass returns the HTTP status code this Kind maps to, so every
// client-facing failure reports a stable status class. Kinds with no
// natural HTTP status (ClientIo, Shutdown, ConfigBuild) map to 0 — callers in
// pkg/httpproxy treat that as "do not write a response body, the
// connection is already going away."
func (k Kind) StatusClass() int {
	switch k {
	case ClientProto:
		return 400
	case ClientTimeout:
		return 408
	case ServerPolicy:
		return 404
	case UpstreamConnect, UpstreamProto, UpstreamIo:
		return 502
	case UpstreamTimeout:
		return 504
	case TlsHandshake:
		return 495
	case RateLimited:
		return 429
	case ClientIo, ConfigBuild, Shutdown:
		return 0
	default:
		return 500
	}
}

// ThriftExceptionType returns the Thrift exception "type" code a failure
// of this Kind should be reported with, so every Thrift failure yields
// an Exception message with a sensible type. Thrift's wire taxonomy is
// coarser than this package's: client protocol errors report as
// PROTOCOL_ERROR, timeouts as TIMEOUT, and everything else as
// INTERNAL_ERROR.
func (k Kind) ThriftExceptionType() int32 {
	switch k {
	case ClientProto:
		return thriftExnProtocolError
	case UpstreamTimeout, ClientTimeout:
		return thriftExnTimeout
	case UpstreamConnect, UpstreamProto, UpstreamIo:
		return thriftExnInternalError
	default:
		return thriftExnInternalError
	}
}

// Thrift TApplicationException type codes (standard values; kept local
// to avoid pulling in a full Thrift runtime for four constants — see
// pkg/thriftproxy/doc.go for why relay implements the wire format
// directly).
const (
	thriftExnUnknown       int32 = 0
	thriftExnInternalError int32 = 6
	thriftExnProtocolError int32 = 7
	thriftExnTimeout       int32 = 9
)
