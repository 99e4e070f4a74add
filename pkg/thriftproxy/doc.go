// Package thriftproxy implements the framed-binary Thrift protocol
// handler: the per-connection message loop, the wire codec, and the
// router-and-forward pipeline stage that pairs with pkg/httpproxy for
// proxy_type = "thrift" servers.
//
// No Thrift library appears anywhere in the retrieval pack this module
// was built from, and no example repo imports one, so the wire format —
// a 4-byte big-endian frame length prefix followed by a TBinaryProtocol
// strict-encoded message header (version+type, method name, sequence
// id) and an opaque struct payload — is implemented directly against
// encoding/binary. This is the one protocol codec in relay built on the
// standard library rather than a pack dependency; see DESIGN.md for the
// "no suitable library in the examples" justification.
//
// File layout mirrors the HTTP handler's: codec.go (wire format),
// types.go (Message/MessageType), server.go (ServeConn, the
// per-connection loop), client.go (forwardMessage, the upstream half),
// errors.go (Exception-message construction), doc.go.
package thriftproxy
