package thriftproxy

import (
	"encoding/binary"
	"errors"

	"mercator-hq/relay/pkg/perrors"
)

// TBinaryProtocol field-type constants, the subset needed to hand-encode
// a TApplicationException struct (string message field 1, i32 type
// field 2) without pulling in a full Thrift runtime for two field
// writes.
const (
	ttypeStop   = 0x00
	ttypeI32    = 0x08
	ttypeString = 0x0b
)

// exceptionMessage builds the Exception reply for a failed call: same
// name and sequence id as the original request (per spec, a Thrift
// failure "yields an Exception message with the original sequence id"),
// type Exception, and a TApplicationException-shaped payload carrying
// err's message and the Kind-derived exception type code.
func exceptionMessage(name string, seqID int32, err error) *Message {
	text := err.Error()
	var typ int32 = 6 // INTERNAL_ERROR, matching perrors' default
	var perr *perrors.Error
	if errors.As(err, &perr) {
		typ = perr.Kind.ThriftExceptionType()
	}
	return &Message{
		Name:    name,
		Type:    MessageTypeException,
		SeqID:   seqID,
		Payload: encodeApplicationException(text, typ),
	}
}

func encodeApplicationException(message string, typ int32) []byte {
	msgBytes := []byte(message)
	out := make([]byte, 0, 3+4+len(msgBytes)+3+4+1)

	out = append(out, ttypeString, 0x00, 0x01) // field 1: string
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(msgBytes)))
	out = append(out, lenBuf[:]...)
	out = append(out, msgBytes...)

	out = append(out, ttypeI32, 0x00, 0x02) // field 2: i32
	var typBuf [4]byte
	binary.BigEndian.PutUint32(typBuf[:], uint32(typ))
	out = append(out, typBuf[:]...)

	out = append(out, ttypeStop)
	return out
}
