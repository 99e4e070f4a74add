package thriftproxy

import (
	"encoding/binary"
	"io"

	"mercator-hq/relay/pkg/perrors"
)

// strictVersionMask/strictVersion1 are TBinaryProtocol's strict-encoding
// markers: a message header begins with a 4-byte version+type word whose
// top two bytes are fixed (0x8001) and whose low byte carries the
// MessageType.
const (
	strictVersionMask = 0xffff0000
	strictVersion1    = 0x80010000
)

// ReadMessage reads one framed message from r: a 4-byte big-endian frame
// length, then exactly that many bytes, decoded as a strict
// TBinaryProtocol message header (version+type, name, sequence id)
// followed by the struct payload. maxFrameSize bounds the frame length
// against a malicious or corrupt prefix claiming an unreasonable size.
func ReadMessage(r io.Reader, maxFrameSize int) (*Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err // caller distinguishes EOF/timeout from a short frame
	}
	frameLen := int(binary.BigEndian.Uint32(lenBuf[:]))
	if frameLen <= 0 {
		return nil, perrors.New(perrors.ClientProto, "thriftproxy.empty_frame", "zero-length thrift frame")
	}
	if frameLen > maxFrameSize {
		return nil, perrors.New(perrors.ClientProto, "thriftproxy.frame_too_large", "thrift frame exceeds configured maximum")
	}

	buf := make([]byte, frameLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return decodeHeader(buf)
}

func decodeHeader(buf []byte) (*Message, error) {
	if len(buf) < 4 {
		return nil, perrors.New(perrors.ClientProto, "thriftproxy.short_header", "frame too short for a message header")
	}
	version := binary.BigEndian.Uint32(buf[0:4])
	if version&strictVersionMask != strictVersion1 {
		return nil, perrors.New(perrors.ClientProto, "thriftproxy.unsupported_version", "non-strict or unversioned thrift message header")
	}
	msgType := MessageType(version & 0xff)
	off := 4

	name, n, err := readString(buf[off:])
	if err != nil {
		return nil, err
	}
	off += n

	if len(buf[off:]) < 4 {
		return nil, perrors.New(perrors.ClientProto, "thriftproxy.short_header", "frame too short for sequence id")
	}
	seqID := int32(binary.BigEndian.Uint32(buf[off : off+4]))
	off += 4

	return &Message{Name: name, Type: msgType, SeqID: seqID, Payload: buf[off:]}, nil
}

func readString(buf []byte) (string, int, error) {
	if len(buf) < 4 {
		return "", 0, perrors.New(perrors.ClientProto, "thriftproxy.short_header", "frame too short for method name length")
	}
	n := int(binary.BigEndian.Uint32(buf[0:4]))
	if n < 0 || 4+n > len(buf) {
		return "", 0, perrors.New(perrors.ClientProto, "thriftproxy.short_header", "frame too short for method name")
	}
	return string(buf[4 : 4+n]), 4 + n, nil
}

// WriteMessage encodes msg as a strict TBinaryProtocol message header
// plus its payload, framed with a 4-byte big-endian length prefix, and
// writes it to w in one call.
func WriteMessage(w io.Writer, msg *Message) error {
	nameBytes := []byte(msg.Name)
	body := make([]byte, 0, 4+4+len(nameBytes)+4+len(msg.Payload))

	var versionBuf [4]byte
	binary.BigEndian.PutUint32(versionBuf[:], uint32(strictVersion1)|uint32(msg.Type))
	body = append(body, versionBuf[:]...)

	var nameLenBuf [4]byte
	binary.BigEndian.PutUint32(nameLenBuf[:], uint32(len(nameBytes)))
	body = append(body, nameLenBuf[:]...)
	body = append(body, nameBytes...)

	var seqBuf [4]byte
	binary.BigEndian.PutUint32(seqBuf[:], uint32(msg.SeqID))
	body = append(body, seqBuf[:]...)

	body = append(body, msg.Payload...)

	var frameLenBuf [4]byte
	binary.BigEndian.PutUint32(frameLenBuf[:], uint32(len(body)))
	if _, err := w.Write(frameLenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
