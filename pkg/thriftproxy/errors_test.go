package thriftproxy

import (
	"errors"
	"testing"

	"mercator-hq/relay/pkg/perrors"
)

func TestExceptionMessagePreservesNameAndSeqID(t *testing.T) {
	err := perrors.New(perrors.UpstreamTimeout, "thriftproxy.read_upstream", "reading upstream reply")
	msg := exceptionMessage("getUser", 7, err)

	if msg.Name != "getUser" || msg.SeqID != 7 || msg.Type != MessageTypeException {
		t.Fatalf("got %+v", msg)
	}

	decodedText, decodedType := decodeApplicationExceptionForTest(t, msg.Payload)
	if decodedType != perrors.UpstreamTimeout.ThriftExceptionType() {
		t.Fatalf("exception type = %d, want %d", decodedType, perrors.UpstreamTimeout.ThriftExceptionType())
	}
	if decodedText == "" {
		t.Fatal("exception message text should not be empty")
	}
}

func TestExceptionMessageDefaultsToInternalErrorForUntypedErrors(t *testing.T) {
	msg := exceptionMessage("getUser", 1, errors.New("boom"))
	_, decodedType := decodeApplicationExceptionForTest(t, msg.Payload)
	if decodedType != 6 {
		t.Fatalf("exception type = %d, want 6 (internal error)", decodedType)
	}
}

// decodeApplicationExceptionForTest decodes the minimal two-field
// TApplicationException struct encodeApplicationException produces,
// enough to assert on in tests without pulling in a Thrift runtime.
func decodeApplicationExceptionForTest(t *testing.T, payload []byte) (string, int32) {
	t.Helper()
	off := 0
	var text string
	var typ int32
	for off < len(payload) {
		fieldType := payload[off]
		if fieldType == ttypeStop {
			break
		}
		fieldID := int(payload[off+1])<<8 | int(payload[off+2])
		off += 3
		switch fieldType {
		case ttypeString:
			n := int(payload[off])<<24 | int(payload[off+1])<<16 | int(payload[off+2])<<8 | int(payload[off+3])
			off += 4
			if fieldID == 1 {
				text = string(payload[off : off+n])
			}
			off += n
		case ttypeI32:
			v := int32(payload[off])<<24 | int32(payload[off+1])<<16 | int32(payload[off+2])<<8 | int32(payload[off+3])
			off += 4
			if fieldID == 2 {
				typ = v
			}
		default:
			t.Fatalf("unexpected field type %d in test payload", fieldType)
		}
	}
	return text, typ
}
