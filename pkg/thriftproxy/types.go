package thriftproxy

// MessageType is Thrift's TMessageType: the kind of message a frame
// carries.
type MessageType int32

const (
	MessageTypeCall      MessageType = 1
	MessageTypeReply     MessageType = 2
	MessageTypeException MessageType = 3
	MessageTypeOneway    MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeCall:
		return "call"
	case MessageTypeReply:
		return "reply"
	case MessageTypeException:
		return "exception"
	case MessageTypeOneway:
		return "oneway"
	default:
		return "unknown"
	}
}

// Message is one decoded Thrift frame: a method name, a message type, a
// sequence id, and the opaque struct payload that follows the header.
// relay never decodes the payload itself — it routes and forwards on the
// header alone, the same way an L7 proxy forwards an HTTP body it never
// parses.
type Message struct {
	Name    string
	Type    MessageType
	SeqID   int32
	Payload []byte
}
