// Package hub fans broadcast messages out to a set of websocket clients
// over channels, with per-client backpressure. Slow clients are dropped
// rather than allowed to stall the broadcast loop.
package hub

// MessageType indicates the websocket frame format.
type MessageType int

const (
	// JSONMessage is a JSON-encoded text frame.
	JSONMessage MessageType = iota

	// BinaryMessage is a raw binary frame (audio clips, image bytes).
	BinaryMessage
)

// Message is one frame queued for broadcast.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps raw binary data.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
