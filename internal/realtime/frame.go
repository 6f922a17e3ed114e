package realtime

import (
	"time"

	json "github.com/json-iterator/go"
)

// FrameType identifies a wire frame in either direction.
type FrameType string

const (
	// Inbound frame types.
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FramePing        FrameType = "ping"

	// Outbound frame types.
	FramePong         FrameType = "pong"
	FrameSubscribed   FrameType = "subscribed"
	FrameUnsubscribed FrameType = "unsubscribed"
	FrameError        FrameType = "error"
	FrameProgress     FrameType = "progress"
)

// Wire error codes sent in error frames. These are protocol-level codes,
// distinct from the internal error codes in internal/errors.
const (
	ErrCodeMissingProjectID = "MISSING_PROJECT_ID"
	ErrCodeUnsupportedType  = "UNSUPPORTED_MESSAGE_TYPE"
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
)

// Frame is the envelope for every message on the wire.
type Frame struct {
	Type      FrameType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Event is a typed payload handed to the broadcast API. The registry
// wraps it in a Frame and marshals it once per broadcast.
type Event struct {
	Type FrameType
	Data any
}

// SubscriptionRequest is the inbound payload of subscribe and
// unsubscribe frames.
type SubscriptionRequest struct {
	ProjectID string `json:"projectId"`
}

// SubscriptionEvent confirms a subscription change back to the sender.
type SubscriptionEvent struct {
	ProjectID string `json:"projectId"`
}

// ErrorEvent is the payload of an error frame.
type ErrorEvent struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ProgressEvent reports build progress on a project topic.
type ProgressEvent struct {
	ProjectID              string    `json:"projectId"`
	Phase                  string    `json:"phase"`
	Percentage             int       `json:"percentage"`
	Message                string    `json:"message"`
	Timestamp              time.Time `json:"timestamp"`
	EstimatedTimeRemaining *int      `json:"estimatedTimeRemaining,omitempty"`
	Errors                 []string  `json:"errors,omitempty"`
}

// encodeFrame marshals data and wraps it in a Frame envelope.
func encodeFrame(typ FrameType, data any, now time.Time) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return json.Marshal(Frame{Type: typ, Data: raw, Timestamp: now})
}
