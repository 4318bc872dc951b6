package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeSyncStarted        MessageType = "sync.started"
	TypeIdentitySynced     MessageType = "sync.identity_completed"
	TypeIdentitySyncError  MessageType = "sync.identity_error"
	TypeSyncCompleted      MessageType = "sync.completed"
	TypeSystemStatusChange MessageType = "system.status_changed"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncStartedPayload is the payload for sync.started events.
type SyncStartedPayload struct {
	Trigger string `json:"trigger"` // "scheduled" or "manual"
	Kind    string `json:"kind"`    // "pull", "push" or "both"
}

// IdentitySyncPayload is the payload for sync.identity_completed events.
type IdentitySyncPayload struct {
	Username       string  `json:"username"`
	Kind           string  `json:"kind"`
	Created        int     `json:"created"`
	Updated        int     `json:"updated"`
	Skipped        int     `json:"skipped"`
	Deleted        int     `json:"deleted"`
	RuntimeSeconds float64 `json:"runtime"`
}

// IdentitySyncErrorPayload is the payload for sync.identity_error events.
type IdentitySyncErrorPayload struct {
	Username string `json:"username"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// SyncCompletedPayload is the payload for sync.completed events.
type SyncCompletedPayload struct {
	Kind       string `json:"kind"`
	Identities int    `json:"identities"`
	Failed     int    `json:"failed"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
