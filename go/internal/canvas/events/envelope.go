package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType is the name of a message on the canvas socket
type EventType string

const (
	EventTypeIdentify             EventType = "identify"
	EventTypeExistingParticipants EventType = "existing-participants"
	EventTypeParticipantJoined    EventType = "participant-joined"
	EventTypeParticipantLeft      EventType = "participant-left"
	EventTypeDrawingBatch         EventType = "drawing-batch"
	EventTypeReset                EventType = "reset"
)

// ErrMissingType is returned when a frame decodes but carries no event name
var ErrMissingType = errors.New("envelope has no event type")

// Envelope is the frame exchanged over the socket. Data is kept raw so the
// relay can forward payloads without interpreting them.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DecodeEnvelope parses a socket frame
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}

// Encode wraps an already-encoded payload in an envelope
func Encode(eventType EventType, data json.RawMessage) ([]byte, error) {
	frame, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return frame, nil
}

// EncodePayload marshals payload and wraps it in an envelope
func EncodePayload(eventType EventType, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Encode(eventType, data)
}
