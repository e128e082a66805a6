package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Event payload types shared between the gateway and client packages

// Participant identifies one human user bound to a connection
type Participant struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

// Point is one vertex of a stroke poly-line
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StrokeBatch is a coalesced group of stroke points emitted as a unit.
// Consecutive points define the segments to render, in order.
type StrokeBatch struct {
	ParticipantID string    `json:"participantId"`
	DisplayName   string    `json:"displayName"`
	Points        []Point   `json:"points"`
	Color         string    `json:"color"`
	BrushSize     BrushSize `json:"brushSize"`
}

// ResetEvent asks every participant to clear the shared surface
type ResetEvent struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

// BrushSize is a stroke width. Browser clients send the range input's value,
// which arrives as a numeric string, so both forms are accepted on decode.
type BrushSize float64

// UnmarshalJSON accepts a JSON number, a numeric string, or null
func (b *BrushSize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("brush size %q: %w", s, err)
		}
		*b = BrushSize(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("brush size: %w", err)
	}
	*b = BrushSize(v)
	return nil
}
