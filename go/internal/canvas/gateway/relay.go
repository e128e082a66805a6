package gateway

import (
	"encoding/json"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// Transport is the connection set the relay fans out over
type Transport interface {
	// Send queues a frame for one connection
	Send(connID string, frame []byte) error
	// Broadcast queues a frame for every open connection except exclude.
	// An empty exclude reaches everyone.
	Broadcast(frame []byte, exclude string)
}

// PresenceKind distinguishes join and leave notifications
type PresenceKind int

const (
	PresenceJoined PresenceKind = iota
	PresenceLeft
)

func (k PresenceKind) eventType() events.EventType {
	if k == PresenceJoined {
		return events.EventTypeParticipantJoined
	}
	return events.EventTypeParticipantLeft
}

func (k PresenceKind) String() string {
	return string(k.eventType())
}

// Relay is a stateless fan-out router. It never touches the registry and
// never validates what it forwards.
type Relay struct {
	transport Transport
	publisher EventPublisher

	drawingBatches atomic.Uint64
	resets         atomic.Uint64
}

// NewRelay creates a relay over transport. A nil publisher disables the event tap.
func NewRelay(transport Transport, publisher EventPublisher) *Relay {
	if publisher == nil {
		publisher = NoOpPublisher{}
	}
	return &Relay{
		transport: transport,
		publisher: publisher,
	}
}

// RelayDrawing forwards batch to every connection except its source
func (r *Relay) RelayDrawing(sourceConnID string, batch json.RawMessage) {
	frame, err := events.Encode(events.EventTypeDrawingBatch, batch)
	if err != nil {
		log.Warn().Err(err).Str("connection_id", sourceConnID).Msg("dropping drawing batch")
		return
	}

	r.transport.Broadcast(frame, sourceConnID)
	r.drawingBatches.Add(1)
	r.publisher.Publish(events.EventTypeDrawingBatch, frame)
}

// RelayReset forwards event to every connection, the source included
func (r *Relay) RelayReset(sourceConnID string, event json.RawMessage) {
	frame, err := events.Encode(events.EventTypeReset, event)
	if err != nil {
		log.Warn().Err(err).Str("connection_id", sourceConnID).Msg("dropping reset")
		return
	}

	r.transport.Broadcast(frame, "")
	r.resets.Add(1)
	r.publisher.Publish(events.EventTypeReset, frame)

	log.Info().Str("connection_id", sourceConnID).Msg("canvas reset relayed")
}

// BroadcastPresence notifies connections that participant joined or left.
// For joins, joinerConnID is skipped since it already knows it joined.
func (r *Relay) BroadcastPresence(kind PresenceKind, participant events.Participant, joinerConnID string) {
	frame, err := events.EncodePayload(kind.eventType(), participant)
	if err != nil {
		log.Error().Err(err).Str("participant_id", participant.ParticipantID).Msg("failed to encode presence")
		return
	}

	exclude := ""
	if kind == PresenceJoined {
		exclude = joinerConnID
	}
	r.transport.Broadcast(frame, exclude)
	r.publisher.Publish(kind.eventType(), frame)

	log.Debug().
		Str("kind", kind.String()).
		Str("participant_id", participant.ParticipantID).
		Str("display_name", participant.DisplayName).
		Msg("presence broadcasted")
}

// SendSnapshot delivers the prior-participants list to one connection only
func (r *Relay) SendSnapshot(connID string, participants []events.Participant) {
	if participants == nil {
		participants = []events.Participant{}
	}
	frame, err := events.EncodePayload(events.EventTypeExistingParticipants, participants)
	if err != nil {
		log.Error().Err(err).Str("connection_id", connID).Msg("failed to encode participant snapshot")
		return
	}
	if err := r.transport.Send(connID, frame); err != nil {
		log.Warn().Err(err).Str("connection_id", connID).Msg("failed to send participant snapshot")
	}
}

// RelayStats counts relayed actions
type RelayStats struct {
	DrawingBatches uint64 `json:"drawing_batches"`
	Resets         uint64 `json:"resets"`
}

// Stats returns the relay counters
func (r *Relay) Stats() RelayStats {
	return RelayStats{
		DrawingBatches: r.drawingBatches.Load(),
		Resets:         r.resets.Load(),
	}
}
