package gateway

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// ConnState is the lifecycle state of one connection
type ConnState int

const (
	StateConnected ConnState = iota
	StateIdentified
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateIdentified:
		return "identified"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Lifecycle binds transport sessions to participants and owns every
// registry mutation. All methods are called from the connection manager
// loop, one event at a time.
type Lifecycle struct {
	registry *Registry
	relay    *Relay
	states   map[string]ConnState
}

// NewLifecycle creates the glue between the transport, registry and relay
func NewLifecycle(registry *Registry, relay *Relay) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		relay:    relay,
		states:   make(map[string]ConnState),
	}
}

// HandleOpen moves a new connection into the connected state
func (l *Lifecycle) HandleOpen(connID string) {
	l.states[connID] = StateConnected
}

// HandleMessage dispatches one inbound frame
func (l *Lifecycle) HandleMessage(connID string, frame []byte) {
	state, ok := l.states[connID]
	if !ok || state == StateClosed {
		log.Warn().Str("connection_id", connID).Msg("message for unknown connection")
		return
	}

	env, err := events.DecodeEnvelope(frame)
	if err != nil {
		log.Warn().Err(err).Str("connection_id", connID).Msg("invalid frame")
		return
	}

	switch env.Type {
	case events.EventTypeIdentify:
		l.identify(connID, state, env.Data)
	case events.EventTypeDrawingBatch:
		// Not gated on identity: unidentified connections may draw.
		l.relay.RelayDrawing(connID, env.Data)
	case events.EventTypeReset:
		l.relay.RelayReset(connID, env.Data)
	default:
		log.Warn().
			Str("connection_id", connID).
			Str("event_type", string(env.Type)).
			Msg("unsupported client event")
	}
}

// HandleClose unregisters the connection and, if it had identified, tells
// everyone else it left
func (l *Lifecycle) HandleClose(connID string) {
	// Closed is terminal; dropping the entry makes State report it.
	delete(l.states, connID)

	participant, ok := l.registry.Unregister(connID)
	if !ok {
		log.Debug().Str("connection_id", connID).Msg("unidentified connection closed")
		return
	}

	l.relay.BroadcastPresence(PresenceLeft, participant, connID)

	log.Info().
		Str("connection_id", connID).
		Str("participant_id", participant.ParticipantID).
		Str("display_name", participant.DisplayName).
		Int("participants", l.registry.Len()).
		Msg("participant left")
}

// State reports the lifecycle state of a connection. Unknown connections
// report closed.
func (l *Lifecycle) State(connID string) ConnState {
	if s, ok := l.states[connID]; ok {
		return s
	}
	return StateClosed
}

func (l *Lifecycle) identify(connID string, state ConnState, data json.RawMessage) {
	var participant events.Participant
	if len(data) > 0 {
		if err := json.Unmarshal(data, &participant); err != nil {
			log.Warn().Err(err).Str("connection_id", connID).Msg("malformed identify payload")
		}
	}

	snapshot := l.registry.Register(connID, participant)
	l.relay.SendSnapshot(connID, snapshot)

	if state == StateIdentified {
		log.Debug().
			Str("connection_id", connID).
			Str("participant_id", participant.ParticipantID).
			Msg("connection re-identified")
		return
	}

	l.states[connID] = StateIdentified
	l.relay.BroadcastPresence(PresenceJoined, participant, connID)

	log.Info().
		Str("connection_id", connID).
		Str("participant_id", participant.ParticipantID).
		Str("display_name", participant.DisplayName).
		Int("participants", l.registry.Len()).
		Msg("participant joined")
}
