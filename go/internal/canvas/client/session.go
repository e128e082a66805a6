package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// Sender queues an outbound frame without blocking
type Sender interface {
	Send(frame []byte) error
}

// SessionConfig tunes the client-side timers
type SessionConfig struct {
	FlushDelay time.Duration
	NoticeTTL  time.Duration
	Clock      clockwork.Clock
}

// DefaultSessionConfig returns the browser client's timings on a real clock
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		FlushDelay: DefaultFlushDelay,
		NoticeTTL:  DefaultNoticeTTL,
		Clock:      clockwork.NewRealClock(),
	}
}

// Session is one participant's view of the shared canvas: it captures local
// input, replays remote actions through the same renderer and keeps the
// presence list
type Session struct {
	self     events.Participant
	sender   Sender
	renderer *Renderer
	capture  *Capture
	roster   *Roster
	notices  *Notices
}

// NewSession creates a session drawing on surface and sending through sender
func NewSession(self events.Participant, surface Surface, sender Sender, cfg SessionConfig) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	s := &Session{
		self:     self,
		sender:   sender,
		renderer: NewRenderer(surface),
		roster:   &Roster{},
		notices:  NewNotices(cfg.Clock, cfg.NoticeTTL),
	}
	s.capture = NewCapture(cfg.Clock, cfg.FlushDelay, s.renderer, s.emitBatch)
	return s
}

// Self returns the local participant
func (s *Session) Self() events.Participant {
	return s.self
}

// Identify announces the local participant to the relay
func (s *Session) Identify() error {
	return s.sendPayload(events.EventTypeIdentify, s.self)
}

// SetStyle changes the pen for the next stroke
func (s *Session) SetStyle(style Style) {
	s.capture.SetStyle(style)
}

// Press starts a stroke
func (s *Session) Press(p events.Point) {
	s.capture.Press(p)
}

// Move extends the current stroke
func (s *Session) Move(p events.Point) {
	s.capture.Move(p)
}

// Release finishes the current stroke
func (s *Session) Release() {
	s.capture.Release()
}

// Reset clears the local surface and asks everyone else to do the same. The
// relay echoes the reset back, which clears the surface a second time.
func (s *Session) Reset() error {
	s.renderer.Clear()
	return s.sendPayload(events.EventTypeReset, events.ResetEvent{
		ParticipantID: s.self.ParticipantID,
		DisplayName:   s.self.DisplayName,
	})
}

// Participants returns the other participants currently listed
func (s *Session) Participants() []events.Participant {
	return s.roster.List()
}

// Notices returns the presence banners currently visible
func (s *Session) Notices() []Notice {
	return s.notices.Active()
}

// HandleFrame applies one frame received from the relay. Malformed payloads
// are logged and skipped.
func (s *Session) HandleFrame(frame []byte) {
	env, err := events.DecodeEnvelope(frame)
	if err != nil {
		log.Warn().Err(err).Msg("invalid frame from relay")
		return
	}

	switch env.Type {
	case events.EventTypeExistingParticipants:
		var participants []events.Participant
		if err := json.Unmarshal(env.Data, &participants); err != nil {
			log.Warn().Err(err).Msg("malformed participant snapshot")
			return
		}
		s.roster.Replace(participants)

	case events.EventTypeParticipantJoined:
		var p events.Participant
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Err(err).Msg("malformed join notification")
			return
		}
		s.roster.Add(p)
		s.notices.Post(fmt.Sprintf("%s has connected.", p.DisplayName))
		log.Info().Str("participant_id", p.ParticipantID).Str("display_name", p.DisplayName).Msg("participant joined")

	case events.EventTypeParticipantLeft:
		var p events.Participant
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Err(err).Msg("malformed leave notification")
			return
		}
		s.roster.Remove(p.ParticipantID)
		s.notices.Post(fmt.Sprintf("%s has disconnected.", p.DisplayName))
		log.Info().Str("participant_id", p.ParticipantID).Str("display_name", p.DisplayName).Msg("participant left")

	case events.EventTypeDrawingBatch:
		var batch events.StrokeBatch
		if err := json.Unmarshal(env.Data, &batch); err != nil {
			log.Warn().Err(err).Msg("malformed drawing batch")
			return
		}
		if !s.renderer.Batch(batch) {
			log.Debug().Str("participant_id", batch.ParticipantID).Msg("skipping empty drawing batch")
		}

	case events.EventTypeReset:
		s.renderer.Clear()

	default:
		log.Debug().Str("event_type", string(env.Type)).Msg("ignoring unknown event")
	}
}

func (s *Session) emitBatch(points []events.Point, style Style) {
	batch := events.StrokeBatch{
		ParticipantID: s.self.ParticipantID,
		DisplayName:   s.self.DisplayName,
		Points:        points,
		Color:         style.Color,
		BrushSize:     events.BrushSize(style.Width),
	}
	if err := s.sendPayload(events.EventTypeDrawingBatch, batch); err != nil {
		log.Warn().Err(err).Int("points", len(points)).Msg("failed to send drawing batch")
	}
}

func (s *Session) sendPayload(eventType events.EventType, payload interface{}) error {
	frame, err := events.EncodePayload(eventType, payload)
	if err != nil {
		return err
	}
	if err := s.sender.Send(frame); err != nil {
		return fmt.Errorf("send %s: %w", eventType, err)
	}
	return nil
}
