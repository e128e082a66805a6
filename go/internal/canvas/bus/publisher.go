package bus

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

const (
	headerEventType = "Event-Type"
	headerRelayID   = "Relay-ID"
)

// Config holds configuration for the NATS event tap
type Config struct {
	URL           string
	SubjectPrefix string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns default NATS configuration
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "canvas.events",
		Name:          "canvas-gateway",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Subject returns the subject an event type is published on
func Subject(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", prefix, eventType)
}

func connect(cfg Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Publisher mirrors relayed frames onto core NATS subjects. Delivery is
// fire-and-forget: nothing is persisted and failures are only logged.
type Publisher struct {
	nc      *nats.Conn
	config  Config
	relayID string
}

// NewPublisher connects to NATS
func NewPublisher(cfg Config) (*Publisher, error) {
	nc, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject_prefix", cfg.SubjectPrefix).
		Msg("NATS event tap connected")

	return &Publisher{
		nc:      nc,
		config:  cfg,
		relayID: uuid.New().String()[:8], // short ID for logging
	}, nil
}

// Publish queues frame on the event's subject. The NATS client buffers
// outbound messages, so this does not wait on the network.
func (p *Publisher) Publish(eventType events.EventType, frame []byte) {
	msg := &nats.Msg{
		Subject: Subject(p.config.SubjectPrefix, eventType),
		Data:    frame,
		Header: nats.Header{
			headerEventType: []string{string(eventType)},
			headerRelayID:   []string{p.relayID},
		},
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		log.Warn().
			Err(err).
			Str("subject", msg.Subject).
			Msg("failed to publish to NATS")
	}
}

// Connected reports whether the NATS connection is currently up
func (p *Publisher) Connected() bool {
	return p.nc.IsConnected()
}

// Close drains pending messages and closes the connection
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}

// eventTypeOf recovers the event type from a tapped message
func eventTypeOf(prefix string, msg *nats.Msg) events.EventType {
	if msg.Header != nil {
		if t := msg.Header.Get(headerEventType); t != "" {
			return events.EventType(t)
		}
	}
	return events.EventType(strings.TrimPrefix(msg.Subject, prefix+"."))
}
