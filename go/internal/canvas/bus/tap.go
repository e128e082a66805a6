package bus

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// TapHandler receives one mirrored frame
type TapHandler func(eventType events.EventType, relayID string, frame []byte)

// Tap subscribes to every event the gateways mirror
type Tap struct {
	nc     *nats.Conn
	config Config
}

// NewTap connects to NATS
func NewTap(cfg Config) (*Tap, error) {
	nc, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return &Tap{nc: nc, config: cfg}, nil
}

// Run delivers mirrored frames to handle until ctx is cancelled
func (t *Tap) Run(ctx context.Context, handle TapHandler) error {
	subject := t.config.SubjectPrefix + ".>"

	msgCh := make(chan *nats.Msg, 256)
	sub, err := t.nc.ChanSubscribe(subject, msgCh)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to unsubscribe tap")
		}
	}()

	log.Info().Str("subject", subject).Msg("event tap listening")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event tap shutting down")
			return nil
		case msg := <-msgCh:
			relayID := ""
			if msg.Header != nil {
				relayID = msg.Header.Get(headerRelayID)
			}
			handle(eventTypeOf(t.config.SubjectPrefix, msg), relayID, msg.Data)
		}
	}
}

// Close closes the NATS connection
func (t *Tap) Close() error {
	if t.nc != nil {
		t.nc.Close()
	}
	return nil
}
