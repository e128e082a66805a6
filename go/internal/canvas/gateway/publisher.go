package gateway

import "github.com/mcdev12/sketchroom/go/internal/canvas/events"

// EventPublisher mirrors relayed frames to an external bus. Implementations
// must not block: Publish runs on the connection manager loop.
type EventPublisher interface {
	Publish(eventType events.EventType, frame []byte)
}

// NoOpPublisher is used when no event tap is configured
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(eventType events.EventType, frame []byte) {}
