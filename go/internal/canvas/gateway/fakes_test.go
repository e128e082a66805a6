package gateway

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// fakeTransport records every frame queued for each open connection
type fakeTransport struct {
	mu       sync.Mutex
	open     []string
	received map[string][][]byte
}

func newFakeTransport(connIDs ...string) *fakeTransport {
	return &fakeTransport{
		open:     connIDs,
		received: make(map[string][][]byte),
	}
}

func (f *fakeTransport) Send(connID string, frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.open {
		if id == connID {
			f.received[connID] = append(f.received[connID], frame)
			return nil
		}
	}
	return ErrUnknownConnection
}

func (f *fakeTransport) Broadcast(frame []byte, exclude string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.open {
		if id == exclude {
			continue
		}
		f.received[id] = append(f.received[id], frame)
	}
}

func (f *fakeTransport) connect(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = append(f.open, connID)
}

func (f *fakeTransport) disconnect(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range f.open {
		if id == connID {
			f.open = append(f.open[:i], f.open[i+1:]...)
			return
		}
	}
}

func (f *fakeTransport) envelopes(t *testing.T, connID string) []events.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []events.Envelope
	for _, frame := range f.received[connID] {
		env, err := events.DecodeEnvelope(frame)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

func (f *fakeTransport) ofType(t *testing.T, connID string, eventType events.EventType) []events.Envelope {
	t.Helper()
	var out []events.Envelope
	for _, env := range f.envelopes(t, connID) {
		if env.Type == eventType {
			out = append(out, env)
		}
	}
	return out
}

// recordingPublisher captures what the relay mirrors to the event tap
type recordingPublisher struct {
	mu        sync.Mutex
	published []events.EventType
}

func (p *recordingPublisher) Publish(eventType events.EventType, frame []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, eventType)
}

func identifyFrame(t *testing.T, id, name string) []byte {
	t.Helper()
	frame, err := events.EncodePayload(events.EventTypeIdentify, events.Participant{ParticipantID: id, DisplayName: name})
	require.NoError(t, err)
	return frame
}

func decodeParticipant(t *testing.T, env events.Envelope) events.Participant {
	t.Helper()
	var p events.Participant
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func decodeParticipants(t *testing.T, env events.Envelope) []events.Participant {
	t.Helper()
	var ps []events.Participant
	require.NoError(t, json.Unmarshal(env.Data, &ps))
	return ps
}
