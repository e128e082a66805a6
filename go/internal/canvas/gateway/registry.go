package gateway

import (
	"sync"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// Registry is the authoritative presence table: one entry per live,
// identified connection. It is mutated only by Lifecycle.
type Registry struct {
	entries map[string]events.Participant
	mu      sync.Mutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]events.Participant),
	}
}

// Register binds participant to connID and returns the participants that were
// registered before this call. The caller's own entry is never part of the
// snapshot. Registering the same connection again overwrites the entry.
func (r *Registry) Register(connID string, participant events.Participant) []events.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]events.Participant, 0, len(r.entries))
	for id, p := range r.entries {
		if id == connID {
			continue
		}
		snapshot = append(snapshot, p)
	}

	r.entries[connID] = participant
	return snapshot
}

// Unregister removes the entry for connID. The boolean is false when the
// connection never registered.
func (r *Registry) Unregister(connID string) (events.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.entries[connID]
	if !ok {
		return events.Participant{}, false
	}
	delete(r.entries, connID)
	return p, true
}

// ListAll returns every registered participant
func (r *Registry) ListAll() []events.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]events.Participant, 0, len(r.entries))
	for _, p := range r.entries {
		all = append(all, p)
	}
	return all
}

// Len returns the number of identified connections
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
