package client

import (
	"sync"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// Roster is the locally displayed list of other participants, in arrival order
type Roster struct {
	mu           sync.Mutex
	participants []events.Participant
}

// Add appends p
func (r *Roster) Add(p events.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = append(r.participants, p)
}

// Replace makes participants the whole roster. The relay's snapshot is
// authoritative and is re-sent when the local participant identifies again.
func (r *Roster) Replace(participants []events.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = append([]events.Participant(nil), participants...)
}

// Remove drops the first entry with participantID. The same identity can be
// listed twice when it is connected from two places, so only one goes.
func (r *Roster) Remove(participantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.participants {
		if p.ParticipantID == participantID {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the roster
func (r *Roster) List() []events.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]events.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}
