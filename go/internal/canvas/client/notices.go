package client

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultNoticeTTL is how long a presence banner stays visible
const DefaultNoticeTTL = 3 * time.Second

// Notice is a transient banner shown for one presence change
type Notice struct {
	ID        uint64
	Message   string
	ExpiresAt time.Time
}

// Notices holds the banners currently on screen. Each one removes itself
// when its TTL elapses.
type Notices struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu     sync.Mutex
	nextID uint64
	active []Notice
}

// NewNotices creates an empty banner list
func NewNotices(clock clockwork.Clock, ttl time.Duration) *Notices {
	return &Notices{clock: clock, ttl: ttl}
}

// Post shows message until the TTL elapses
func (n *Notices) Post(message string) Notice {
	n.mu.Lock()
	n.nextID++
	notice := Notice{
		ID:        n.nextID,
		Message:   message,
		ExpiresAt: n.clock.Now().Add(n.ttl),
	}
	n.active = append(n.active, notice)
	n.mu.Unlock()

	n.clock.AfterFunc(n.ttl, func() {
		n.expire(notice.ID)
	})
	return notice
}

// Active returns the banners still on screen, oldest first
func (n *Notices) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notice, len(n.active))
	copy(out, n.active)
	return out
}

func (n *Notices) expire(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, notice := range n.active {
		if notice.ID == id {
			n.active = append(n.active[:i], n.active[i+1:]...)
			return
		}
	}
}
