package client

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// DefaultFlushDelay is how long the pen must rest before buffered points are sent
const DefaultFlushDelay = 500 * time.Millisecond

// EmitFunc receives a finished batch of points. It is called with the
// capture lock held and must not block.
type EmitFunc func(points []events.Point, style Style)

// Capture turns press/move/release input into stroke batches. Its state is
// the point buffer plus at most one pending flush timer; arming, disarming
// and firing that timer are the only transitions.
type Capture struct {
	clock    clockwork.Clock
	delay    time.Duration
	renderer *Renderer
	emit     EmitFunc

	mu          sync.Mutex
	style       Style
	capturing   bool
	strokeStyle Style
	last        events.Point
	buffer      []events.Point
	pending     clockwork.Timer
	generation  uint64
}

// NewCapture creates a capture session that renders through renderer and
// hands batches to emit
func NewCapture(clock clockwork.Clock, delay time.Duration, renderer *Renderer, emit EmitFunc) *Capture {
	return &Capture{
		clock:    clock,
		delay:    delay,
		renderer: renderer,
		emit:     emit,
		style:    DefaultStyle(),
	}
}

// SetStyle changes the pen for the next stroke
func (c *Capture) SetStyle(style Style) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.style = style
}

// Style returns the current pen
func (c *Capture) Style() Style {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

// Press starts a stroke at p. Any unsent points from an unfinished stroke
// are discarded.
func (c *Capture) Press(p events.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarm()
	c.capturing = true
	c.strokeStyle = c.style
	c.last = p
	c.buffer = nil
}

// Move extends the stroke to p, paints the new segment immediately and
// re-arms the flush timer
func (c *Capture) Move(p events.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return
	}

	c.buffer = append(c.buffer, p)
	c.renderer.Segment(c.last, p, c.strokeStyle)
	c.last = p
	c.arm()
}

// Release ends the stroke, flushing whatever is still buffered whether or
// not a timer is armed
func (c *Capture) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarm()
	c.flush()
	c.capturing = false
}

// Capturing reports whether a stroke is in progress
func (c *Capture) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

// Buffered returns how many points are waiting to be sent
func (c *Capture) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// FlushPending reports whether a flush timer is armed
func (c *Capture) FlushPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Capture) arm() {
	c.disarm()
	gen := c.generation
	c.pending = c.clock.AfterFunc(c.delay, func() {
		c.fire(gen)
	})
}

// disarm stops the pending timer. Bumping the generation makes a callback
// that already fired but has not taken the lock yet a no-op.
func (c *Capture) disarm() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.generation++
}

func (c *Capture) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.pending == nil {
		return
	}
	c.pending = nil
	c.flush()
}

func (c *Capture) flush() {
	if len(c.buffer) == 0 {
		return
	}
	points := c.buffer
	c.buffer = nil
	c.emit(points, c.strokeStyle)
}
