package client

import (
	"sync"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// Surface is the raster the client draws on. It keeps no drawing model:
// segments are painted forward-only and ClearAll erases everything.
type Surface interface {
	RenderSegment(start, end events.Point, color string, width float64)
	ClearAll()
}

// Style is the pen used for a stroke
type Style struct {
	Color string
	Width float64
}

// DefaultStyle matches the browser client's initial picker values
func DefaultStyle() Style {
	return Style{Color: "#000000", Width: 5}
}

// Renderer is the single path through which local and remote strokes reach
// the surface. Each segment is one atomic call.
type Renderer struct {
	surface Surface
	mu      sync.Mutex
}

// NewRenderer wraps surface
func NewRenderer(surface Surface) *Renderer {
	return &Renderer{surface: surface}
}

// Segment paints one line segment
func (r *Renderer) Segment(from, to events.Point, style Style) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface.RenderSegment(from, to, style.Color, style.Width)
}

// Batch paints a stroke batch with the sender's style. The first point is
// painted as a dot so single-point batches stay visible, then each
// consecutive pair in order. Batches without points are skipped.
func (r *Renderer) Batch(batch events.StrokeBatch) bool {
	if len(batch.Points) == 0 {
		return false
	}

	style := Style{Color: batch.Color, Width: float64(batch.BrushSize)}
	r.Segment(batch.Points[0], batch.Points[0], style)
	for i := 1; i < len(batch.Points); i++ {
		r.Segment(batch.Points[i-1], batch.Points[i], style)
	}
	return true
}

// Clear erases the whole surface
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface.ClearAll()
}
