package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

type paintedSegment struct {
	Start, End events.Point
	Color      string
	Width      float64
}

// recordingSurface behaves like a forward-only raster: it remembers what is
// currently painted and how many times it was cleared
type recordingSurface struct {
	mu      sync.Mutex
	painted []paintedSegment
	clears  int
}

func (s *recordingSurface) RenderSegment(start, end events.Point, color string, width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.painted = append(s.painted, paintedSegment{Start: start, End: end, Color: color, Width: width})
}

func (s *recordingSurface) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.painted = nil
	s.clears++
}

func (s *recordingSurface) Painted() []paintedSegment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]paintedSegment, len(s.painted))
	copy(out, s.painted)
	return out
}

func (s *recordingSurface) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// fakeSender records outbound frames
type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (f *fakeSender) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSender) envelopes(t *testing.T) []events.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []events.Envelope
	for _, frame := range f.frames {
		env, err := events.DecodeEnvelope(frame)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

type emitted struct {
	Points []events.Point
	Style  Style
}

// emitRecorder collects batches handed out by a Capture
type emitRecorder struct {
	mu      sync.Mutex
	batches []emitted
}

func (r *emitRecorder) emit(points []events.Point, style Style) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, emitted{Points: points, Style: style})
}

func (r *emitRecorder) Batches() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]emitted, len(r.batches))
	copy(out, r.batches)
	return out
}

func pt(x, y float64) events.Point {
	return events.Point{X: x, Y: y}
}
