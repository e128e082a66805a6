package client

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// LogSurface is a headless surface that logs what would be painted
type LogSurface struct {
	segments atomic.Uint64
}

func (s *LogSurface) RenderSegment(start, end events.Point, color string, width float64) {
	s.segments.Add(1)
	log.Debug().
		Float64("x0", start.X).
		Float64("y0", start.Y).
		Float64("x1", end.X).
		Float64("y1", end.Y).
		Str("color", color).
		Float64("width", width).
		Msg("segment")
}

func (s *LogSurface) ClearAll() {
	log.Info().Uint64("segments", s.segments.Swap(0)).Msg("surface cleared")
}

// Segments returns how many segments were painted since the last clear
func (s *LogSurface) Segments() uint64 {
	return s.segments.Load()
}
