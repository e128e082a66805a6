package client

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

type captureFixture struct {
	clock   *clockwork.FakeClock
	surface *recordingSurface
	emits   *emitRecorder
	capture *Capture
}

func newCaptureFixture() *captureFixture {
	f := &captureFixture{
		clock:   clockwork.NewFakeClock(),
		surface: &recordingSurface{},
		emits:   &emitRecorder{},
	}
	f.capture = NewCapture(f.clock, DefaultFlushDelay, NewRenderer(f.surface), f.emits.emit)
	return f
}

func (f *captureFixture) waitForBatches(t *testing.T, n int) []emitted {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.emits.Batches()) == n
	}, time.Second, time.Millisecond)
	return f.emits.Batches()
}

func TestCapture_MoveRendersImmediately(t *testing.T) {
	f := newCaptureFixture()
	style := Style{Color: "#ff0000", Width: 8}
	f.capture.SetStyle(style)

	f.capture.Press(pt(0, 0))
	f.capture.Move(pt(1, 1))
	f.capture.Move(pt(2, 3))

	assert.Equal(t, []paintedSegment{
		{Start: pt(0, 0), End: pt(1, 1), Color: "#ff0000", Width: 8},
		{Start: pt(1, 1), End: pt(2, 3), Color: "#ff0000", Width: 8},
	}, f.surface.Painted())
	assert.Empty(t, f.emits.Batches(), "nothing is sent before the pen rests")
	assert.Equal(t, 2, f.capture.Buffered())
	assert.True(t, f.capture.FlushPending())
}

func TestCapture_FlushesAfterPause(t *testing.T) {
	f := newCaptureFixture()

	f.capture.Press(pt(0, 0))
	f.capture.Move(pt(1, 1))
	f.capture.Move(pt(2, 2))
	f.capture.Move(pt(3, 3))

	f.clock.Advance(DefaultFlushDelay - time.Millisecond)
	assert.Empty(t, f.emits.Batches())

	f.clock.Advance(time.Millisecond)
	batches := f.waitForBatches(t, 1)
	assert.Equal(t, []events.Point{pt(1, 1), pt(2, 2), pt(3, 3)}, batches[0].Points)
	assert.Equal(t, 0, f.capture.Buffered())
	assert.True(t, f.capture.Capturing(), "a flush does not end the stroke")
}

func TestCapture_EachMoveRearmsTimer(t *testing.T) {
	f := newCaptureFixture()

	f.capture.Press(pt(0, 0))
	f.capture.Move(pt(1, 1))
	f.clock.Advance(400 * time.Millisecond)
	f.capture.Move(pt(2, 2))
	f.clock.Advance(400 * time.Millisecond)
	assert.Empty(t, f.emits.Batches(), "movement keeps postponing the flush")

	f.clock.Advance(100 * time.Millisecond)
	batches := f.waitForBatches(t, 1)
	assert.Equal(t, []events.Point{pt(1, 1), pt(2, 2)}, batches[0].Points)
}

func TestCapture_ReleaseFlushesRemainder(t *testing.T) {
	f := newCaptureFixture()

	f.capture.Press(pt(0, 0))
	f.capture.Move(pt(1, 1))
	f.clock.Advance(DefaultFlushDelay)
	f.waitForBatches(t, 1)

	f.capture.Move(pt(2, 2))
	f.capture.Release()

	batches := f.emits.Batches()
	require.Len(t, batches, 2, "release flushes without waiting for the timer")
	assert.Equal(t, []events.Point{pt(2, 2)}, batches[1].Points)
	assert.False(t, f.capture.Capturing())
	assert.False(t, f.capture.FlushPending())

	f.clock.Advance(time.Second)
	assert.Len(t, f.emits.Batches(), 2, "disarmed timer must not emit again")
}

func TestCapture_ReleaseWithNothingBuffered(t *testing.T) {
	f := newCaptureFixture()

	f.capture.Press(pt(0, 0))
	f.capture.Release()
	f.capture.Release()

	assert.Empty(t, f.emits.Batches())
	assert.Empty(t, f.surface.Painted())
}

func TestCapture_MoveWithoutPressIsIgnored(t *testing.T) {
	f := newCaptureFixture()

	f.capture.Move(pt(5, 5))
	f.clock.Advance(time.Second)

	assert.Empty(t, f.surface.Painted())
	assert.Empty(t, f.emits.Batches())
	assert.False(t, f.capture.FlushPending())
}

func TestCapture_PressClearsUnfinishedStroke(t *testing.T) {
	f := newCaptureFixture()

	f.capture.Press(pt(0, 0))
	f.capture.Move(pt(1, 1))
	f.capture.Press(pt(10, 10))
	f.clock.Advance(time.Second)

	assert.Empty(t, f.emits.Batches())
	assert.Equal(t, 0, f.capture.Buffered())

	f.capture.Move(pt(11, 11))
	f.capture.Release()

	batches := f.emits.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, []events.Point{pt(11, 11)}, batches[0].Points)
}

func TestCapture_StyleIsFixedPerStroke(t *testing.T) {
	f := newCaptureFixture()
	first := Style{Color: "#111111", Width: 2}
	second := Style{Color: "#222222", Width: 9}

	f.capture.SetStyle(first)
	f.capture.Press(pt(0, 0))
	f.capture.Move(pt(1, 0))
	f.capture.SetStyle(second)
	f.capture.Move(pt(2, 0))
	f.capture.Release()

	batches := f.emits.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, first, batches[0].Style)
	for _, seg := range f.surface.Painted() {
		assert.Equal(t, first.Color, seg.Color)
	}
	assert.Equal(t, second, f.capture.Style())
}
