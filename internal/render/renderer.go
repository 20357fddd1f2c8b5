package render

import (
	"context"
	"image/color"

	"ClassBoard/internal/geom"
	"ClassBoard/internal/state"
	"ClassBoard/pkg/logger"
	"ClassBoard/pkg/metrics"
)

// Hit box height relative to font size.
const lineHeight = 1.15

// eraseWidthFactor widens eraser strokes relative to their nominal size.
const eraseWidthFactor = 2

// Renderer keeps a Surface consistent with a Board.
type Renderer struct {
	surface  Surface
	board    *state.Board
	viewport geom.Viewport
	frames   Scheduler
	ink      color.Color
	logger   logger.Logger

	pending bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithViewport sets the initial viewport.
func WithViewport(v geom.Viewport) Option {
	return func(r *Renderer) {
		r.viewport = v
	}
}

// WithScheduler sets the scheduler used for coalesced repaints.
func WithScheduler(s Scheduler) Option {
	return func(r *Renderer) {
		if s != nil {
			r.frames = s
		}
	}
}

// WithInk sets the fallback color for unparseable color strings.
func WithInk(c color.Color) Option {
	return func(r *Renderer) {
		if c != nil {
			r.ink = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a renderer for board painting onto surface.
func New(surface Surface, board *state.Board, opts ...Option) *Renderer {
	r := &Renderer{
		surface:  surface,
		board:    board,
		viewport: geom.NewViewport(1, 1, 1),
		frames:   Immediate,
		ink:      DefaultInk,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("render")
	}
	w, h := r.viewport.DeviceSize()
	r.surface.Resize(w, h)
	return r
}

// Viewport returns the current viewport.
func (r *Renderer) Viewport() geom.Viewport {
	return r.viewport
}

// Resize adopts a new viewport and rebuilds the picture from the log.
func (r *Renderer) Resize(v geom.Viewport) {
	r.viewport = v
	w, h := v.DeviceSize()
	r.surface.Resize(w, h)
	r.Replay()
}

// Present paints the effect of one applied event. Strokes and new text are
// painted incrementally; anything that changes existing text goes through a
// coalesced repaint; Clear triggers a full replay.
func (r *Renderer) Present(change state.Change) {
	switch change.Kind {
	case state.KindDraw, state.KindErase:
		if !change.Ignored {
			r.PaintSegment(change.Segment, change.From)
		}
	case state.KindText:
		if change.Replaced {
			r.RequestRedraw()
			return
		}
		r.paintText(change.Item)
	case state.KindTextMove, state.KindTextDelete:
		if !change.Missing {
			r.RequestRedraw()
		}
	case state.KindClear:
		r.Replay()
	}
}

// PaintSegment strokes seg, starting at from when the segment continues an
// earlier one.
func (r *Renderer) PaintSegment(seg state.Segment, from *geom.Point) {
	if len(seg.Points) == 0 {
		return
	}
	start := seg.Points[0]
	if from != nil {
		start = *from
	}
	pixels := make([]geom.Pixel, 0, len(seg.Points)+1)
	pixels = append(pixels, r.viewport.ToPixel(start))
	for _, p := range seg.Points {
		pixels = append(pixels, r.viewport.ToPixel(p))
	}
	r.surface.PaintSegment(pixels, r.segmentStyle(seg))
}

func (r *Renderer) segmentStyle(seg state.Segment) SegmentStyle {
	scale := r.viewport.Scale()
	if seg.Mode == state.ModeErase {
		return SegmentStyle{Mode: state.ModeErase, Color: color.Opaque, Width: seg.Size * eraseWidthFactor * scale}
	}
	return SegmentStyle{Mode: state.ModeDraw, Color: resolveColor(seg.Color, r.ink), Width: seg.Size * scale}
}

func (r *Renderer) paintText(item state.TextItem) {
	r.surface.PaintGlyphs(item.Text, r.viewport.ToPixel(item.Position()), TextStyle{
		Color: resolveColor(item.Color, r.ink),
		Size:  item.Size * r.viewport.Scale(),
	})
}

// Replay wipes the surface and rebuilds it from the log and text items.
func (r *Renderer) Replay() {
	r.surface.ClearSurface(LayerStrokes)
	stitch := state.NewStitcher()
	events := r.board.Log()
	for _, ev := range events {
		if seg, ok := state.SegmentOf(ev); ok {
			r.PaintSegment(seg, stitch.Advance(seg))
		}
	}
	r.repaintText()
	metrics.RecordReplay()
	r.logger.Debug(context.Background(), "replayed event log", logger.Int("events", len(events)))
}

func (r *Renderer) repaintText() {
	r.surface.ClearSurface(LayerText)
	for _, item := range r.board.TextItems() {
		r.paintText(item)
	}
}

// RequestRedraw schedules a text repaint unless one is already pending.
func (r *Renderer) RequestRedraw() {
	if r.pending {
		metrics.RecordRedrawCoalesced()
		return
	}
	r.pending = true
	r.frames.Schedule(func() {
		r.pending = false
		r.repaintText()
		metrics.RecordRedraw()
	})
}

// Pending reports whether a repaint is scheduled.
func (r *Renderer) Pending() bool {
	return r.pending
}

// HitTest returns the topmost text item whose box contains p.
func (r *Renderer) HitTest(p geom.Point) (state.TextItem, bool) {
	target := r.viewport.ToPixel(p)
	scale := r.viewport.Scale()
	items := r.board.TextItems()
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		size := item.Size * scale
		width := r.surface.MeasureText(item.Text, size)
		topLeft := r.viewport.ToPixel(item.Position())
		box := geom.Rect{
			Min: topLeft,
			Max: geom.Pixel{X: topLeft.X + width, Y: topLeft.Y + size*lineHeight},
		}
		if box.Contains(target) {
			return item, true
		}
	}
	return state.TextItem{}, false
}
