package capture

import (
	"context"
	"strings"
	"time"

	"ClassBoard/internal/geom"
	"ClassBoard/internal/state"
	"ClassBoard/pkg/logger"
)

// activeStroke is the local stroke in progress.
type activeStroke struct {
	mode      state.Mode
	id        string
	color     string
	size      float64
	last      geom.Point
	pending   []geom.Point
	lastFlush time.Time
	pointer   int
}

func (s *activeStroke) segment(points []geom.Point, end bool) state.Segment {
	return state.Segment{
		Mode:     s.mode,
		StrokeID: s.id,
		Color:    s.color,
		Size:     s.size,
		Points:   points,
		IsEnd:    end,
	}
}

// dragState is a text item being moved.
type dragState struct {
	id       string
	offset   geom.Point
	pos      geom.Point
	lastSent time.Time
	pointer  int
}

func (d *dragState) target(p geom.Point) geom.Point {
	return p.Sub(d.offset).Clamp()
}

// placement is a text tool press that did not hit an item.
type placement struct {
	point   geom.Point
	pointer int
}

// Engine converts pointer input into events. It is not safe for concurrent
// use; the host serializes calls.
type Engine struct {
	host Host

	tool  Tool
	color string
	size  float64

	stroke *activeStroke
	drag   *dragState
	place  *placement
	editor *Editor

	batchSize     int
	flushInterval time.Duration
	dragInterval  time.Duration
	now           func() time.Time
	newID         func() string
	logger        logger.Logger
}

// NewEngine creates an engine reporting to host.
func NewEngine(host Host, opts ...Option) *Engine {
	e := &Engine{
		host:          host,
		tool:          ToolDraw,
		color:         Palette[0],
		size:          DefaultStrokeSize,
		batchSize:     DefaultBatchSize,
		flushInterval: DefaultFlushInterval,
		dragInterval:  DefaultDragInterval,
		now:           time.Now,
		newID:         state.NewID,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.size = state.ClampStrokeSize(e.size)
	if e.logger == nil {
		e.logger = logger.Named("capture")
	}
	return e
}

// Tool returns the active tool.
func (e *Engine) Tool() Tool { return e.tool }

// Color returns the active color.
func (e *Engine) Color() string { return e.color }

// Size returns the active stroke size.
func (e *Engine) Size() float64 { return e.size }

// SetTool switches tools. An unfinished gesture is ended first.
func (e *Engine) SetTool(t Tool) {
	if t == e.tool {
		return
	}
	e.finish(nil)
	e.tool = t
}

// SetColor sets the color for new strokes and text.
func (e *Engine) SetColor(c string) {
	if c != "" {
		e.color = c
	}
}

// SetSize sets the stroke size, clamped to the supported range.
func (e *Engine) SetSize(size float64) {
	e.size = state.ClampStrokeSize(size)
}

// Editor returns the open editor, if any.
func (e *Engine) Editor() (Editor, bool) {
	if e.editor == nil {
		return Editor{}, false
	}
	return *e.editor, true
}

// Busy reports whether a gesture is in progress.
func (e *Engine) Busy() bool {
	return e.stroke != nil || e.drag != nil || e.place != nil
}

// PointerDown starts a gesture.
func (e *Engine) PointerDown(ev PointerEvent) {
	if ev.Mouse && ev.Button != ButtonPrimary {
		return
	}
	if e.Busy() {
		return
	}
	p := ev.Point.Clamp()

	if e.tool == ToolText {
		if e.editor != nil {
			return
		}
		if item, ok := e.host.HitTest(p); ok {
			e.drag = &dragState{
				id:       item.ID,
				offset:   p.Sub(item.Position()),
				pos:      item.Position(),
				lastSent: e.now(),
				pointer:  ev.PointerID,
			}
			return
		}
		e.place = &placement{point: p, pointer: ev.PointerID}
		return
	}

	mode := state.ModeDraw
	if e.tool == ToolErase {
		mode = state.ModeErase
	}
	e.stroke = &activeStroke{
		mode:      mode,
		id:        e.newID(),
		color:     e.color,
		size:      e.size,
		last:      p,
		lastFlush: e.now(),
		pointer:   ev.PointerID,
	}
	first := e.stroke.segment([]geom.Point{p}, false)
	e.host.Preview(first, nil)
	e.host.Publish(first.Event())
}

// PointerMove extends the gesture in progress.
func (e *Engine) PointerMove(ev PointerEvent) {
	p := ev.Point.Clamp()

	switch {
	case e.place != nil:
		if ev.PointerID == e.place.pointer {
			e.place.point = p
		}

	case e.drag != nil:
		if ev.PointerID != e.drag.pointer {
			return
		}
		next := e.drag.target(p)
		if !e.host.Nudge(e.drag.id, next) {
			return
		}
		e.drag.pos = next
		now := e.now()
		if now.Sub(e.drag.lastSent) > e.dragInterval {
			e.host.Publish(state.TextMove{ID: e.drag.id, X: next.X, Y: next.Y})
			e.drag.lastSent = now
		}

	case e.stroke != nil:
		if ev.PointerID != e.stroke.pointer {
			return
		}
		s := e.stroke
		from := s.last
		e.host.Preview(s.segment([]geom.Point{p}, false), &from)
		s.last = p
		s.pending = append(s.pending, p)
		if len(s.pending) >= e.batchSize || e.now().Sub(s.lastFlush) > e.flushInterval {
			e.flush(false)
		}
	}
}

// PointerUp ends the gesture in progress.
func (e *Engine) PointerUp(ev PointerEvent) {
	if !e.owns(ev.PointerID) {
		return
	}
	p := ev.Point.Clamp()
	e.finish(&p)
}

// PointerCancel ends the gesture exactly like PointerUp. Leaving the surface
// is reported this way too.
func (e *Engine) PointerCancel(ev PointerEvent) {
	e.PointerUp(ev)
}

func (e *Engine) owns(pointer int) bool {
	switch {
	case e.place != nil:
		return e.place.pointer == pointer
	case e.drag != nil:
		return e.drag.pointer == pointer
	case e.stroke != nil:
		return e.stroke.pointer == pointer
	}
	return false
}

// finish closes whatever gesture is active. at is the final pointer
// position, or nil when the gesture is abandoned by a tool switch.
func (e *Engine) finish(at *geom.Point) {
	switch {
	case e.place != nil:
		e.place = nil
		// A tool switch drops the placement instead of opening an editor.
		if at != nil {
			e.openEditor(*at)
		}

	case e.drag != nil:
		d := e.drag
		e.drag = nil
		next := d.pos
		if at != nil {
			next = d.target(*at)
		}
		e.host.Commit(state.TextMove{ID: d.id, X: next.X, Y: next.Y})

	case e.stroke != nil:
		if len(e.stroke.pending) > 0 {
			e.flush(true)
		} else {
			e.host.Publish(e.stroke.segment([]geom.Point{}, true).Event())
		}
		e.stroke = nil
	}
}

func (e *Engine) flush(end bool) {
	s := e.stroke
	points := s.pending
	s.pending = nil
	e.host.Publish(s.segment(points, end).Event())
	s.lastFlush = e.now()
}

func (e *Engine) openEditor(p geom.Point) {
	e.editor = &Editor{
		ID:    e.newID(),
		X:     p.X,
		Y:     p.Y,
		Color: e.color,
		Size:  state.ClampTextSize(EditorSize(e.size)),
	}
	e.logger.Debug(context.Background(), "text editor opened", logger.String("id", e.editor.ID))
}

// EditAt opens the editor on the text item under p. It only acts in text
// mode while no gesture or editor is active.
func (e *Engine) EditAt(p geom.Point) bool {
	if e.tool != ToolText || e.editor != nil || e.Busy() {
		return false
	}
	item, ok := e.host.HitTest(p.Clamp())
	if !ok {
		return false
	}
	e.editor = &Editor{
		ID:       item.ID,
		X:        item.X,
		Y:        item.Y,
		Color:    item.Color,
		Size:     item.Size,
		Value:    item.Text,
		Existing: true,
	}
	return true
}

// CommitText closes the editor. Blank text deletes the item; anything else
// creates or replaces it.
func (e *Engine) CommitText(value string) {
	ed := e.editor
	if ed == nil {
		return
	}
	e.editor = nil
	text := strings.TrimSpace(value)
	if text == "" {
		e.host.Commit(state.TextDelete{ID: ed.ID})
		return
	}
	e.host.Commit(state.Text{
		ID:    ed.ID,
		X:     ed.X,
		Y:     ed.Y,
		Text:  text,
		Color: ed.Color,
		Size:  ed.Size,
	})
}

// CancelText closes the editor without emitting anything.
func (e *Engine) CancelText() {
	e.editor = nil
}

// Clear wipes the board for everyone and abandons local gesture state.
func (e *Engine) Clear() {
	e.Reset()
	e.host.Commit(state.Clear{})
}

// Abandon ends an in-progress stroke after a remote Clear. Pending points
// are dropped; the returned empty terminal segment lets receivers release
// the stroke. ok is false when no stroke was active.
func (e *Engine) Abandon() (ev state.Event, ok bool) {
	if e.stroke != nil {
		ev, ok = e.stroke.segment([]geom.Point{}, true).Event(), true
	}
	e.Reset()
	return ev, ok
}

// Reset drops every in-progress gesture without emitting events.
func (e *Engine) Reset() {
	e.stroke = nil
	e.drag = nil
	e.place = nil
}
