// Package whiteboard wires the board model, renderer, capture engine and
// transport into one participant.
package whiteboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"ClassBoard/internal/capture"
	"ClassBoard/internal/geom"
	"ClassBoard/internal/render"
	"ClassBoard/internal/state"
	"ClassBoard/pkg/logger"
	"ClassBoard/pkg/metrics"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "classroom-whiteboard"

// Channel is the transport a whiteboard publishes on.
type Channel interface {
	Send(channel string, payload []byte) error
	OnReceive(channel string, handler func(payload []byte)) (unsubscribe func())
}

// Whiteboard is one participant. Pointer input, toolbar calls, inbound
// messages and scheduled repaints may arrive on different goroutines; a
// single mutex runs them one at a time.
type Whiteboard struct {
	mu sync.Mutex

	board    *state.Board
	renderer *render.Renderer
	capture  *capture.Engine

	channel     Channel
	topic       string
	unsubscribe func()

	viewport      geom.Viewport
	frameInterval time.Duration
	scheduler     render.Scheduler
	captureOpts   []capture.Option

	listeners []func()
	logger    logger.Logger
}

// New creates a whiteboard painting onto surface.
func New(surface render.Surface, opts ...Option) *Whiteboard {
	w := &Whiteboard{
		board:         state.NewBoard(),
		topic:         DefaultTopic,
		viewport:      geom.NewViewport(1, 1, 1),
		frameInterval: render.DefaultFrameInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named("whiteboard")
	}
	if w.scheduler == nil {
		w.scheduler = render.NewFrameScheduler(w.frameInterval, w.Locked)
	}
	w.renderer = render.New(surface, w.board,
		render.WithViewport(w.viewport),
		render.WithScheduler(w.scheduler),
		render.WithLogger(w.logger.Named("render")),
	)
	w.capture = capture.NewEngine(w, append([]capture.Option{
		capture.WithLogger(w.logger.Named("capture")),
	}, w.captureOpts...)...)
	return w
}

// Locked runs fn with the whiteboard lock held, then notifies listeners.
func (w *Whiteboard) Locked(fn func()) {
	w.mu.Lock()
	fn()
	w.mu.Unlock()
	w.changed()
}

// OnChange registers fn to run after anything was painted.
func (w *Whiteboard) OnChange(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Whiteboard) changed() {
	w.mu.Lock()
	listeners := append([]func(){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Start subscribes to the channel. The subscription ends with ctx or Close.
func (w *Whiteboard) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.channel == nil {
		return errors.New("whiteboard has no channel")
	}
	if w.unsubscribe != nil {
		return nil
	}
	w.unsubscribe = w.channel.OnReceive(w.topic, w.Receive)
	context.AfterFunc(ctx, w.Close)
	w.logger.Info(ctx, "whiteboard subscribed", logger.String("topic", w.topic))
	return nil
}

// Close stops receiving.
func (w *Whiteboard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
}

// Receive applies an inbound payload. Anything that fails validation is
// dropped.
func (w *Whiteboard) Receive(payload []byte) {
	ev, err := state.Decode(payload)
	if err != nil {
		metrics.RecordEventDropped("invalid")
		w.logger.Debug(context.Background(), "dropping invalid event", logger.Error(err))
		return
	}
	w.Locked(func() {
		change := w.board.Apply(ev)
		w.renderer.Present(change)
		if ev.Kind() == state.KindClear {
			w.abandon()
		}
		if change.Ignored {
			metrics.RecordEventDropped("retired")
			return
		}
		metrics.RecordEventApplied(string(ev.Kind()), "remote")
		metrics.UpdateBoardSize(w.board.Len(), len(w.board.TextItems()))
	})
}

// abandon drops the local gesture after a remote Clear. An interrupted
// stroke still gets its terminal segment so peers can release it.
func (w *Whiteboard) abandon() {
	end, ok := w.capture.Abandon()
	if !ok {
		return
	}
	w.board.Record(end)
	w.send(end)
}

// Preview paints a local stroke segment.
func (w *Whiteboard) Preview(seg state.Segment, from *geom.Point) {
	w.renderer.PaintSegment(seg, from)
}

// Publish logs an event already shown locally and sends it.
func (w *Whiteboard) Publish(ev state.Event) {
	if !w.board.Record(ev) {
		return
	}
	w.send(ev)
}

// Commit applies an event locally, paints it and sends it.
func (w *Whiteboard) Commit(ev state.Event) {
	w.renderer.Present(w.board.Apply(ev))
	metrics.RecordEventApplied(string(ev.Kind()), "local")
	metrics.UpdateBoardSize(w.board.Len(), len(w.board.TextItems()))
	w.send(ev)
}

// Nudge moves a text item without logging and schedules a repaint.
func (w *Whiteboard) Nudge(id string, p geom.Point) bool {
	if !w.board.Nudge(id, p) {
		return false
	}
	w.renderer.RequestRedraw()
	return true
}

// HitTest returns the topmost text item under p.
func (w *Whiteboard) HitTest(p geom.Point) (state.TextItem, bool) {
	return w.renderer.HitTest(p)
}

func (w *Whiteboard) send(ev state.Event) {
	if w.channel == nil {
		return
	}
	data, err := state.Encode(ev)
	if err != nil {
		w.logger.Error(context.Background(), "encode event", logger.Error(err))
		return
	}
	if err := w.channel.Send(w.topic, data); err != nil {
		metrics.RecordSendError()
		w.logger.Debug(context.Background(), "send failed", logger.String("kind", string(ev.Kind())), logger.Error(err))
		return
	}
	metrics.RecordEventSent(string(ev.Kind()))
}

// PointerDown forwards a pointer press.
func (w *Whiteboard) PointerDown(ev capture.PointerEvent) {
	w.Locked(func() { w.capture.PointerDown(ev) })
}

// PointerMove forwards a pointer move.
func (w *Whiteboard) PointerMove(ev capture.PointerEvent) {
	w.Locked(func() { w.capture.PointerMove(ev) })
}

// PointerUp forwards a pointer release.
func (w *Whiteboard) PointerUp(ev capture.PointerEvent) {
	w.Locked(func() { w.capture.PointerUp(ev) })
}

// PointerCancel forwards a cancelled or departed pointer.
func (w *Whiteboard) PointerCancel(ev capture.PointerEvent) {
	w.Locked(func() { w.capture.PointerCancel(ev) })
}

// EditAt opens the editor on the text item under p.
func (w *Whiteboard) EditAt(p geom.Point) bool {
	var ok bool
	w.Locked(func() { ok = w.capture.EditAt(p) })
	return ok
}

// CommitText closes the editor with value.
func (w *Whiteboard) CommitText(value string) {
	w.Locked(func() { w.capture.CommitText(value) })
}

// CancelText closes the editor without emitting.
func (w *Whiteboard) CancelText() {
	w.Locked(w.capture.CancelText)
}

// Clear wipes the board for every participant.
func (w *Whiteboard) Clear() {
	w.Locked(w.capture.Clear)
}

// SetTool switches the active tool.
func (w *Whiteboard) SetTool(t capture.Tool) {
	w.Locked(func() { w.capture.SetTool(t) })
}

// SetColor sets the active color.
func (w *Whiteboard) SetColor(c string) {
	w.Locked(func() { w.capture.SetColor(c) })
}

// SetSize sets the active stroke size.
func (w *Whiteboard) SetSize(size float64) {
	w.Locked(func() { w.capture.SetSize(size) })
}

// Tool returns the active tool.
func (w *Whiteboard) Tool() capture.Tool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capture.Tool()
}

// Color returns the active color.
func (w *Whiteboard) Color() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capture.Color()
}

// Size returns the active stroke size.
func (w *Whiteboard) Size() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capture.Size()
}

// Editor returns the open text editor, if any.
func (w *Whiteboard) Editor() (capture.Editor, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capture.Editor()
}

// Resize adopts a new viewport and replays the board onto it.
func (w *Whiteboard) Resize(v geom.Viewport) {
	w.Locked(func() {
		w.viewport = v
		w.renderer.Resize(v)
	})
}

// Viewport returns the current viewport.
func (w *Whiteboard) Viewport() geom.Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewport
}

// TextItems returns the text items bottom-most first.
func (w *Whiteboard) TextItems() []state.TextItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.board.TextItems()
}

// Log returns the applied events in order.
func (w *Whiteboard) Log() []state.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.board.Log()
}

// RenderTo replays the current board onto another surface at v.
func (w *Whiteboard) RenderTo(surface render.Surface, v geom.Viewport) {
	w.mu.Lock()
	defer w.mu.Unlock()
	render.New(surface, w.board,
		render.WithViewport(v),
		render.WithLogger(w.logger.Named("snapshot")),
	).Replay()
}

var _ capture.Host = (*Whiteboard)(nil)
