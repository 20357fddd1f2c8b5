package ui

import (
	"image/color"
	"sync/atomic"

	"ClassBoard/internal/capture"
	"ClassBoard/internal/geom"
	"ClassBoard/internal/raster"
	"ClassBoard/internal/whiteboard"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const touchPointer = -1

// BoardWidget shows a whiteboard's raster surface and feeds pointer input
// back into it.
type BoardWidget struct {
	widget.BaseWidget

	wb         *whiteboard.Whiteboard
	surface    *raster.Surface
	background color.Color

	pressed bool
	pointer int
	last    fyne.Position
	dirty   atomic.Bool

	// OnEditor is called when a gesture leaves the text editor open.
	OnEditor func(capture.Editor)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.DoubleTappable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

// NewBoardWidget wraps wb, which must paint onto surface.
func NewBoardWidget(wb *whiteboard.Whiteboard, surface *raster.Surface) *BoardWidget {
	b := &BoardWidget{
		wb:         wb,
		surface:    surface,
		background: raster.DefaultBackground,
	}
	b.ExtendBaseWidget(b)
	wb.OnChange(b.scheduleRefresh)
	return b
}

// scheduleRefresh may run on any goroutine. Bursts of changes collapse
// into one refresh on the UI thread.
func (b *BoardWidget) scheduleRefresh() {
	if !b.dirty.CompareAndSwap(false, true) {
		return
	}
	fyne.Do(func() {
		b.dirty.Store(false)
		b.Refresh()
	})
}

func (b *BoardWidget) scale() float64 {
	if app := fyne.CurrentApp(); app != nil {
		if c := app.Driver().CanvasForObject(b); c != nil {
			return float64(c.Scale())
		}
	}
	return 1
}

func (b *BoardWidget) viewportFor(size fyne.Size) geom.Viewport {
	return geom.NewViewport(float64(size.Width), float64(size.Height), b.scale())
}

// toPoint normalizes a widget-relative position.
func (b *BoardWidget) toPoint(pos fyne.Position) geom.Point {
	v := b.wb.Viewport()
	r := v.Scale()
	return v.ToPoint(geom.Pixel{X: float64(pos.X) * r, Y: float64(pos.Y) * r})
}

func (b *BoardWidget) event(pos fyne.Position, pointer int, button desktop.MouseButton, mouse bool) capture.PointerEvent {
	return capture.PointerEvent{
		Point:     b.toPoint(pos),
		PointerID: pointer,
		Button:    buttonOf(button),
		Mouse:     mouse,
	}
}

func buttonOf(button desktop.MouseButton) int {
	switch button {
	case desktop.MouseButtonPrimary:
		return capture.ButtonPrimary
	case desktop.MouseButtonSecondary:
		return capture.ButtonSecondary
	default:
		return 1
	}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		b.wb.PointerDown(b.event(e.Position, int(e.Button), e.Button, true))
		return
	}
	b.pressed = true
	b.pointer = int(e.Button)
	b.last = e.Position
	b.wb.PointerDown(b.event(e.Position, b.pointer, e.Button, true))
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || !b.pressed {
		return
	}
	b.release(e.Position)
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if !b.pressed {
		// Touch drivers deliver drags without a preceding MouseDown.
		start := e.Position.Subtract(e.Dragged)
		b.pressed = true
		b.pointer = touchPointer
		b.wb.PointerDown(capture.PointerEvent{Point: b.toPoint(start), PointerID: touchPointer})
	}
	b.last = e.Position
	b.wb.PointerMove(b.event(e.Position, b.pointer, desktop.MouseButtonPrimary, b.pointer != touchPointer))
}

func (b *BoardWidget) DragEnd() {
	if b.pressed {
		b.release(b.last)
	}
}

func (b *BoardWidget) release(pos fyne.Position) {
	b.pressed = false
	b.wb.PointerUp(b.event(pos, b.pointer, desktop.MouseButtonPrimary, b.pointer != touchPointer))
	b.showEditor()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	if b.pressed {
		b.last = e.Position
		b.wb.PointerMove(b.event(e.Position, b.pointer, desktop.MouseButtonPrimary, true))
	}
}

// MouseOut ends whatever the pointer was doing.
func (b *BoardWidget) MouseOut() {
	if !b.pressed {
		return
	}
	b.pressed = false
	b.wb.PointerCancel(b.event(b.last, b.pointer, desktop.MouseButtonPrimary, b.pointer != touchPointer))
	b.showEditor()
}

// DoubleTapped opens the editor on the text item under the pointer.
func (b *BoardWidget) DoubleTapped(e *fyne.PointEvent) {
	if b.wb.EditAt(b.toPoint(e.Position)) {
		b.showEditor()
	}
}

func (b *BoardWidget) showEditor() {
	if b.OnEditor == nil {
		return
	}
	if ed, ok := b.wb.Editor(); ok {
		b.OnEditor(ed)
	}
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	img := canvas.NewImageFromImage(b.surface.Composite(b.background))
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleFastest
	return &boardRenderer{board: b, image: img}
}

type boardRenderer struct {
	board *BoardWidget
	image *canvas.Image
	size  fyne.Size
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.image.Resize(size)
	if size == r.size {
		return
	}
	r.size = size
	r.board.wb.Resize(r.board.viewportFor(size))
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *boardRenderer) Refresh() {
	r.image.Image = r.board.surface.Composite(r.board.background)
	r.image.Refresh()
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.image}
}

func (r *boardRenderer) Destroy() {}
