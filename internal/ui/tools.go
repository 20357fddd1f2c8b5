package ui

import (
	"fmt"
	"image/color"

	"ClassBoard/internal/capture"
	"ClassBoard/internal/render"
	"ClassBoard/internal/state"
	"ClassBoard/internal/whiteboard"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Value    string
	Color    color.Color
	OnTapped func(string)
}

func newColorSwatch(value string, tapped func(string)) *colorSwatch {
	c, ok := render.ParseColor(value)
	if !ok {
		c = render.DefaultInk
	}
	s := &colorSwatch{Value: value, Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))
	rect.CornerRadius = 14

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1
	border.CornerRadius = 14

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Value)
	}
}

// Toolbar holds the tool, palette and size controls for one whiteboard.
type Toolbar struct {
	wb     *whiteboard.Whiteboard
	status *widget.Label
	size   *widget.Label

	// OnExport runs when the export action is tapped.
	OnExport func()
}

// NewToolbar creates the controls for wb.
func NewToolbar(wb *whiteboard.Whiteboard) *Toolbar {
	return &Toolbar{
		wb:     wb,
		status: widget.NewLabel(""),
		size:   widget.NewLabel(""),
	}
}

func (t *Toolbar) selectTool(tool capture.Tool) {
	t.wb.SetTool(tool)
	t.update()
}

func (t *Toolbar) update() {
	t.status.SetText(fmt.Sprintf("Tool: %s", t.wb.Tool()))
	t.size.SetText(fmt.Sprintf("%.0f", t.wb.Size()))
}

// pickColor sets the ink. Picking a color while erasing switches back to
// the pen.
func (t *Toolbar) pickColor(c string) {
	t.wb.SetColor(c)
	if t.wb.Tool() == capture.ToolErase {
		t.wb.SetTool(capture.ToolDraw)
	}
	t.update()
}

// Object builds the toolbar's canvas object.
func (t *Toolbar) Object() fyne.CanvasObject {
	tools := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { t.selectTool(capture.ToolDraw) }),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), func() { t.selectTool(capture.ToolErase) }),
		widget.NewToolbarAction(theme.ContentPasteIcon(), func() { t.selectTool(capture.ToolText) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), t.wb.Clear),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			if t.OnExport != nil {
				t.OnExport()
			}
		}),
	)

	swatches := make([]fyne.CanvasObject, 0, len(capture.Palette))
	for _, c := range capture.Palette {
		swatches = append(swatches, newColorSwatch(c, t.pickColor))
	}
	colorBox := container.NewHBox(swatches...)

	strokeSlider := widget.NewSlider(state.MinStrokeSize, state.MaxStrokeSize)
	strokeSlider.Step = 1
	strokeSlider.SetValue(t.wb.Size())
	strokeSlider.OnChanged = func(val float64) {
		t.wb.SetSize(val)
		t.update()
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	t.update()
	return container.NewHBox(
		tools,
		widget.NewSeparator(),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		t.size,
		layout.NewSpacer(),
		t.status,
	)
}
