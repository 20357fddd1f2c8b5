// Package capture turns local pointer input into rate-limited whiteboard
// events. It never touches the network or the surface directly; everything
// goes through a Host.
package capture

import (
	"ClassBoard/internal/geom"
	"ClassBoard/internal/state"
)

// Tool is the active toolbar tool.
type Tool int

const (
	ToolDraw Tool = iota
	ToolErase
	ToolText
)

func (t Tool) String() string {
	switch t {
	case ToolErase:
		return "erase"
	case ToolText:
		return "text"
	default:
		return "draw"
	}
}

// Palette is the toolbar's color set. The first entry is the default ink.
var Palette = []string{"#f8fafc", "#ef4444", "#38bdf8", "#f97316", "#facc15", "#22c55e"}

// DefaultStrokeSize is the initial toolbar size.
const DefaultStrokeSize = 4.0

// Mouse buttons as reported in PointerEvent.Button.
const (
	ButtonPrimary   = 0
	ButtonSecondary = 2
)

// PointerEvent is one pointer sample, already normalized to the surface.
type PointerEvent struct {
	Point     geom.Point
	PointerID int
	Button    int
	// Mouse is set for mouse pointers; touch and pen ignore Button.
	Mouse bool
}

// Host is implemented by the owner of the board, renderer and channel.
type Host interface {
	// Preview paints a local stroke segment, continuing from from when set.
	Preview(seg state.Segment, from *geom.Point)
	// Publish records an event the host has already shown and sends it.
	Publish(ev state.Event)
	// Commit applies, paints and sends an event.
	Commit(ev state.Event)
	// Nudge moves a text item locally for drag feedback.
	Nudge(id string, p geom.Point) bool
	// HitTest returns the topmost text item under p.
	HitTest(p geom.Point) (state.TextItem, bool)
}

// Editor is the state of the open text editor.
type Editor struct {
	ID    string
	X, Y  float64
	Color string
	Size  float64
	Value string
	// Existing is set when the editor was opened on an item already on the board.
	Existing bool
}

// Position returns the editor's normalized anchor.
func (e Editor) Position() geom.Point {
	return geom.Point{X: e.X, Y: e.Y}
}

// EditorSize returns the font size used for new text at stroke size.
func EditorSize(strokeSize float64) float64 {
	return max(14, strokeSize*3)
}
