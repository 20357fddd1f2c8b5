// Package render paints the replicated board onto a drawing surface, either
// one event at a time or by replaying the whole log.
package render

import (
	"image/color"

	"ClassBoard/internal/geom"
	"ClassBoard/internal/state"
)

// Layer selects one of the surface's two planes. Erasing only ever touches
// the stroke layer; text lives above it.
type Layer int

const (
	LayerStrokes Layer = iota
	LayerText
)

// SegmentStyle describes how a polyline is painted.
type SegmentStyle struct {
	Mode  state.Mode
	Color color.Color
	// Width is the line width in device pixels.
	Width float64
}

// TextStyle describes how glyphs are painted.
type TextStyle struct {
	Color color.Color
	// Size is the font size in device pixels.
	Size float64
}

// Surface is the drawing collaborator. Coordinates are device pixels.
type Surface interface {
	// Resize reallocates the backing store; previous content is lost.
	Resize(width, height int)
	// PaintSegment strokes a connected polyline on the stroke layer. Erase
	// mode removes coverage instead of adding color.
	PaintSegment(points []geom.Pixel, style SegmentStyle)
	// PaintGlyphs draws text on the text layer with its top-left corner at at.
	PaintGlyphs(text string, at geom.Pixel, style TextStyle)
	// ClearSurface wipes one layer.
	ClearSurface(layer Layer)
	// MeasureText returns the advance width of text at size, in device pixels.
	MeasureText(text string, size float64) float64
}
