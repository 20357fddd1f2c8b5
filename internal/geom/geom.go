// Package geom converts between the resolution-independent unit square used on
// the wire and the pixel space of the current drawing surface.
package geom

import "math"

// Point is a position normalized to the drawing surface, both axes in [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pixel is a position in device pixels.
type Pixel struct {
	X float64
	Y float64
}

// Size is the logical size of the drawing surface, in fyne units on desktop.
type Size struct {
	Width  float64
	Height float64
}

// Viewport is the explicit surface configuration handed to the renderer on
// construction and on every resize.
type Viewport struct {
	Size  Size
	Ratio float64
}

// NewViewport builds a viewport, normalizing a missing pixel ratio to 1.
func NewViewport(width, height, ratio float64) Viewport {
	v := Viewport{Size: Size{Width: width, Height: height}, Ratio: ratio}
	return v.normalized()
}

func (v Viewport) normalized() Viewport {
	if v.Ratio <= 0 || math.IsNaN(v.Ratio) {
		v.Ratio = 1
	}
	if v.Size.Width < 0 {
		v.Size.Width = 0
	}
	if v.Size.Height < 0 {
		v.Size.Height = 0
	}
	return v
}

// Scale returns the effective pixel ratio.
func (v Viewport) Scale() float64 {
	return v.normalized().Ratio
}

// Empty reports whether the viewport has no drawable area.
func (v Viewport) Empty() bool {
	return v.Size.Width <= 0 || v.Size.Height <= 0
}

// DeviceSize returns the backing store dimensions in whole device pixels,
// never smaller than 1x1.
func (v Viewport) DeviceSize() (int, int) {
	v = v.normalized()
	w := int(math.Max(1, math.Round(v.Size.Width*v.Ratio)))
	h := int(math.Max(1, math.Round(v.Size.Height*v.Ratio)))
	return w, h
}

// ToPixel maps a normalized point onto device pixels.
func (v Viewport) ToPixel(p Point) Pixel {
	v = v.normalized()
	return Pixel{
		X: p.X * v.Size.Width * v.Ratio,
		Y: p.Y * v.Size.Height * v.Ratio,
	}
}

// ToPoint maps device pixels back to a normalized point, clamped to [0,1].
func (v Viewport) ToPoint(px Pixel) Point {
	v = v.normalized()
	if v.Empty() {
		return Point{}
	}
	return Point{
		X: px.X / (v.Size.Width * v.Ratio),
		Y: px.Y / (v.Size.Height * v.Ratio),
	}.Clamp()
}

// Clamp01 limits v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp returns p with both coordinates limited to [0,1].
func (p Point) Clamp() Point {
	return Point{X: Clamp01(p.X), Y: Clamp01(p.Y)}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Valid reports whether p is finite and inside the unit square.
func (p Point) Valid() bool {
	return inUnit(p.X) && inUnit(p.Y)
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}

// Rect is an axis-aligned box in device pixels.
type Rect struct {
	Min Pixel
	Max Pixel
}

// Contains reports whether px lies inside r, edges included.
func (r Rect) Contains(px Pixel) bool {
	return px.X >= r.Min.X && px.X <= r.Max.X &&
		px.Y >= r.Min.Y && px.Y <= r.Max.Y
}
