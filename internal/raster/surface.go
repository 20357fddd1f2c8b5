// Package raster implements render.Surface on in-memory images using the
// rasterx scanline stroker and the Go fonts.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"ClassBoard/internal/geom"
	"ClassBoard/internal/render"
	"ClassBoard/internal/state"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultBackground is the board color behind both layers.
var DefaultBackground = color.NRGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}

var regular *opentype.Font

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	regular = f
}

// Surface holds the stroke and text layers as separate RGBA images. Erasing
// only scales down stroke coverage; text is never touched by it.
type Surface struct {
	mu sync.Mutex

	strokes *image.RGBA
	text    *image.RGBA

	ink   *pen
	cut   *pen
	mask  []uint8
	faces map[float64]font.Face
}

// pen is a rasterx stroker and filler sharing one scanner. The scanner is
// resized to the area of each segment, so a stroke costs what it covers.
type pen struct {
	scan *rasterx.ScannerGV
	line *rasterx.Stroker
	dot  *rasterx.Filler
}

func newPen() *pen {
	scan := rasterx.NewScannerGV(1, 1, image.NewAlpha(image.Rect(0, 0, 1, 1)), image.Rect(0, 0, 1, 1))
	return &pen{
		scan: scan,
		line: rasterx.NewStroker(1, 1, scan),
		dot:  rasterx.NewFiller(1, 1, scan),
	}
}

// NewSurface allocates a width x height surface.
func NewSurface(width, height int) *Surface {
	s := &Surface{
		ink:   newPen(),
		cut:   newPen(),
		faces: make(map[float64]font.Face),
	}
	s.Resize(width, height)
	return s
}

// Resize reallocates both layers. Previous content is discarded.
func (s *Surface) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bounds := image.Rect(0, 0, width, height)
	s.strokes = image.NewRGBA(bounds)
	s.text = image.NewRGBA(bounds)
}

// Bounds returns the device pixel bounds.
func (s *Surface) Bounds() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strokes.Bounds()
}

// PaintSegment strokes points with round caps and joins. Draw mode adds
// color to the stroke layer; erase mode removes coverage from it. Only the
// pixels within reach of the segment are rasterized.
func (s *Surface) PaintSegment(points []geom.Pixel, style render.SegmentStyle) {
	if len(points) == 0 || style.Width <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	area := reach(points, style.Width).Intersect(s.strokes.Bounds())
	if area.Empty() {
		return
	}
	local := make([]geom.Pixel, len(points))
	for i, p := range points {
		local[i] = geom.Pixel{X: p.X - float64(area.Min.X), Y: p.Y - float64(area.Min.Y)}
	}

	if style.Mode == state.ModeErase {
		mask := s.scratch(area.Dx(), area.Dy())
		s.cut.trace(mask, local, style.Width, color.Opaque)
		s.punch(mask, area)
		return
	}
	s.ink.trace(s.strokes.SubImage(area).(*image.RGBA), local, style.Width, style.Color)
}

// reach returns the pixel rectangle a stroke of width through points can
// touch, with room for antialiasing.
func reach(points []geom.Pixel, width float64) image.Rectangle {
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	pad := width/2 + 2
	return image.Rect(
		int(math.Floor(minX-pad)), int(math.Floor(minY-pad)),
		int(math.Ceil(maxX+pad)), int(math.Ceil(maxY+pad)),
	)
}

// scratch returns a cleared w x h mask backed by a reused buffer.
func (s *Surface) scratch(w, h int) *image.Alpha {
	n := w * h
	if cap(s.mask) < n {
		s.mask = make([]uint8, n)
	}
	pix := s.mask[:n]
	clear(pix)
	return &image.Alpha{Pix: pix, Stride: w, Rect: image.Rect(0, 0, w, h)}
}

// trace rasterizes a polyline onto dst, whose top-left pixel is the origin
// of points. A polyline with no length becomes a dot.
func (p *pen) trace(dst draw.Image, points []geom.Pixel, width float64, c color.Color) {
	b := dst.Bounds()
	p.scan.Dest = dst
	p.scan.Targ = b
	p.line.SetBounds(b.Dx(), b.Dy())

	if isDot(points) {
		p.dot.Clear()
		p.dot.SetColor(c)
		rasterx.AddCircle(points[0].X, points[0].Y, width/2, p.dot)
		p.dot.Draw()
		p.dot.Clear()
		return
	}
	st := p.line
	st.Clear()
	st.SetStroke(fixed.Int26_6(width*64), 4<<6, rasterx.RoundCap, nil, rasterx.RoundGap, rasterx.Round)
	st.SetColor(c)
	st.Start(rasterx.ToFixedP(points[0].X, points[0].Y))
	for _, pt := range points[1:] {
		st.Line(rasterx.ToFixedP(pt.X, pt.Y))
	}
	st.Stop(false)
	st.Draw()
	st.Clear()
}

func isDot(points []geom.Pixel) bool {
	for _, p := range points[1:] {
		if p != points[0] {
			return false
		}
	}
	return true
}

// punch scales the stroke pixels in area by the inverse of mask, whose
// origin is area.Min.
func (s *Surface) punch(mask *image.Alpha, area image.Rectangle) {
	for y := 0; y < area.Dy(); y++ {
		mrow := mask.Pix[y*mask.Stride:]
		srow := s.strokes.Pix[s.strokes.PixOffset(area.Min.X, area.Min.Y+y):]
		for x := 0; x < area.Dx(); x++ {
			m := uint32(mrow[x])
			if m == 0 {
				continue
			}
			keep := 0xff - m
			px := srow[x*4 : x*4+4]
			for i := range px {
				px[i] = uint8(uint32(px[i]) * keep / 0xff)
			}
		}
	}
}

// PaintGlyphs draws text with its top-left corner at at.
func (s *Surface) PaintGlyphs(text string, at geom.Pixel, style render.TextStyle) {
	if text == "" || style.Size <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	face := s.face(style.Size)
	ascent := face.Metrics().Ascent
	d := font.Drawer{
		Dst:  s.text,
		Src:  image.NewUniform(style.Color),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(at.X * 64),
			Y: fixed.Int26_6(at.Y*64) + ascent,
		},
	}
	d.DrawString(text)
}

// ClearSurface wipes one layer.
func (s *Surface) ClearSurface(layer render.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if layer == render.LayerText {
		clear(s.text.Pix)
		return
	}
	clear(s.strokes.Pix)
}

// MeasureText returns the advance width of text at size pixels.
func (s *Surface) MeasureText(text string, size float64) float64 {
	if text == "" || size <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(font.MeasureString(s.face(size), text)) / 64
}

func (s *Surface) face(size float64) font.Face {
	if f, ok := s.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(regular, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		panic(fmt.Sprintf("font face %.1f: %v", size, err))
	}
	s.faces[size] = f
	return f
}

// Composite flattens both layers over bg into a new image.
func (s *Surface) Composite(bg color.Color) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := image.NewRGBA(s.strokes.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), s.strokes, image.Point{}, draw.Over)
	draw.Draw(out, out.Bounds(), s.text, image.Point{}, draw.Over)
	return out
}

// StrokeAlpha returns the stroke layer coverage at (x, y).
func (s *Surface) StrokeAlpha(x, y int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strokes.RGBAAt(x, y).A
}

// TextAlpha returns the text layer coverage at (x, y).
func (s *Surface) TextAlpha(x, y int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.RGBAAt(x, y).A
}

var _ render.Surface = (*Surface)(nil)
