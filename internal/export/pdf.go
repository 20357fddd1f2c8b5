// Package export writes snapshots of a board to files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"time"

	"ClassBoard/internal/geom"
	"ClassBoard/internal/raster"
	"ClassBoard/internal/render"
	"ClassBoard/pkg/logger"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin = 10.0 // mm
	imageName  = "board"
)

// Source replays a board onto a surface.
type Source interface {
	RenderTo(surface render.Surface, v geom.Viewport)
}

// Option configures an export.
type Option func(*exporter)

type exporter struct {
	background  color.Color
	orientation string
	title       string
	logger      logger.Logger
}

// WithBackground sets the color under both layers.
func WithBackground(c color.Color) Option {
	return func(e *exporter) {
		e.background = c
	}
}

// WithPortrait lays the page out in portrait instead of landscape.
func WithPortrait() Option {
	return func(e *exporter) {
		e.orientation = "P"
	}
}

// WithTitle sets the PDF document title.
func WithTitle(title string) Option {
	return func(e *exporter) {
		e.title = title
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

func newExporter(opts []Option) *exporter {
	e := &exporter{
		background:  raster.DefaultBackground,
		orientation: "L",
		title:       "ClassBoard",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Named("export")
	}
	return e
}

// FileName returns the default export path inside dir for time t.
func FileName(dir string, t time.Time) string {
	return filepath.Join(dir, "classboard-"+t.Format("20060102-150405")+".pdf")
}

// PNG replays src at v and encodes the flattened picture to w.
func PNG(w io.Writer, src Source, v geom.Viewport, opts ...Option) error {
	if v.Empty() {
		return ErrEmptyViewport
	}
	e := newExporter(opts)
	surface := raster.NewSurface(1, 1)
	src.RenderTo(surface, v)
	if err := png.Encode(w, surface.Composite(e.background)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// PDF writes a single-page PDF holding the board replayed at v, scaled to
// fit an A4 page.
func PDF(path string, src Source, v geom.Viewport, opts ...Option) error {
	if v.Empty() {
		return ErrEmptyViewport
	}
	e := newExporter(opts)

	var buf bytes.Buffer
	if err := PNG(&buf, src, v, opts...); err != nil {
		return err
	}

	pdf := gofpdf.New(e.orientation, "mm", "A4", "")
	pdf.SetTitle(e.title, true)
	pdf.SetCreator("ClassBoard", true)
	pdf.AddPage()

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imageName, imgOpts, &buf)

	pageW, pageH := pdf.GetPageSize()
	x, y, w, h := fit(v.Size.Width, v.Size.Height, pageW-2*pageMargin, pageH-2*pageMargin)
	pdf.ImageOptions(imageName, pageMargin+x, pageMargin+y, w, h, false, imgOpts, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	e.logger.Info(context.Background(), "board exported",
		logger.String("path", path),
		logger.Float64("width", v.Size.Width),
		logger.Float64("height", v.Size.Height),
	)
	return nil
}

// fit scales a w x h box into the available area keeping its aspect ratio,
// centered. It returns the offset and scaled size.
func fit(w, h, availW, availH float64) (x, y, fw, fh float64) {
	scale := min(availW/w, availH/h)
	fw, fh = w*scale, h*scale
	return (availW - fw) / 2, (availH - fh) / 2, fw, fh
}
