package whiteboard

import (
	"time"

	"ClassBoard/internal/capture"
	"ClassBoard/internal/geom"
	"ClassBoard/internal/render"
	"ClassBoard/pkg/logger"
)

// Option configures a Whiteboard.
type Option func(*Whiteboard)

// WithChannel connects the whiteboard to a transport topic.
func WithChannel(ch Channel, topic string) Option {
	return func(w *Whiteboard) {
		w.channel = ch
		if topic != "" {
			w.topic = topic
		}
	}
}

// WithViewport sets the initial viewport.
func WithViewport(v geom.Viewport) Option {
	return func(w *Whiteboard) {
		w.viewport = v
	}
}

// WithFrameInterval sets the delay of coalesced repaints.
func WithFrameInterval(d time.Duration) Option {
	return func(w *Whiteboard) {
		w.frameInterval = d
	}
}

// WithScheduler replaces the frame scheduler. A replacement is responsible
// for serializing the work it runs, e.g. by calling back through Locked.
func WithScheduler(s render.Scheduler) Option {
	return func(w *Whiteboard) {
		w.scheduler = s
	}
}

// WithCapture passes options to the capture engine.
func WithCapture(opts ...capture.Option) Option {
	return func(w *Whiteboard) {
		w.captureOpts = append(w.captureOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Whiteboard) {
		if l != nil {
			w.logger = l
		}
	}
}
