package capture

import (
	"time"

	"ClassBoard/pkg/logger"
)

// Defaults for stroke batching and drag throttling.
const (
	DefaultBatchSize     = 6
	DefaultFlushInterval = 48 * time.Millisecond
	DefaultDragInterval  = 60 * time.Millisecond
)

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize flushes a stroke once this many points are pending.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithFlushInterval flushes a stroke once this much time passed since the last send.
func WithFlushInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.flushInterval = d
		}
	}
}

// WithDragInterval throttles TextMove events while dragging.
func WithDragInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.dragInterval = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDs overrides stroke and text id generation.
func WithIDs(next func() string) Option {
	return func(e *Engine) {
		if next != nil {
			e.newID = next
		}
	}
}

// WithColor sets the initial color.
func WithColor(c string) Option {
	return func(e *Engine) {
		if c != "" {
			e.color = c
		}
	}
}

// WithSize sets the initial stroke size.
func WithSize(size float64) Option {
	return func(e *Engine) {
		e.size = size
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
