package render

import "time"

// DefaultFrameInterval approximates one display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler defers a repaint to a later tick.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Immediate runs work inline.
var Immediate = SchedulerFunc(func(fn func()) { fn() })

// FrameScheduler runs deferred work one frame interval later, through wrap
// so the owner can serialize it with its other callbacks.
type FrameScheduler struct {
	interval time.Duration
	wrap     func(func())
}

// NewFrameScheduler returns a scheduler firing after interval. A nil wrap
// runs the work directly on the timer goroutine.
func NewFrameScheduler(interval time.Duration, wrap func(func())) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if wrap == nil {
		wrap = func(fn func()) { fn() }
	}
	return &FrameScheduler{interval: interval, wrap: wrap}
}

// Schedule arms a one-shot timer for fn.
func (f *FrameScheduler) Schedule(fn func()) {
	time.AfterFunc(f.interval, func() { f.wrap(fn) })
}
