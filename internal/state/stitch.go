package state

import "ClassBoard/internal/geom"

// Stitcher remembers the tail of every open stroke so that consecutive
// segments paint as one continuous line.
type Stitcher struct {
	last map[string]geom.Point
}

// NewStitcher returns an empty stitcher.
func NewStitcher() *Stitcher {
	return &Stitcher{last: make(map[string]geom.Point)}
}

// Advance returns where s should start (nil when it starts fresh) and
// records s's final point as the new tail. A terminal segment releases the
// stroke.
func (st *Stitcher) Advance(s Segment) *geom.Point {
	var from *geom.Point
	if prev, ok := st.last[s.StrokeID]; ok {
		from = &prev
	}
	if tail, ok := s.Last(); ok {
		st.last[s.StrokeID] = tail
	}
	if s.IsEnd {
		delete(st.last, s.StrokeID)
	}
	return from
}

// Open returns the number of strokes with a remembered tail.
func (st *Stitcher) Open() int {
	return len(st.last)
}

// Reset forgets every tail.
func (st *Stitcher) Reset() {
	st.last = make(map[string]geom.Point)
}
