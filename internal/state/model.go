package state

import "ClassBoard/internal/geom"

// Kind is the wire tag of a whiteboard event.
type Kind string

const (
	KindDraw       Kind = "draw"
	KindErase      Kind = "erase"
	KindText       Kind = "text"
	KindTextMove   Kind = "text_move"
	KindTextDelete Kind = "text_delete"
	KindClear      Kind = "clear"
)

// Size limits. Strokes follow the toolbar slider; text covers the editor range.
const (
	MinStrokeSize = 2.0
	MaxStrokeSize = 12.0
	MinTextSize   = 8.0
	MaxTextSize   = 96.0
)

// Event is one whiteboard operation. The set of implementations is closed:
// Draw, Erase, Text, TextMove, TextDelete and Clear.
type Event interface {
	Kind() Kind
	event()
}

// Draw appends points to an additive stroke.
type Draw struct {
	StrokeID string       `json:"strokeId"`
	Color    string       `json:"color"`
	Size     float64      `json:"size"`
	Points   []geom.Point `json:"points"`
	IsEnd    bool         `json:"isEnd,omitempty"`
}

// Erase appends points to a destructive stroke.
type Erase struct {
	StrokeID string       `json:"strokeId"`
	Size     float64      `json:"size"`
	Points   []geom.Point `json:"points"`
	IsEnd    bool         `json:"isEnd,omitempty"`
}

// Text creates or replaces a text item.
type Text struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// TextMove repositions an existing text item.
type TextMove struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// TextDelete removes a text item.
type TextDelete struct {
	ID string `json:"id"`
}

// Clear wipes all state.
type Clear struct{}

func (Draw) Kind() Kind       { return KindDraw }
func (Erase) Kind() Kind      { return KindErase }
func (Text) Kind() Kind       { return KindText }
func (TextMove) Kind() Kind   { return KindTextMove }
func (TextDelete) Kind() Kind { return KindTextDelete }
func (Clear) Kind() Kind      { return KindClear }

func (Draw) event()       {}
func (Erase) event()      {}
func (Text) event()       {}
func (TextMove) event()   {}
func (TextDelete) event() {}
func (Clear) event()      {}

// Mode tells additive strokes from destructive ones.
type Mode int

const (
	ModeDraw Mode = iota
	ModeErase
)

func (m Mode) String() string {
	if m == ModeErase {
		return "erase"
	}
	return "draw"
}

// Segment is the shared view of Draw and Erase events.
type Segment struct {
	Mode     Mode
	StrokeID string
	Color    string
	Size     float64
	Points   []geom.Point
	IsEnd    bool
}

// SegmentOf returns the stroke view of ev, or false for non-stroke events.
func SegmentOf(ev Event) (Segment, bool) {
	switch e := ev.(type) {
	case Draw:
		return Segment{Mode: ModeDraw, StrokeID: e.StrokeID, Color: e.Color, Size: e.Size, Points: e.Points, IsEnd: e.IsEnd}, true
	case Erase:
		return Segment{Mode: ModeErase, StrokeID: e.StrokeID, Size: e.Size, Points: e.Points, IsEnd: e.IsEnd}, true
	}
	return Segment{}, false
}

// Event converts the segment back into a Draw or Erase.
func (s Segment) Event() Event {
	points := s.Points
	if points == nil {
		points = []geom.Point{}
	}
	if s.Mode == ModeErase {
		return Erase{StrokeID: s.StrokeID, Size: s.Size, Points: points, IsEnd: s.IsEnd}
	}
	return Draw{StrokeID: s.StrokeID, Color: s.Color, Size: s.Size, Points: points, IsEnd: s.IsEnd}
}

// Last returns the final point of the segment.
func (s Segment) Last() (geom.Point, bool) {
	if len(s.Points) == 0 {
		return geom.Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// TextItem is a text entry currently on the board.
type TextItem struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// Position returns the item's normalized top-left corner.
func (t TextItem) Position() geom.Point {
	return geom.Point{X: t.X, Y: t.Y}
}

func itemOf(t Text) TextItem {
	return TextItem{ID: t.ID, X: t.X, Y: t.Y, Text: t.Text, Color: t.Color, Size: t.Size}
}

// ClampStrokeSize limits a stroke weight to the supported range.
func ClampStrokeSize(v float64) float64 {
	return clamp(v, MinStrokeSize, MaxStrokeSize)
}

// ClampTextSize limits a font size to the supported range.
func ClampTextSize(v float64) float64 {
	return clamp(v, MinTextSize, MaxTextSize)
}

func clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
