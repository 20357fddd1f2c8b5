package state

import "ClassBoard/internal/geom"

// Change describes what applying one event did, so the renderer can paint
// only the affected part of the board.
type Change struct {
	Kind Kind

	// Stroke events.
	Segment Segment
	From    *geom.Point

	// Item is the text item after a Text or TextMove.
	Item TextItem

	// Ignored is set when the event was dropped without being logged
	// (a segment of a closed or cleared stroke).
	Ignored bool
	// Replaced is set when a Text overwrote an existing item.
	Replaced bool
	// Missing is set when TextMove or TextDelete named an unknown id.
	Missing bool
}

// Board is the replicated whiteboard model: the applied event log, the text
// items in z-order, and per-stroke stitching state. It is not safe for
// concurrent use; the owner serializes access.
type Board struct {
	log    []Event
	texts  []TextItem
	stitch *Stitcher

	// closed holds strokes ended since the last Clear. wiped holds strokes
	// that were still open when a Clear arrived; each leaves on its isEnd.
	closed map[string]struct{}
	wiped  map[string]struct{}
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{
		stitch: NewStitcher(),
		closed: make(map[string]struct{}),
		wiped:  make(map[string]struct{}),
	}
}

// Apply applies one validated event, local or remote.
func (b *Board) Apply(ev Event) Change {
	change := Change{Kind: ev.Kind()}

	switch e := ev.(type) {
	case Draw, Erase:
		seg, _ := SegmentOf(e)
		change.Segment = seg
		if b.isRetired(seg) {
			change.Ignored = true
			return change
		}
		change.From = b.stitch.Advance(seg)
		if seg.IsEnd {
			b.retire(seg.StrokeID)
		}
		b.log = append(b.log, ev)

	case Text:
		item := itemOf(e)
		change.Item = item
		change.Replaced = b.upsert(item)
		b.log = append(b.log, ev)

	case TextMove:
		if i := b.indexOf(e.ID); i >= 0 {
			b.texts[i].X, b.texts[i].Y = e.X, e.Y
			change.Item = b.texts[i]
		} else {
			change.Missing = true
		}
		b.log = append(b.log, ev)

	case TextDelete:
		if i := b.indexOf(e.ID); i >= 0 {
			b.texts = append(b.texts[:i], b.texts[i+1:]...)
		} else {
			change.Missing = true
		}
		b.log = append(b.log, ev)

	case Clear:
		b.reset()
	}
	return change
}

// Record appends a locally painted stroke segment to the log. Local strokes
// are stitched by the capture engine, so the shared stitcher is left alone.
// It returns false when the stroke was retired by a Clear.
func (b *Board) Record(ev Event) bool {
	seg, ok := SegmentOf(ev)
	if !ok {
		b.Apply(ev)
		return true
	}
	if b.isRetired(seg) {
		return false
	}
	if seg.IsEnd {
		b.retire(seg.StrokeID)
	}
	b.log = append(b.log, ev)
	return true
}

// Nudge moves a text item without logging, for live drag feedback.
func (b *Board) Nudge(id string, p geom.Point) bool {
	i := b.indexOf(id)
	if i < 0 {
		return false
	}
	b.texts[i].X, b.texts[i].Y = p.X, p.Y
	return true
}

// Log returns a copy of the applied events in order.
func (b *Board) Log() []Event {
	out := make([]Event, len(b.log))
	copy(out, b.log)
	return out
}

// Len returns the number of logged events.
func (b *Board) Len() int {
	return len(b.log)
}

// TextItems returns a copy of the text items, bottom-most first.
func (b *Board) TextItems() []TextItem {
	out := make([]TextItem, len(b.texts))
	copy(out, b.texts)
	return out
}

// Text looks up a text item by id.
func (b *Board) Text(id string) (TextItem, bool) {
	if i := b.indexOf(id); i >= 0 {
		return b.texts[i], true
	}
	return TextItem{}, false
}

// OpenStrokes returns the number of remote strokes awaiting more segments.
func (b *Board) OpenStrokes() int {
	return b.stitch.Open()
}

func (b *Board) upsert(item TextItem) bool {
	if i := b.indexOf(item.ID); i >= 0 {
		b.texts[i] = item
		return true
	}
	b.texts = append(b.texts, item)
	return false
}

func (b *Board) indexOf(id string) int {
	for i := range b.texts {
		if b.texts[i].ID == id {
			return i
		}
	}
	return -1
}

// isRetired reports whether seg belongs to a closed or wiped stroke. The
// terminal segment of a wiped stroke releases its entry.
func (b *Board) isRetired(seg Segment) bool {
	if _, ok := b.closed[seg.StrokeID]; ok {
		return true
	}
	if _, ok := b.wiped[seg.StrokeID]; ok {
		if seg.IsEnd {
			delete(b.wiped, seg.StrokeID)
		}
		return true
	}
	return false
}

func (b *Board) retire(strokeID string) {
	b.closed[strokeID] = struct{}{}
}

// Retired returns the number of stroke ids the board is holding back.
func (b *Board) Retired() int {
	return len(b.closed) + len(b.wiped)
}

// reset wipes the board. Strokes still open are kept in wiped so that their
// late segments cannot bring them back. Closed strokes are forgotten: no
// segment follows an isEnd from the same sender.
func (b *Board) reset() {
	for _, ev := range b.log {
		if seg, ok := SegmentOf(ev); ok {
			if _, done := b.closed[seg.StrokeID]; !done {
				b.wiped[seg.StrokeID] = struct{}{}
			}
		}
	}
	clear(b.closed)
	b.log = nil
	b.texts = nil
	b.stitch.Reset()
}
