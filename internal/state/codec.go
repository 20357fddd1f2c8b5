package state

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"ClassBoard/internal/geom"
)

// Encode produces the wire form of ev: the variant's fields plus a "type" tag.
func Encode(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case Draw:
		if e.Points == nil {
			e.Points = []geom.Point{}
		}
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Draw
		}{KindDraw, e})
	case Erase:
		if e.Points == nil {
			e.Points = []geom.Point{}
		}
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Erase
		}{KindErase, e})
	case Text:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			Text
		}{KindText, e})
	case TextMove:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			TextMove
		}{KindTextMove, e})
	case TextDelete:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			TextDelete
		}{KindTextDelete, e})
	case Clear:
		return json.Marshal(struct {
			Type Kind `json:"type"`
		}{KindClear})
	}
	return nil, fmt.Errorf("%w: unsupported event %T", ErrInvalidEvent, ev)
}

// wireEvent mirrors every field any variant may carry. Pointers tell a
// missing field from a zero value; a field of the wrong JSON type fails
// unmarshalling outright.
type wireEvent struct {
	Type     *string       `json:"type"`
	StrokeID *string       `json:"strokeId"`
	ID       *string       `json:"id"`
	Color    *string       `json:"color"`
	Size     *float64      `json:"size"`
	Points   *[]*wirePoint `json:"points"`
	IsEnd    *bool         `json:"isEnd"`
	X        *float64      `json:"x"`
	Y        *float64      `json:"y"`
	Text     *string       `json:"text"`
}

type wirePoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

var (
	eventKeys = []string{"type", "strokeId", "id", "color", "size", "points", "isEnd", "x", "y", "text"}
	pointKeys = []string{"x", "y"}
)

func (p *wirePoint) UnmarshalJSON(data []byte) error {
	if err := checkKeys(data, pointKeys); err != nil {
		return err
	}
	type plain wirePoint
	return json.Unmarshal(data, (*plain)(p))
}

// checkKeys rejects an object carrying a field name that differs from a
// wire key only by case. encoding/json would otherwise fold it onto the
// wire key. Unrelated keys are left alone.
func checkKeys(data []byte, known []string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		for _, want := range known {
			if key != want && strings.EqualFold(key, want) {
				return fmt.Errorf("field %q must be spelled %q", key, want)
			}
		}
	}
	return nil
}

// Decode validates an untrusted payload and returns the event it describes.
// Every failure wraps ErrInvalidEvent.
func Decode(data []byte) (Event, error) {
	if err := checkKeys(data, eventKeys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if w.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidEvent)
	}

	switch Kind(*w.Type) {
	case KindClear:
		return Clear{}, nil

	case KindTextDelete:
		id, err := requireID(w.ID, "id")
		if err != nil {
			return nil, err
		}
		return TextDelete{ID: id}, nil

	case KindTextMove:
		id, err := requireID(w.ID, "id")
		if err != nil {
			return nil, err
		}
		p, err := requirePoint(w.X, w.Y)
		if err != nil {
			return nil, err
		}
		return TextMove{ID: id, X: p.X, Y: p.Y}, nil

	case KindText:
		id, err := requireID(w.ID, "id")
		if err != nil {
			return nil, err
		}
		p, err := requirePoint(w.X, w.Y)
		if err != nil {
			return nil, err
		}
		if w.Text == nil || w.Color == nil {
			return nil, fmt.Errorf("%w: text requires text and color", ErrInvalidEvent)
		}
		size, err := requireSize(w.Size)
		if err != nil {
			return nil, err
		}
		return Text{ID: id, X: p.X, Y: p.Y, Text: *w.Text, Color: *w.Color, Size: ClampTextSize(size)}, nil

	case KindDraw, KindErase:
		id, err := requireID(w.StrokeID, "strokeId")
		if err != nil {
			return nil, err
		}
		size, err := requireSize(w.Size)
		if err != nil {
			return nil, err
		}
		points, err := requirePoints(w.Points)
		if err != nil {
			return nil, err
		}
		end := w.IsEnd != nil && *w.IsEnd
		if Kind(*w.Type) == KindErase {
			return Erase{StrokeID: id, Size: ClampStrokeSize(size), Points: points, IsEnd: end}, nil
		}
		if w.Color == nil {
			return nil, fmt.Errorf("%w: draw requires color", ErrInvalidEvent)
		}
		return Draw{StrokeID: id, Color: *w.Color, Size: ClampStrokeSize(size), Points: points, IsEnd: end}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, *w.Type)
}

func requireID(v *string, field string) (string, error) {
	if v == nil || *v == "" {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidEvent, field)
	}
	return *v, nil
}

func requireSize(v *float64) (float64, error) {
	if v == nil || math.IsInf(*v, 0) || math.IsNaN(*v) {
		return 0, fmt.Errorf("%w: missing size", ErrInvalidEvent)
	}
	return *v, nil
}

func requirePoint(x, y *float64) (geom.Point, error) {
	if x == nil || y == nil {
		return geom.Point{}, fmt.Errorf("%w: missing coordinates", ErrInvalidEvent)
	}
	p := geom.Point{X: *x, Y: *y}
	if !p.Valid() {
		return geom.Point{}, fmt.Errorf("%w: point (%v,%v) outside unit square", ErrInvalidEvent, p.X, p.Y)
	}
	return p, nil
}

func requirePoints(v *[]*wirePoint) ([]geom.Point, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing points", ErrInvalidEvent)
	}
	points := make([]geom.Point, 0, len(*v))
	for i, wp := range *v {
		if wp == nil {
			return nil, fmt.Errorf("%w: point %d is null", ErrInvalidEvent, i)
		}
		p, err := requirePoint(wp.X, wp.Y)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
