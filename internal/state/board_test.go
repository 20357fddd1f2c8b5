package state

import (
	"testing"

	"ClassBoard/internal/geom"

	. "github.com/smartystreets/goconvey/convey"
)

func pts(xy ...float64) []geom.Point {
	out := make([]geom.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, geom.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestBoardStrokes(t *testing.T) {
	Convey("Given an empty board", t, func() {
		b := NewBoard()

		Convey("When two segments of the same stroke arrive", func() {
			first := b.Apply(Draw{StrokeID: "s1", Color: "#fff", Size: 4, Points: pts(0.1, 0.1)})
			second := b.Apply(Draw{StrokeID: "s1", Color: "#fff", Size: 4, Points: pts(0.2, 0.2, 0.3, 0.3)})

			Convey("Then the first starts fresh and the second is stitched to its tail", func() {
				So(first.From, ShouldBeNil)
				So(second.From, ShouldNotBeNil)
				So(*second.From, ShouldResemble, geom.Point{X: 0.1, Y: 0.1})
				So(b.OpenStrokes(), ShouldEqual, 1)
				So(b.Len(), ShouldEqual, 2)
			})

			Convey("And a terminal empty segment releases the stroke but is still logged", func() {
				end := b.Apply(Draw{StrokeID: "s1", Color: "#fff", Size: 4, Points: pts(), IsEnd: true})
				So(end.Ignored, ShouldBeFalse)
				So(b.OpenStrokes(), ShouldEqual, 0)
				So(b.Len(), ShouldEqual, 3)

				Convey("And later segments of the closed stroke are ignored", func() {
					late := b.Apply(Draw{StrokeID: "s1", Color: "#fff", Size: 4, Points: pts(0.9, 0.9)})
					So(late.Ignored, ShouldBeTrue)
					So(b.Len(), ShouldEqual, 3)
				})
			})
		})

		Convey("When erase segments interleave with draw segments of another stroke", func() {
			b.Apply(Draw{StrokeID: "a", Color: "#000", Size: 2, Points: pts(0.1, 0.1)})
			e := b.Apply(Erase{StrokeID: "b", Size: 6, Points: pts(0.5, 0.5)})
			d := b.Apply(Draw{StrokeID: "a", Color: "#000", Size: 2, Points: pts(0.2, 0.2)})

			Convey("Then each stroke stitches independently", func() {
				So(e.From, ShouldBeNil)
				So(e.Segment.Mode, ShouldEqual, ModeErase)
				So(*d.From, ShouldResemble, geom.Point{X: 0.1, Y: 0.1})
			})
		})
	})
}

func TestBoardClear(t *testing.T) {
	Convey("Given a board with strokes and text", t, func() {
		b := NewBoard()
		b.Apply(Draw{StrokeID: "s1", Color: "#fff", Size: 4, Points: pts(0.1, 0.1)})
		b.Apply(Text{ID: "t1", X: 0.5, Y: 0.5, Text: "Hi", Color: "#fff", Size: 14})

		Convey("When Clear is applied twice", func() {
			c1 := b.Apply(Clear{})
			c2 := b.Apply(Clear{})

			Convey("Then everything is empty and nothing fails", func() {
				So(c1.Kind, ShouldEqual, KindClear)
				So(c2.Kind, ShouldEqual, KindClear)
				So(b.Len(), ShouldEqual, 0)
				So(b.TextItems(), ShouldBeEmpty)
				So(b.OpenStrokes(), ShouldEqual, 0)
			})

			Convey("And a late segment of a pre-clear stroke is not resurrected", func() {
				late := b.Apply(Draw{StrokeID: "s1", Color: "#fff", Size: 4, Points: pts(0.4, 0.4)})
				So(late.Ignored, ShouldBeTrue)
				So(b.Len(), ShouldEqual, 0)
				So(b.Record(Draw{StrokeID: "s1", Color: "#fff", Size: 4, Points: pts(0.4, 0.4)}), ShouldBeFalse)
			})

			Convey("And fresh strokes still work", func() {
				fresh := b.Apply(Draw{StrokeID: "s2", Color: "#fff", Size: 4, Points: pts(0.4, 0.4)})
				So(fresh.Ignored, ShouldBeFalse)
				So(b.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestBoardRetiredStrokes(t *testing.T) {
	Convey("Given a board with one closed and one open stroke", t, func() {
		b := NewBoard()
		b.Apply(Draw{StrokeID: "done", Color: "#fff", Size: 4, Points: pts(0.1, 0.1), IsEnd: true})
		b.Apply(Draw{StrokeID: "live", Color: "#fff", Size: 4, Points: pts(0.2, 0.2)})
		So(b.Retired(), ShouldEqual, 1)

		Convey("When Clear is applied", func() {
			b.Apply(Clear{})

			Convey("Then only the open stroke is held back", func() {
				So(b.Retired(), ShouldEqual, 1)
			})

			Convey("And the open stroke stays ignored until its terminal segment", func() {
				mid := b.Apply(Draw{StrokeID: "live", Color: "#fff", Size: 4, Points: pts(0.3, 0.3)})
				So(mid.Ignored, ShouldBeTrue)
				So(b.Retired(), ShouldEqual, 1)

				end := b.Apply(Draw{StrokeID: "live", Color: "#fff", Size: 4, Points: pts(), IsEnd: true})
				So(end.Ignored, ShouldBeTrue)
				So(b.Len(), ShouldEqual, 0)
				So(b.Retired(), ShouldEqual, 0)
			})

			Convey("And a local terminal segment releases its entry too", func() {
				So(b.Record(Draw{StrokeID: "live", Color: "#fff", Size: 4, Points: pts(), IsEnd: true}), ShouldBeFalse)
				So(b.Retired(), ShouldEqual, 0)
			})
		})

		Convey("When many strokes are drawn and cleared", func() {
			for i := 0; i < 100; i++ {
				id := string(rune('a'+i%26)) + string(rune('a'+i/26))
				b.Apply(Draw{StrokeID: id, Color: "#fff", Size: 4, Points: pts(0.5, 0.5), IsEnd: true})
				if i%10 == 9 {
					b.Apply(Clear{})
				}
			}

			Convey("Then the retired set does not grow with them", func() {
				So(b.Retired(), ShouldEqual, 1)
			})
		})
	})
}

func TestBoardText(t *testing.T) {
	Convey("Given a text item", t, func() {
		b := NewBoard()
		created := b.Apply(Text{ID: "t1", X: 0.5, Y: 0.5, Text: "Hi", Color: "#fff", Size: 14})

		Convey("Then it is created, not replaced", func() {
			So(created.Replaced, ShouldBeFalse)
			So(b.TextItems(), ShouldHaveLength, 1)
		})

		Convey("When it is moved", func() {
			moved := b.Apply(TextMove{ID: "t1", X: 0.6, Y: 0.5})

			Convey("Then only the position changes", func() {
				So(moved.Missing, ShouldBeFalse)
				item, ok := b.Text("t1")
				So(ok, ShouldBeTrue)
				So(item, ShouldResemble, TextItem{ID: "t1", X: 0.6, Y: 0.5, Text: "Hi", Color: "#fff", Size: 14})
			})

			Convey("And deleting it twice removes it once", func() {
				first := b.Apply(TextDelete{ID: "t1"})
				second := b.Apply(TextDelete{ID: "t1"})
				So(first.Missing, ShouldBeFalse)
				So(second.Missing, ShouldBeTrue)
				So(b.TextItems(), ShouldBeEmpty)
				So(b.Len(), ShouldEqual, 4)
			})
		})

		Convey("When it is re-edited", func() {
			b.Apply(Text{ID: "t2", X: 0.1, Y: 0.1, Text: "Other", Color: "#fff", Size: 14})
			edited := b.Apply(Text{ID: "t1", X: 0.5, Y: 0.5, Text: "Hello", Color: "#f00", Size: 20})

			Convey("Then the last applied write wins and z-order is kept", func() {
				So(edited.Replaced, ShouldBeTrue)
				items := b.TextItems()
				So(items, ShouldHaveLength, 2)
				So(items[0].ID, ShouldEqual, "t1")
				So(items[0].Text, ShouldEqual, "Hello")
			})
		})

		Convey("When an unknown item is moved", func() {
			c := b.Apply(TextMove{ID: "nope", X: 0.1, Y: 0.1})

			Convey("Then it is a logged no-op", func() {
				So(c.Missing, ShouldBeTrue)
				So(b.TextItems(), ShouldHaveLength, 1)
				So(b.Len(), ShouldEqual, 2)
			})
		})

		Convey("When it is nudged during a drag", func() {
			So(b.Nudge("t1", geom.Point{X: 0.2, Y: 0.3}), ShouldBeTrue)
			So(b.Nudge("nope", geom.Point{}), ShouldBeFalse)

			Convey("Then the item moves without a log entry", func() {
				item, _ := b.Text("t1")
				So(item.X, ShouldEqual, 0.2)
				So(b.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestBoardSnapshotsAreCopies(t *testing.T) {
	Convey("Given a board snapshot", t, func() {
		b := NewBoard()
		b.Apply(Text{ID: "t1", X: 0.5, Y: 0.5, Text: "Hi", Color: "#fff", Size: 14})
		items := b.TextItems()
		items[0].Text = "mutated"

		Convey("Then mutating it does not touch the board", func() {
			item, _ := b.Text("t1")
			So(item.Text, ShouldEqual, "Hi")
		})
	})
}
