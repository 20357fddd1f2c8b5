package state

import (
	"errors"
	"testing"

	"ClassBoard/internal/geom"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDecodeAccepts(t *testing.T) {
	Convey("Given well-formed payloads", t, func() {
		Convey("Then a draw segment decodes with its points", func() {
			ev, err := Decode([]byte(`{"type":"draw","strokeId":"s1","color":"#ef4444","size":4,"points":[{"x":0.1,"y":0.2}],"isEnd":true}`))
			So(err, ShouldBeNil)
			So(ev, ShouldResemble, Draw{StrokeID: "s1", Color: "#ef4444", Size: 4, Points: []geom.Point{{X: 0.1, Y: 0.2}}, IsEnd: true})
		})

		Convey("Then an erase with an empty point list is a valid terminal event", func() {
			ev, err := Decode([]byte(`{"type":"erase","strokeId":"s1","size":4,"points":[],"isEnd":true}`))
			So(err, ShouldBeNil)
			So(ev.(Erase).Points, ShouldBeEmpty)
		})

		Convey("Then stroke sizes are clamped", func() {
			ev, err := Decode([]byte(`{"type":"draw","strokeId":"s1","color":"#fff","size":400,"points":[]}`))
			So(err, ShouldBeNil)
			So(ev.(Draw).Size, ShouldEqual, MaxStrokeSize)
		})

		Convey("Then text, moves, deletes and clear decode", func() {
			ev, err := Decode([]byte(`{"type":"text","id":"t1","x":0.5,"y":0.5,"text":"Hi","color":"#fff","size":14}`))
			So(err, ShouldBeNil)
			So(ev, ShouldResemble, Text{ID: "t1", X: 0.5, Y: 0.5, Text: "Hi", Color: "#fff", Size: 14})

			ev, err = Decode([]byte(`{"type":"text_move","id":"t1","x":0.6,"y":0.5}`))
			So(err, ShouldBeNil)
			So(ev, ShouldResemble, TextMove{ID: "t1", X: 0.6, Y: 0.5})

			ev, err = Decode([]byte(`{"type":"text_delete","id":"t1"}`))
			So(err, ShouldBeNil)
			So(ev, ShouldResemble, TextDelete{ID: "t1"})

			ev, err = Decode([]byte(`{"type":"clear"}`))
			So(err, ShouldBeNil)
			So(ev.Kind(), ShouldEqual, KindClear)
		})

		Convey("Then fields the board does not use are ignored", func() {
			ev, err := Decode([]byte(`{"type":"clear","sender":"site-1"}`))
			So(err, ShouldBeNil)
			So(ev.Kind(), ShouldEqual, KindClear)
		})
	})
}

func TestDecodeRejects(t *testing.T) {
	Convey("Given malformed payloads", t, func() {
		bad := []string{
			`not json`,
			`[]`,
			`42`,
			`{}`,
			`{"type":"scribble"}`,
			`{"type":5}`,
			`{"type":"draw","strokeId":"s1","size":4,"points":[]}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":"big","points":[]}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":4}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":4,"points":[{"x":0.1}]}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":4,"points":[null]}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":4,"points":[1,2]}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":4,"points":[{"x":1.5,"y":0}]}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":4,"points":[],"isEnd":"yes"}`,
			`{"type":"erase","strokeId":7,"size":4,"points":[]}`,
			`{"type":"text","id":"t1","x":0.5,"y":0.5,"color":"#fff","size":14}`,
			`{"type":"text","id":"t1","x":0.5,"text":"Hi","color":"#fff","size":14}`,
			`{"type":"text_move","id":"t1","x":"0.5","y":0.5}`,
			`{"type":"text_delete"}`,
			`{"type":"text_delete","id":""}`,
			`{"TYPE":"clear"}`,
			`{"Type":"draw","STROKEID":"s1","Color":"#fff","SIZE":4,"POINTS":[{"X":0.1,"Y":0.2}]}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":4,"points":[],"IsEnd":true}`,
			`{"type":"draw","strokeId":"s1","color":"#fff","size":4,"points":[{"X":0.1,"y":0.2}]}`,
			`{"type":"text","id":"t1","x":0.5,"y":0.5,"Text":"Hi","color":"#fff","size":14}`,
		}

		Convey("Then every one is rejected with ErrInvalidEvent", func() {
			for _, payload := range bad {
				ev, err := Decode([]byte(payload))
				So(ev, ShouldBeNil)
				So(errors.Is(err, ErrInvalidEvent), ShouldBeTrue)
			}
		})
	})
}

func TestEncode(t *testing.T) {
	Convey("Given events built locally", t, func() {
		Convey("When encoding a draw without points", func() {
			data, err := Encode(Draw{StrokeID: "s1", Color: "#fff", Size: 4, IsEnd: true})

			Convey("Then the wire form carries the tag and an empty array", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"type":"draw","strokeId":"s1","color":"#fff","size":4,"points":[],"isEnd":true}`)
			})
		})

		Convey("When encoding a non-terminal erase", func() {
			data, err := Encode(Erase{StrokeID: "s1", Size: 4, Points: []geom.Point{{X: 0.5, Y: 0.5}}})

			Convey("Then isEnd is omitted", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"type":"erase","strokeId":"s1","size":4,"points":[{"x":0.5,"y":0.5}]}`)
			})
		})

		Convey("When encoding every other variant", func() {
			for _, ev := range []Event{
				Text{ID: "t1", X: 0.5, Y: 0.5, Text: "Hi", Color: "#fff", Size: 14},
				TextMove{ID: "t1", X: 0.1, Y: 0.2},
				TextDelete{ID: "t1"},
				Clear{},
			} {
				data, err := Encode(ev)
				So(err, ShouldBeNil)

				Convey("Then the decoder reads back the same event: "+string(ev.Kind()), func() {
					back, err := Decode(data)
					So(err, ShouldBeNil)
					So(back, ShouldResemble, ev)
				})
			}
		})
	})
}
