package whiteboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"ClassBoard/internal/capture"
	"ClassBoard/internal/geom"
	"ClassBoard/internal/net"
	"ClassBoard/internal/raster"
	"ClassBoard/internal/render"
	"ClassBoard/internal/state"
	"ClassBoard/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type participant struct {
	wb      *Whiteboard
	surface *raster.Surface
	peer    *net.LocalPeer
}

func join(hub *net.Hub, name string) participant {
	peer, err := hub.Join(name)
	So(err, ShouldBeNil)
	surface := raster.NewSurface(1, 1)
	wb := New(surface,
		WithChannel(peer, DefaultTopic),
		WithViewport(geom.NewViewport(1000, 1000, 1)),
		WithScheduler(render.Immediate),
		WithCapture(capture.WithIDs(idsFor(name))),
	)
	So(wb.Start(context.Background()), ShouldBeNil)
	return participant{wb: wb, surface: surface, peer: peer}
}

func idsFor(name string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", name, n)
	}
}

func press(x, y float64) capture.PointerEvent {
	return capture.PointerEvent{Point: geom.Point{X: x, Y: y}, PointerID: 1, Mouse: true}
}

// recordingChannel keeps every payload handed to Send and answers with err.
type recordingChannel struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

func (c *recordingChannel) Send(_ string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, payload)
	return c.err
}

func (c *recordingChannel) OnReceive(string, func([]byte)) func() {
	return func() {}
}

func (c *recordingChannel) events() []state.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]state.Event, 0, len(c.sent))
	for _, payload := range c.sent {
		ev, err := state.Decode(payload)
		So(err, ShouldBeNil)
		out = append(out, ev)
	}
	return out
}

func standalone(ch Channel, name string) *Whiteboard {
	epoch := time.Unix(0, 0)
	return New(raster.NewSurface(1, 1),
		WithChannel(ch, DefaultTopic),
		WithViewport(geom.NewViewport(100, 100, 1)),
		WithScheduler(render.Immediate),
		WithCapture(capture.WithIDs(idsFor(name)), capture.WithClock(func() time.Time { return epoch })),
	)
}

func textIDs(items []state.TextItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	sort.Strings(ids)
	return ids
}

func placeText(wb *Whiteboard, x, y float64, text string) {
	wb.SetTool(capture.ToolText)
	wb.PointerDown(press(x, y))
	wb.PointerUp(press(x, y))
	wb.CommitText(text)
}

func TestClassroom(t *testing.T) {
	Convey("Given three participants on one hub", t, func() {
		hub := net.NewHub()
		defer hub.Close()
		instructor := join(hub, "instructor")
		alice := join(hub, "alice")
		bob := join(hub, "bob")
		everyone := []participant{instructor, alice, bob}

		Convey("When the instructor draws a stroke", func() {
			instructor.wb.PointerDown(press(0.1, 0.5))
			for i := 1; i <= 10; i++ {
				instructor.wb.PointerMove(press(0.1+float64(i)*0.05, 0.5))
			}
			instructor.wb.PointerUp(press(0.6, 0.5))
			hub.Drain()

			Convey("Then every log holds the same stroke events", func() {
				want := instructor.wb.Log()
				So(len(want), ShouldBeGreaterThanOrEqualTo, 3)
				So(alice.wb.Log(), ShouldResemble, want)
				So(bob.wb.Log(), ShouldResemble, want)
			})

			Convey("And the students' pixels match each other", func() {
				want := alice.surface.Composite(raster.DefaultBackground)
				So(want.Bounds().Dx(), ShouldEqual, 1000)
				So(bob.surface.Composite(raster.DefaultBackground).Pix, ShouldResemble, want.Pix)
			})

			Convey("And the stroke is closed on every board", func() {
				So(alice.wb.board.OpenStrokes(), ShouldEqual, 0)
			})
		})

		Convey("When alice places text and bob drags it", func() {
			placeText(alice.wb, 0.2, 0.2, "x = 2")
			hub.Drain()
			items := bob.wb.TextItems()
			So(items, ShouldHaveLength, 1)
			id := items[0].ID

			bob.wb.SetTool(capture.ToolText)
			bob.wb.PointerDown(press(0.21, 0.21))
			bob.wb.PointerMove(press(0.41, 0.31))
			bob.wb.PointerUp(press(0.51, 0.41))
			hub.Drain()

			Convey("Then everyone sees it at the final position", func() {
				for _, p := range everyone {
					item, ok := p.wb.board.Text(id)
					So(ok, ShouldBeTrue)
					So(item.X, ShouldAlmostEqual, 0.5)
					So(item.Y, ShouldAlmostEqual, 0.4)
					So(item.Text, ShouldEqual, "x = 2")
				}
			})

			Convey("And deleting it through the editor removes it everywhere", func() {
				So(alice.wb.EditAt(geom.Point{X: 0.51, Y: 0.41}), ShouldBeTrue)
				alice.wb.CommitText("  ")
				hub.Drain()
				for _, p := range everyone {
					So(p.wb.TextItems(), ShouldBeEmpty)
				}
			})
		})

		Convey("When bob clears the board", func() {
			placeText(alice.wb, 0.2, 0.2, "old")
			instructor.wb.PointerDown(press(0.1, 0.1))
			instructor.wb.PointerMove(press(0.2, 0.2))
			hub.Drain()
			bob.wb.Clear()
			hub.Drain()
			instructor.wb.PointerMove(press(0.3, 0.3))
			instructor.wb.PointerUp(press(0.3, 0.3))
			hub.Drain()

			Convey("Then every board is empty and the interrupted stroke does not return", func() {
				for _, p := range everyone {
					So(p.wb.Log(), ShouldBeEmpty)
					So(p.wb.TextItems(), ShouldBeEmpty)
				}
			})

			Convey("And every board releases the interrupted stroke", func() {
				for _, p := range everyone {
					So(p.wb.board.Retired(), ShouldEqual, 0)
				}
			})
		})

		Convey("When everyone adds text at the same time", func() {
			var wg sync.WaitGroup
			for row, p := range everyone {
				wg.Add(1)
				go func(wb *Whiteboard, y float64) {
					defer wg.Done()
					for i := 0; i < 10; i++ {
						placeText(wb, 0.05+0.09*float64(i), y, fmt.Sprintf("note %d", i))
					}
				}(p.wb, 0.2+0.3*float64(row))
			}
			wg.Wait()
			hub.Drain()

			Convey("Then no item is lost and all boards hold the same set", func() {
				want := textIDs(instructor.wb.TextItems())
				So(want, ShouldHaveLength, 30)
				So(textIDs(alice.wb.TextItems()), ShouldResemble, want)
				So(textIDs(bob.wb.TextItems()), ShouldResemble, want)
			})
		})
	})
}

func TestReceiveValidation(t *testing.T) {
	Convey("Given a standalone whiteboard", t, func() {
		wb := New(raster.NewSurface(1, 1), WithViewport(geom.NewViewport(100, 100, 1)), WithScheduler(render.Immediate))
		changes := 0
		wb.OnChange(func() { changes++ })

		Convey("When malformed payloads arrive", func() {
			for _, payload := range []string{
				`not json`,
				`{"type":"draw"}`,
				`{"type":"teleport","id":"x"}`,
				`{"type":"text_move","id":"x","x":"left","y":0.5}`,
				`{"type":"draw","strokeId":"s","color":"#fff","size":4,"points":[{"x":2,"y":0}]}`,
			} {
				wb.Receive([]byte(payload))
			}

			Convey("Then they are dropped without touching the board", func() {
				So(wb.Log(), ShouldBeEmpty)
				So(changes, ShouldEqual, 0)
			})
		})

		Convey("When a valid remote text arrives", func() {
			wb.Receive([]byte(`{"type":"text","id":"t","x":0.1,"y":0.1,"text":"hi","color":"#fff","size":14}`))

			Convey("Then it is applied and listeners hear about it", func() {
				So(wb.TextItems(), ShouldHaveLength, 1)
				So(changes, ShouldEqual, 1)
			})
		})

		Convey("When a remote clear arrives during a local stroke", func() {
			wb.PointerDown(press(0.1, 0.1))
			wb.Receive([]byte(`{"type":"clear"}`))
			wb.PointerMove(press(0.2, 0.2))
			wb.PointerUp(press(0.2, 0.2))

			Convey("Then the local gesture is dropped with the board", func() {
				So(wb.Log(), ShouldBeEmpty)
			})
		})

		Convey("When started without a channel", func() {
			Convey("Then it refuses", func() {
				So(wb.Start(context.Background()), ShouldNotBeNil)
			})
		})
	})
}

func TestRemoteClearEndsLocalStroke(t *testing.T) {
	Convey("Given a whiteboard in the middle of a stroke", t, func() {
		ch := &recordingChannel{}
		wb := standalone(ch, "me")
		wb.PointerDown(press(0.1, 0.1))
		wb.PointerMove(press(0.2, 0.2))

		Convey("When a remote clear arrives", func() {
			wb.Receive([]byte(`{"type":"clear"}`))

			Convey("Then an empty terminal segment is sent for the stroke", func() {
				sent := ch.events()
				So(sent, ShouldHaveLength, 2)
				end, ok := sent[1].(state.Draw)
				So(ok, ShouldBeTrue)
				So(end.StrokeID, ShouldEqual, "me-1")
				So(end.Points, ShouldBeEmpty)
				So(end.IsEnd, ShouldBeTrue)
			})

			Convey("And the board keeps nothing for it", func() {
				So(wb.Log(), ShouldBeEmpty)
				So(wb.board.Retired(), ShouldEqual, 0)
				So(wb.capture.Busy(), ShouldBeFalse)
			})

			Convey("And the rest of the gesture sends nothing", func() {
				wb.PointerMove(press(0.3, 0.3))
				wb.PointerUp(press(0.3, 0.3))
				So(ch.events(), ShouldHaveLength, 2)
			})
		})
	})
}

func TestSendFailure(t *testing.T) {
	Convey("Given one whiteboard whose sends fail and one whose sends succeed", t, func() {
		failing := &recordingChannel{err: net.ErrQueueFull}
		working := &recordingChannel{}
		boards := []*Whiteboard{standalone(failing, "me"), standalone(working, "me")}

		Convey("When both draw, write and clear the same way", func() {
			So(func() {
				for _, wb := range boards {
					wb.PointerDown(press(0.1, 0.1))
					for i := 1; i <= 8; i++ {
						wb.PointerMove(press(0.1+float64(i)*0.05, 0.3))
					}
					wb.PointerUp(press(0.5, 0.3))
					placeText(wb, 0.6, 0.6, "hello")
				}
			}, ShouldNotPanic)

			Convey("Then local state is the same regardless of the transport", func() {
				So(boards[0].Log(), ShouldResemble, boards[1].Log())
				So(boards[0].TextItems(), ShouldResemble, boards[1].TextItems())
				So(boards[0].Log(), ShouldNotBeEmpty)
			})

			Convey("And failed events are not retried", func() {
				So(len(failing.sent), ShouldEqual, len(working.sent))
				So(len(failing.sent), ShouldEqual, len(boards[0].Log()))
			})

			Convey("And a clear still empties the board", func() {
				for _, wb := range boards {
					wb.Clear()
				}
				So(boards[0].Log(), ShouldBeEmpty)
				So(boards[0].TextItems(), ShouldBeEmpty)
				So(len(failing.sent), ShouldEqual, len(working.sent))
			})
		})
	})
}

func TestToolbarPassthrough(t *testing.T) {
	Convey("Given a whiteboard", t, func() {
		wb := New(raster.NewSurface(1, 1), WithScheduler(render.Immediate))

		Convey("Then toolbar changes are reflected", func() {
			wb.SetTool(capture.ToolErase)
			wb.SetColor("#22c55e")
			wb.SetSize(100)
			So(wb.Tool(), ShouldEqual, capture.ToolErase)
			So(wb.Color(), ShouldEqual, "#22c55e")
			So(wb.Size(), ShouldEqual, state.MaxStrokeSize)
		})

		Convey("Then resizing updates the viewport", func() {
			wb.Resize(geom.NewViewport(320, 240, 2))
			So(wb.Viewport().Size.Width, ShouldEqual, 320)
		})
	})
}
