package net

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ClassBoard/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type inbox struct {
	mu   sync.Mutex
	got  []string
	wake chan struct{}
}

func newInbox() *inbox {
	return &inbox{wake: make(chan struct{}, 64)}
}

func (i *inbox) handle(payload []byte) {
	i.mu.Lock()
	i.got = append(i.got, string(payload))
	i.mu.Unlock()
	i.wake <- struct{}{}
}

func (i *inbox) messages() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.got...)
}

func (i *inbox) await(timeout time.Duration) bool {
	select {
	case <-i.wake:
		return true
	case <-time.After(timeout):
		return false
	}
}

func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestLocalPeers(t *testing.T) {
	Convey("Given three local peers on one hub", t, func() {
		hub := NewHub()
		defer hub.Close()
		a, err := hub.Join("a")
		So(err, ShouldBeNil)
		b, _ := hub.Join("b")
		c, _ := hub.Join("c")
		inA, inB, inC := newInbox(), newInbox(), newInbox()
		a.OnReceive(DefaultChannel, inA.handle)
		b.OnReceive(DefaultChannel, inB.handle)
		unsubscribe := c.OnReceive(DefaultChannel, inC.handle)

		Convey("When a sends", func() {
			So(a.Send(DefaultChannel, []byte(`{"type":"clear"}`)), ShouldBeNil)
			hub.Drain()

			Convey("Then everyone but the sender receives the payload", func() {
				So(inA.messages(), ShouldBeEmpty)
				So(inB.messages(), ShouldResemble, []string{`{"type":"clear"}`})
				So(inC.messages(), ShouldResemble, []string{`{"type":"clear"}`})
			})
		})

		Convey("When c unsubscribes before a sends", func() {
			unsubscribe()
			_ = a.Send(DefaultChannel, []byte(`1`))
			hub.Drain()

			Convey("Then c gets nothing", func() {
				So(inC.messages(), ShouldBeEmpty)
				So(inB.messages(), ShouldHaveLength, 1)
			})
		})

		Convey("When a sends on another topic", func() {
			_ = a.Send("other", []byte(`1`))
			hub.Drain()

			Convey("Then whiteboard subscribers ignore it", func() {
				So(inB.messages(), ShouldBeEmpty)
			})
		})

		Convey("When a payload is not JSON", func() {
			err := a.Send(DefaultChannel, []byte(`not json`))

			Convey("Then it is refused", func() {
				So(err, ShouldWrap, ErrInvalidEnvelope)
			})
		})

		Convey("When a peer leaves", func() {
			So(b.Close(), ShouldBeNil)

			Convey("Then it can no longer send and the hub forgets it", func() {
				So(b.Send(DefaultChannel, []byte(`1`)), ShouldEqual, ErrClosed)
				So(hub.Peers(), ShouldEqual, 2)
			})
		})

		Convey("When the hub closes", func() {
			hub.Close()

			Convey("Then joining fails", func() {
				_, err := hub.Join("late")
				So(err, ShouldEqual, ErrClosed)
			})
		})
	})
}

func TestQueueBound(t *testing.T) {
	Convey("Given a receiver whose queue holds one message and whose handler is stuck", t, func() {
		hub := NewHub(WithQueueSize(1))
		defer hub.Close()
		sender, _ := hub.Join("sender")
		slow, _ := hub.Join("slow")

		gate := make(chan struct{})
		var mu sync.Mutex
		received := 0
		slow.OnReceive(DefaultChannel, func([]byte) {
			<-gate
			mu.Lock()
			received++
			mu.Unlock()
		})

		Convey("When a burst is sent", func() {
			for i := 0; i < 5; i++ {
				So(sender.Send(DefaultChannel, []byte(`{}`)), ShouldBeNil)
			}
			close(gate)
			hub.Drain()

			Convey("Then the sender never blocked and the overflow was dropped", func() {
				mu.Lock()
				defer mu.Unlock()
				So(received, ShouldBeGreaterThan, 0)
				So(received, ShouldBeLessThan, 5)
			})
		})
	})
}

func TestWebsocketRelay(t *testing.T) {
	Convey("Given a hub served over HTTP with two sessions", t, func() {
		hub := NewHub()
		mux := http.NewServeMux()
		mux.Handle(HubPath, hub)
		srv := httptest.NewServer(mux)
		defer srv.Close()
		defer hub.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + HubPath
		ctx := context.Background()
		s1, err := Dial(ctx, url, WithSender("s1"))
		So(err, ShouldBeNil)
		defer s1.Close()
		s2, err := Dial(ctx, url, WithSender("s2"))
		So(err, ShouldBeNil)
		defer s2.Close()
		local, _ := hub.Join("host")
		So(waitUntil(func() bool { return hub.Peers() == 3 }), ShouldBeTrue)

		in1, in2, inHost := newInbox(), newInbox(), newInbox()
		s1.OnReceive(DefaultChannel, in1.handle)
		s2.OnReceive(DefaultChannel, in2.handle)
		local.OnReceive(DefaultChannel, inHost.handle)

		Convey("When one session sends", func() {
			So(s1.Send(DefaultChannel, []byte(`{"type":"text_delete","id":"x"}`)), ShouldBeNil)

			Convey("Then the other session and the host receive it", func() {
				So(in2.await(2*time.Second), ShouldBeTrue)
				So(inHost.await(2*time.Second), ShouldBeTrue)
				So(in2.messages(), ShouldResemble, []string{`{"type":"text_delete","id":"x"}`})
			})

			Convey("And the sender does not get its own message back", func() {
				So(in2.await(2*time.Second), ShouldBeTrue)
				So(in1.await(100*time.Millisecond), ShouldBeFalse)
			})
		})

		Convey("When the host sends", func() {
			So(local.Send(DefaultChannel, []byte(`{"type":"clear"}`)), ShouldBeNil)

			Convey("Then both sessions receive it", func() {
				So(in1.await(2*time.Second), ShouldBeTrue)
				So(in2.await(2*time.Second), ShouldBeTrue)
			})
		})

		Convey("When a session closes", func() {
			So(s1.Close(), ShouldBeNil)

			Convey("Then sending fails and the hub drops the peer", func() {
				So(s1.Send(DefaultChannel, []byte(`{}`)), ShouldEqual, ErrClosed)
				So(waitUntil(func() bool { return hub.Peers() == 2 }), ShouldBeTrue)
			})
		})
	})
}

func TestShareLinks(t *testing.T) {
	Convey("Given share links", t, func() {
		So(ShareLink("10.0.0.5:8080"), ShouldEqual, "classboard://10.0.0.5:8080")

		addr, err := ParseShareLink("classboard://10.0.0.5:8080")
		So(err, ShouldBeNil)
		So(addr, ShouldEqual, "10.0.0.5:8080")

		addr, err = ParseShareLink(" 10.0.0.5:9000 ")
		So(err, ShouldBeNil)
		So(addr, ShouldEqual, "10.0.0.5:9000")

		_, err = ParseShareLink("http://10.0.0.5:8080")
		So(err, ShouldNotBeNil)
		_, err = ParseShareLink("classboard://10.0.0.5")
		So(err, ShouldNotBeNil)
		_, err = ParseShareLink("")
		So(err, ShouldNotBeNil)

		So(HubURL("10.0.0.5:8080"), ShouldEqual, "ws://10.0.0.5:8080/ws")
	})
}

func TestServer(t *testing.T) {
	Convey("Given a hub served on a loopback port", t, func() {
		hub := NewHub()
		srv, err := Listen("127.0.0.1:0", hub)
		So(err, ShouldBeNil)
		So(srv.Port(), ShouldBeGreaterThan, 0)

		ctx, cancel := context.WithCancel(context.Background())
		served := make(chan error, 1)
		go func() { served <- srv.Serve(ctx) }()

		base := "http://" + srv.Addr()

		Reset(func() {
			cancel()
			<-served
		})

		Convey("Then /healthz and /metrics answer", func() {
			resp, err := http.Get(base + "/healthz")
			So(err, ShouldBeNil)
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(body), ShouldStartWith, "ok peers=0")

			resp, err = http.Get(base + "/metrics")
			So(err, ShouldBeNil)
			body, _ = io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			So(string(body), ShouldContainSubstring, "classboard_whiteboard_")
		})

		Convey("Then a session can dial the hub URL", func() {
			s, err := Dial(context.Background(), HubURL(srv.Addr()))
			So(err, ShouldBeNil)
			So(waitUntil(func() bool { return hub.Peers() == 1 }), ShouldBeTrue)
			_ = s.Close()
		})

	})
}
