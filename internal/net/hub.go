package net

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ClassBoard/pkg/logger"
	"ClassBoard/pkg/metrics"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// member is anything the hub fans out to.
type member interface {
	enqueue(data []byte) bool
	close()
}

// Hub relays envelopes to every member except the one that sent them. Remote
// members are websocket connections accepted by ServeHTTP; local members are
// in-process peers created by Join. Each member has a bounded queue and
// messages to a full queue are dropped.
type Hub struct {
	mu      sync.RWMutex
	members map[member]struct{}
	closed  bool

	queueSize int
	upgrader  websocket.Upgrader
	inflight  *tracker
	logger    logger.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithQueueSize sets the per-member queue bound.
func WithQueueSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// WithHubLogger sets the logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		members:   make(map[member]struct{}),
		queueSize: DefaultQueueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// LAN classroom tool: any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		inflight: newTracker(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Named("hub")
	}
	return h
}

func (h *Hub) add(m member) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.members[m] = struct{}{}
	metrics.UpdatePeersConnected(len(h.members))
	return true
}

func (h *Hub) remove(m member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.members[m]; !ok {
		return
	}
	delete(h.members, m)
	metrics.UpdatePeersConnected(len(h.members))
}

// Peers returns the number of connected members.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

func (h *Hub) broadcast(from member, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for m := range h.members {
		if m == from {
			continue
		}
		if m.enqueue(data) {
			metrics.RecordRelayed()
			continue
		}
		metrics.RecordRelayDropped()
		h.logger.Debug(context.Background(), "member queue full, message dropped")
	}
}

// Drain blocks until every message queued for a local peer was handled.
func (h *Hub) Drain() {
	h.inflight.wait()
}

// Close disconnects every member. Later joins and connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	members := make([]member, 0, len(h.members))
	for m := range h.members {
		members = append(members, m)
	}
	h.members = make(map[member]struct{})
	metrics.UpdatePeersConnected(0)
	h.mu.Unlock()

	for _, m := range members {
		m.close()
	}
}

// ServeHTTP upgrades the request and relays the connection's envelopes
// until it goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	p := &wsPeer{
		conn: conn,
		send: make(chan []byte, h.queueSize),
		done: make(chan struct{}),
	}
	if !h.add(p) {
		_ = conn.Close()
		return
	}
	h.logger.Info(r.Context(), "peer connected", logger.String("remote", conn.RemoteAddr().String()))

	go p.writeLoop()
	h.readLoop(p)

	h.remove(p)
	p.close()
	h.logger.Info(context.Background(), "peer disconnected", logger.String("remote", conn.RemoteAddr().String()))
}

func (h *Hub) readLoop(p *wsPeer) {
	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug(context.Background(), "peer read failed", logger.Error(err))
			}
			return
		}
		if _, err := decodeEnvelope(data); err != nil {
			metrics.RecordEventDropped("envelope")
			h.logger.Debug(context.Background(), "dropping malformed envelope", logger.Error(err))
			continue
		}
		h.broadcast(p, data)
	}
}

// wsPeer is a remote member.
type wsPeer struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (p *wsPeer) enqueue(data []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- data:
		return true
	default:
		return false
	}
}

func (p *wsPeer) close() {
	p.once.Do(func() { close(p.done) })
}

func (p *wsPeer) writeLoop() {
	writePump(p.conn, p.send, p.done)
}

// writePump writes queued frames and keepalive pings until done closes or a
// write fails.
func writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = conn.Close()
			return
		}
	}
}

// tracker counts deliveries that are queued but not yet handled.
type tracker struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

func newTracker() *tracker {
	t := &tracker{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *tracker) add() {
	t.mu.Lock()
	t.n++
	t.mu.Unlock()
}

func (t *tracker) done() {
	t.mu.Lock()
	t.n--
	if t.n == 0 {
		t.cond.Broadcast()
	}
	t.mu.Unlock()
}

func (t *tracker) wait() {
	t.mu.Lock()
	for t.n > 0 {
		t.cond.Wait()
	}
	t.mu.Unlock()
}
