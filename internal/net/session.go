package net

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ClassBoard/pkg/logger"
	"ClassBoard/pkg/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is a websocket connection to a relay hub.
type Session struct {
	conn   *websocket.Conn
	sender string
	send   chan []byte
	subs   *subscriptions
	logger logger.Logger

	done chan struct{}
	once sync.Once
}

type sessionConfig struct {
	sender    string
	queueSize int
	logger    logger.Logger
	dialer    *websocket.Dialer
}

// SessionOption configures Dial.
type SessionOption func(*sessionConfig)

// WithSender sets the sender id stamped on outgoing envelopes.
func WithSender(id string) SessionOption {
	return func(c *sessionConfig) {
		if id != "" {
			c.sender = id
		}
	}
}

// WithSendQueue sets the outbound queue bound.
func WithSendQueue(n int) SessionOption {
	return func(c *sessionConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Dial connects to the hub at url (ws://host:port/ws).
func Dial(ctx context.Context, url string, opts ...SessionOption) (*Session, error) {
	cfg := sessionConfig{
		sender:    uuid.NewString(),
		queueSize: DefaultQueueSize,
		dialer:    &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Named("session")
	}

	conn, _, err := cfg.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	s := &Session{
		conn:   conn,
		sender: cfg.sender,
		send:   make(chan []byte, cfg.queueSize),
		subs:   newSubscriptions(),
		logger: cfg.logger,
		done:   make(chan struct{}),
	}
	go writePump(conn, s.send, s.done)
	go s.readLoop()
	s.logger.Info(ctx, "connected to hub", logger.String("url", url), logger.String("sender", s.sender))
	return s, nil
}

// ID returns the sender id.
func (s *Session) ID() string {
	return s.sender
}

// Send queues payload for the hub. It fails with ErrQueueFull rather than
// block when the connection is backed up.
func (s *Session) Send(channel string, payload []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	data, err := encodeEnvelope(channel, s.sender, payload)
	if err != nil {
		return err
	}
	select {
	case s.send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

// OnReceive registers handler for payloads on channel.
func (s *Session) OnReceive(channel string, handler func([]byte)) func() {
	return s.subs.add(channel, handler)
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close ends the session.
func (s *Session) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *Session) readLoop() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPingHandler(func(appData string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Warn(context.Background(), "hub connection lost", logger.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		env, err := decodeEnvelope(data)
		if err != nil {
			metrics.RecordEventDropped("envelope")
			s.logger.Debug(context.Background(), "dropping malformed envelope", logger.Error(err))
			continue
		}
		if env.Sender == s.sender {
			continue
		}
		s.subs.dispatch(env)
	}
}

var _ Channel = (*Session)(nil)
