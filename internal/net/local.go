package net

import (
	"context"
	"sync"

	"ClassBoard/pkg/logger"
	"ClassBoard/pkg/metrics"
)

// LocalPeer is an in-process hub member. The host's own whiteboard uses one,
// and tests join several to one hub to simulate a classroom.
type LocalPeer struct {
	hub   *Hub
	id    string
	inbox chan []byte
	subs  *subscriptions

	done chan struct{}
	once sync.Once
}

// Join adds an in-process member identified by sender. Messages to it are
// handled on its own goroutine.
func (h *Hub) Join(sender string) (*LocalPeer, error) {
	p := &LocalPeer{
		hub:   h,
		id:    sender,
		inbox: make(chan []byte, h.queueSize),
		subs:  newSubscriptions(),
		done:  make(chan struct{}),
	}
	if !h.add(p) {
		return nil, ErrClosed
	}
	go p.run()
	h.logger.Debug(context.Background(), "local peer joined", logger.String("sender", sender))
	return p, nil
}

// ID returns the sender id stamped on outgoing envelopes.
func (p *LocalPeer) ID() string {
	return p.id
}

// Send relays payload to every other member.
func (p *LocalPeer) Send(channel string, payload []byte) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	data, err := encodeEnvelope(channel, p.id, payload)
	if err != nil {
		return err
	}
	p.hub.broadcast(p, data)
	return nil
}

// OnReceive registers handler for payloads on channel.
func (p *LocalPeer) OnReceive(channel string, handler func([]byte)) func() {
	return p.subs.add(channel, handler)
}

// Close leaves the hub. Queued messages are discarded.
func (p *LocalPeer) Close() error {
	p.hub.remove(p)
	p.close()
	return nil
}

func (p *LocalPeer) enqueue(data []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	p.hub.inflight.add()
	select {
	case p.inbox <- data:
		return true
	default:
		p.hub.inflight.done()
		return false
	}
}

func (p *LocalPeer) close() {
	p.once.Do(func() { close(p.done) })
}

func (p *LocalPeer) run() {
	for {
		select {
		case data := <-p.inbox:
			p.deliver(data)
			p.hub.inflight.done()
		case <-p.done:
			for {
				select {
				case <-p.inbox:
					p.hub.inflight.done()
				default:
					return
				}
			}
		}
	}
}

func (p *LocalPeer) deliver(data []byte) {
	env, err := decodeEnvelope(data)
	if err != nil {
		metrics.RecordEventDropped("envelope")
		return
	}
	if env.Sender == p.id {
		return
	}
	p.subs.dispatch(env)
}

var _ Channel = (*LocalPeer)(nil)
