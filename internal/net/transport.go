// Package net carries whiteboard payloads between participants: a websocket
// relay hub, a websocket client session, in-process peers, and mDNS discovery
// of hosts on the LAN.
package net

import (
	"encoding/json"
	"fmt"
	"sync"
)

// DefaultChannel is the topic every whiteboard publishes on.
const DefaultChannel = "classroom-whiteboard"

// DefaultQueueSize bounds each connection's outbound queue.
const DefaultQueueSize = 256

// Channel is a best-effort publish/subscribe transport. Send never blocks on
// the network; a full queue drops the message.
type Channel interface {
	Send(channel string, payload []byte) error
	OnReceive(channel string, handler func(payload []byte)) (unsubscribe func())
}

// Envelope is the frame relayed between participants.
type Envelope struct {
	Topic   string          `json:"topic"`
	Sender  string          `json:"sender"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(topic, sender string, payload []byte) ([]byte, error) {
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload is not JSON", ErrInvalidEnvelope)
	}
	return json.Marshal(Envelope{Topic: topic, Sender: sender, Payload: payload})
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.Topic == "" || len(env.Payload) == 0 {
		return Envelope{}, fmt.Errorf("%w: missing topic or payload", ErrInvalidEnvelope)
	}
	return env, nil
}

// subscriptions maps topics to handlers.
type subscriptions struct {
	mu      sync.RWMutex
	next    int
	byTopic map[string]map[int]func([]byte)
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byTopic: make(map[string]map[int]func([]byte))}
}

func (s *subscriptions) add(topic string, fn func([]byte)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	if s.byTopic[topic] == nil {
		s.byTopic[topic] = make(map[int]func([]byte))
	}
	s.byTopic[topic][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.byTopic[topic], id)
			if len(s.byTopic[topic]) == 0 {
				delete(s.byTopic, topic)
			}
		})
	}
}

func (s *subscriptions) dispatch(env Envelope) int {
	s.mu.RLock()
	handlers := make([]func([]byte), 0, len(s.byTopic[env.Topic]))
	for _, fn := range s.byTopic[env.Topic] {
		handlers = append(handlers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range handlers {
		fn(env.Payload)
	}
	return len(handlers)
}
