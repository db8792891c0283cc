// Package hub fans generation events out to connected subscribers.
//
// Publishing never blocks on a subscriber: each subscriber owns a buffered
// channel and messages for a full channel are dropped. A slow reader loses
// messages, it never stalls the generation loop or its peers.
package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Envelope is one published message. Session tags the generation run it
// belongs to; an empty Session addresses every subscriber regardless of
// filter.
type Envelope struct {
	Session string
	Data    []byte
}

// Subscriber is one registered recipient. Receive from C until it closes.
type Subscriber struct {
	ID string
	C  <-chan Envelope

	filter string
	ch     chan Envelope
}

// Hub is a broadcast fan-out. The zero value is not usable, call New.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	closed bool
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[string]*Subscriber)}
}

// Subscribe registers a recipient. A non-empty filter limits delivery to
// envelopes tagged with that session; untagged envelopes are delivered to
// everyone. The subscriber channel closes on Unsubscribe or hub Close.
func (h *Hub) Subscribe(filter string) *Subscriber {
	ch := make(chan Envelope, DefaultBuffer)
	sub := &Subscriber{
		ID:     uuid.NewString(),
		C:      ch,
		filter: filter,
		ch:     ch,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes a recipient and closes its channel. Unknown ids are
// a no-op.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Publish delivers env to every matching subscriber. Subscribers whose
// buffer is full are skipped. The read lock is held across delivery:
// Unsubscribe closes a channel only after taking the write lock, so a
// concurrent removal can never close a channel mid-send. Sends never
// block.
func (h *Hub) Publish(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if env.Session != "" && sub.filter != "" && sub.filter != env.Session {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			slog.Debug("hub: subscriber buffer full, dropping", "subscriber", sub.ID)
		}
	}
}

// PublishJSON marshals v and publishes it tagged with session.
func (h *Hub) PublishJSON(session string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("hub: marshal %T: %w", v, err)
	}
	h.Publish(Envelope{Session: session, Data: data})
	return nil
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close removes all subscribers and closes their channels. Subsequent
// Publish calls deliver nothing and Subscribe returns a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*Subscriber)
	h.closed = true
	h.mu.Unlock()
	for _, sub := range subs {
		close(sub.ch)
	}
}
