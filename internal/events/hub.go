// Package events is the in-process fan-out for scheduler and alarm
// lifecycle events, feeding the websocket stream.
package events

import "sync"

// Event is one published lifecycle update.
type Event struct {
	Type string `json:"type"` // engine event type, see models
	Data any    `json:"data,omitempty"`
}

// Hub fans events out to subscribers. Slow subscribers drop events rather
// than block publishers: the engine never waits on a dashboard.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

const subscriberBuffer = 32

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Publish delivers the event to every subscriber, best-effort.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// subscriber is behind; drop
		}
	}
}

// Subscribe returns a receive channel and a cancel func that must be
// called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}
