// Package events provides the in-process fan-out hub behind the /events
// stream. The hub is process-local; cross-node delivery is out of scope.
package events

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Filter narrows which events a subscription receives. Zero-value fields
// match everything.
type Filter struct {
	TeamID    *uuid.UUID
	ContentID *uuid.UUID
}

// Matches reports whether the event passes the filter.
func (f Filter) Matches(e Event) bool {
	if f.ContentID != nil && e.Payload.ID != *f.ContentID {
		return false
	}
	if f.TeamID != nil {
		if e.Payload.TeamID == nil || *e.Payload.TeamID != *f.TeamID {
			return false
		}
	}
	return true
}

// Subscription is a live registration on the hub. Events arrive on C until
// Cancel is called; the channel is closed on cancellation.
type Subscription struct {
	C      <-chan Event
	id     uint64
	hub    *Hub
	cancel sync.Once
}

// Cancel removes the subscription from the hub and closes C.
func (s *Subscription) Cancel() {
	s.cancel.Do(func() {
		s.hub.remove(s.id)
	})
}

type subscriber struct {
	filter Filter
	ch     chan Event
}

// Hub fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event and is expected to re-fetch on demand.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	nextID  uint64
	bufSize int
	dropped func() // observability hook, may be nil
}

// NewHub creates a Hub whose subscriber channels buffer bufSize events.
func NewHub(bufSize int) *Hub {
	if bufSize < 1 {
		bufSize = 1
	}
	return &Hub{
		subs:    make(map[uint64]*subscriber),
		bufSize: bufSize,
	}
}

// OnDrop registers a callback invoked whenever an event is dropped for a
// slow subscriber.
func (h *Hub) OnDrop(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropped = fn
}

// Subscribe registers a new subscription matching the filter.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &subscriber{
		filter: filter,
		ch:     make(chan Event, h.bufSize),
	}
	h.subs[h.nextID] = sub

	return &Subscription{C: sub.ch, id: h.nextID, hub: h}
}

// Publish delivers the event to every matching subscriber without blocking.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.filter.Matches(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			if h.dropped != nil {
				h.dropped()
			}
			slog.Warn("event dropped for slow subscriber", "type", e.Type, "id", e.Payload.ID)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}
