// Package notify delivers order lifecycle events to live subscribers. Rooms
// are best-effort: a subscriber that is slow or gone misses events and is
// expected to re-read the order.
package notify

import (
	"context"
	"sync"

	"github.com/MikeMC777/foodapp/internal/order"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// Subscription receives the events of one room until it is closed.
type Subscription struct {
	Room string
	C    <-chan order.Event

	ch   chan order.Event
	hub  *Hub
	once sync.Once
}

// Close removes the subscription from its room and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// Hub is an in-process room-based pub/sub. Safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{rooms: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

// Subscribe joins room.
func (h *Hub) Subscribe(room string) *Subscription {
	ch := make(chan order.Event, h.buffer)
	s := &Subscription{Room: room, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.rooms[room] = subs
	}
	subs[s] = struct{}{}
	return s
}

// Notify delivers ev to every subscriber of ev.Rooms without blocking.
// Subscribers with a full queue miss the event.
func (h *Hub) Notify(_ context.Context, ev order.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, room := range ev.Rooms {
		for s := range h.rooms[room] {
			select {
			case s.ch <- ev:
			default:
			}
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[s.Room]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.rooms, s.Room)
		}
	}
	close(s.ch)
}
