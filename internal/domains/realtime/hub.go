package realtime

import (
	"context"
	"sync"
)

const defaultBufferSize = 64

// Subscriber is one connected observer
type Subscriber struct {
	id     uint64
	events chan Event
	done   chan struct{}
}

// Events yields the events delivered to this observer
func (s *Subscriber) Events() <-chan Event { return s.events }

// Done is closed when the subscriber is removed, either by Unsubscribe or
// because it fell behind and was evicted. An evicted observer must reconnect
// and refetch current counts.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Hub is the in-process fan-out registry
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscriber
	nextID uint64
	buffer int
	closed bool
}

var _ Publisher = (*Hub)(nil)

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = defaultBufferSize
	}
	return &Hub{
		subs:   make(map[uint64]*Subscriber),
		buffer: buffer,
	}
}

// Subscribe registers a new observer and announces the new presence count to everyone
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Subscriber{
		id:     h.nextID,
		events: make(chan Event, h.buffer),
		done:   make(chan struct{}),
	}
	if h.closed {
		close(s.done)
		return s
	}
	h.subs[s.id] = s

	h.broadcastLocked(Presence(len(h.subs)))
	return s
}

// Unsubscribe removes s. Calling it twice, or after eviction, is a no-op.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s.id]; !ok {
		return
	}
	h.removeLocked(s)
	h.broadcastLocked(Presence(len(h.subs)))
}

// Publish delivers evt to every current subscriber without blocking on any of them
func (h *Hub) Publish(ctx context.Context, evt Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcastLocked(evt)
	return nil
}

// Close ends every subscription and rejects new ones. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, s := range h.subs {
		h.removeLocked(s)
	}
}

// Online returns the number of connected observers
func (h *Hub) Online() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// broadcastLocked delivers evt, then repeats the presence count until a round
// evicts nobody, so survivors always end on the current number.
func (h *Hub) broadcastLocked(evt Event) {
	evicted := h.deliverLocked(evt)
	for evicted > 0 {
		evicted = h.deliverLocked(Presence(len(h.subs)))
	}
}

// deliverLocked returns how many subscribers were evicted for having a full buffer
func (h *Hub) deliverLocked(evt Event) int {
	evicted := 0
	for _, s := range h.subs {
		select {
		case s.events <- evt:
		default:
			h.removeLocked(s)
			evicted++
		}
	}
	return evicted
}

func (h *Hub) removeLocked(s *Subscriber) {
	delete(h.subs, s.id)
	close(s.done)
}
