package db

import (
	"sync"
)

// Hub broadcasts store change signals to subscribers and tracks a revision
// counter that increments on every committed mutation. Signals are coalesced:
// a subscriber that has not drained its channel sees one pending signal, not
// a backlog.
type Hub struct {
	mu       sync.Mutex
	revision uint64
	nextID   int
	subs     map[int]chan struct{}
	closed   bool
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan struct{})}
}

// Revision returns the number of broadcasts so far.
func (h *Hub) Revision() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.revision
}

// Subscribe registers a listener. The cancel function is idempotent and safe
// to call after Close.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan struct{}, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Broadcast bumps the revision and signals every subscriber without blocking.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.revision++
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
			// Signal already pending; the subscriber will re-query anyway.
		}
	}
}

// Close detaches and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
