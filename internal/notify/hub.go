package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Hub broadcasts notifications to live subscribers such as admin
// websocket sessions. Slow subscribers drop messages rather than block.
type Hub struct {
	BaseNotifier
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
}

// Subscription receives notifications from a Hub until closed
type Subscription struct {
	C <-chan *Notification

	ch   chan *Notification
	hub  *Hub
	once sync.Once
}

// NewHub creates a hub whose subscribers buffer up to buffer messages
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{
		BaseNotifier: BaseNotifier{name: "hub"},
		subs:         make(map[*Subscription]struct{}),
		buffer:       buffer,
	}
}

// Subscribe registers a new subscriber
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan *Notification, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(ch) })
		return sub
	}
	h.subs[sub] = struct{}{}

	return sub
}

// Close ends every subscription. Later subscriptions are closed on arrival.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
}

// Close unregisters the subscription and closes its channel
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Subscribers returns the number of active subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Notify broadcasts n to every subscriber
func (h *Hub) Notify(ctx context.Context, n *Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- n:
		default:
			slog.Debug("hub subscriber full, dropping notification", "kind", n.Kind)
		}
	}
	return nil
}

// HealthCheck always succeeds
func (h *Hub) HealthCheck(ctx context.Context) error {
	return nil
}
