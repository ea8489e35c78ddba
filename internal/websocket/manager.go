// Package websocket fans domain events out to connected real-time observers.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/bhandras/agbridge/internal/clock"
	"github.com/bhandras/agbridge/internal/events"
	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/metrics"
	"github.com/bhandras/agbridge/internal/models"
)

// Hub tracks connected observers and delivers each published event to all of
// them. Delivery is best effort and never blocks the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	nextID  uint64
	closed  bool

	clock   clock.Clock
	origins map[string]struct{}
}

// NewHub returns an empty hub. allowedOrigins restricts the browser Origin
// header at upgrade; an empty list or "*" allows any origin.
func NewHub(allowedOrigins []string, clk clock.Clock) *Hub {
	if clk == nil {
		clk = clock.Real()
	}
	h := &Hub{
		clients: make(map[*Client]struct{}),
		clock:   clk,
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			h.origins = nil
			break
		}
		if h.origins == nil {
			h.origins = make(map[string]struct{})
		}
		h.origins[o] = struct{}{}
	}
	return h
}

// Publish implements events.Publisher.
func (h *Hub) Publish(e events.Envelope) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.Errorf("[WS] Failed to encode %s event: %v", e.Event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.enqueue(data) {
			metrics.EventsDropped.Inc()
			logger.Debugf("[WS] Observer %d queue full, dropped %s", c.id, e.Event)
		}
	}
}

// attach registers a new observer and queues hello followed by the pending
// backlog. Returns nil once the hub is closed.
func (h *Hub) attach(newClient func(id uint64, depth int) *Client, pending []models.Approval) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.nextID++
	c := newClient(h.nextID, len(pending)+1+sendBuffer)

	now := h.clock.Now()
	h.queueLocked(c, events.New(events.Hello, map[string]any{"ts": now.UTC()}, now))
	for _, a := range pending {
		h.queueLocked(c, events.New(events.ApprovalRequested, a, now))
	}

	h.clients[c] = struct{}{}
	metrics.ObserversConnected.Inc()
	logger.Infof("[WS] Observer %d connected (%d total, %d replayed)", c.id, len(h.clients), len(pending))
	return c
}

func (h *Hub) queueLocked(c *Client, e events.Envelope) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.Errorf("[WS] Failed to encode %s event: %v", e.Event, err)
		return
	}
	c.enqueue(data)
}

// detach removes c and closes its queue. Safe to call more than once.
func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.ObserversConnected.Dec()
	logger.Infof("[WS] Observer %d disconnected (%d total)", c.id, len(h.clients))
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every observer and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		metrics.ObserversConnected.Dec()
	}
}

func (h *Hub) originAllowed(origin string) bool {
	if h.origins == nil || origin == "" {
		return true
	}
	_, ok := h.origins[origin]
	return ok
}
