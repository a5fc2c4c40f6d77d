package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Hub fans changes out to in-process subscribers. Delivery never blocks
// the publisher: a subscriber with a full buffer misses the change.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Change
	nextID int
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[int]chan Change),
		logger: logger,
	}
}

// Subscribe registers a receiver with the given buffer size. The returned
// function unregisters it and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Change, buffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the change to every subscriber
func (h *Hub) Publish(ctx context.Context, change Change) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- change:
		default:
			h.logger.Warn("dropping change for slow subscriber",
				"subscriber", id,
				"entity", change.Entity,
			)
		}
	}
	return nil
}

// Subscribers returns the number of registered receivers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
