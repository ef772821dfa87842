package notify

import (
	"log/slog"
	"sync"
)

const clientBuffer = 16

// Hub fans events out to connected SSE clients. Sends are non-blocking:
// a client whose buffer is full loses the event and is expected to
// re-fetch state over REST.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

// Subscribe registers a viewer. The returned cancel func must be called
// when the client disconnects.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, clientBuffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers the event to every connected client without
// blocking. Slow clients are skipped.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			slog.Warn("dropping event for slow client", "type", ev.Type, "id", ev.ID)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
