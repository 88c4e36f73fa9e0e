// Package hub fans JSON messages out to websocket clients using a single
// goroutine that owns the client set.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	name   string
	logger *slog.Logger

	clients map[*Client]struct{}

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// guards count for readers outside Run
	mu    sync.RWMutex
	count int
}

// New creates a hub. Run must be started before clients connect.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount()
			h.logger.Debug("client connected", "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug("client disconnected", "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.drop(c)
					h.logger.Warn("dropped slow client")
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount()
}

func (h *Hub) setCount() {
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
}

// Broadcast queues data for every client. It never blocks; when the queue
// is full the message is dropped and false is returned.
func (h *Hub) Broadcast(data []byte) bool {
	select {
	case h.broadcast <- data:
		return true
	default:
		h.logger.Warn("broadcast queue full, dropping message")
		return false
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} { return h.done }
