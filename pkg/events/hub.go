package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/teslashibe/go-kiosk/pkg/hub"
)

// Envelope is the JSON shape of an event on every transport.
type Envelope struct {
	Type  string         `json:"type"`
	Order OrderCompleted `json:"order"`
}

// ErrBroadcastDropped is returned when the hub queue is full.
var ErrBroadcastDropped = errors.New("events: broadcast dropped")

// Broadcaster sends completed orders to websocket subscribers.
type Broadcaster struct {
	hub *hub.Hub
}

// NewBroadcaster publishes through h.
func NewBroadcaster(h *hub.Hub) *Broadcaster {
	return &Broadcaster{hub: h}
}

// Publish implements Publisher.
func (b *Broadcaster) Publish(_ context.Context, ev OrderCompleted) error {
	data, err := json.Marshal(Envelope{Type: TypeOrderCompleted, Order: ev})
	if err != nil {
		return err
	}
	if !b.hub.Broadcast(data) {
		return ErrBroadcastDropped
	}
	return nil
}

var _ Publisher = (*Broadcaster)(nil)
