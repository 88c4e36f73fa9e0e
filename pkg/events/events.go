// Package events publishes completed orders to downstream consumers.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-kiosk/pkg/order"
)

// TypeOrderCompleted is the event type name on the wire.
const TypeOrderCompleted = "order.completed"

// OrderCompleted is emitted when payment finishes an order.
type OrderCompleted struct {
	OrderID       string       `json:"orderId"`
	SessionID     string       `json:"sessionId"`
	OrderType     string       `json:"orderType,omitempty"`
	PaymentMethod string       `json:"paymentMethod"`
	Phone         string       `json:"phone,omitempty"`
	Lines         []order.Line `json:"items"`
	Total         int          `json:"total"`
	CompletedAt   time.Time    `json:"completedAt"`
}

// Publisher delivers completed orders.
type Publisher interface {
	Publish(ctx context.Context, ev OrderCompleted) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev OrderCompleted) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, ev OrderCompleted) error { return f(ctx, ev) }

// Multi fans an event out to every publisher. All publishers are tried; the
// errors are joined.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, ev OrderCompleted) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, OrderCompleted) error { return nil })
