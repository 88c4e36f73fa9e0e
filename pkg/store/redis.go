package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/teslashibe/go-kiosk/pkg/order"
)

// DefaultCartTTL is how long an untouched cart stays in Redis.
const DefaultCartTTL = 2 * time.Hour

const cartKeyPrefix = "kiosk:cart:"

// RedisCarts keeps carts in Redis with an expiry.
type RedisCarts struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCarts stores carts through client. A non-positive ttl uses
// DefaultCartTTL.
func NewRedisCarts(client *redis.Client, ttl time.Duration) *RedisCarts {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisCarts{client: client, ttl: ttl}
}

// SaveCart implements CartStore and refreshes the expiry.
func (r *RedisCarts) SaveCart(ctx context.Context, sessionID string, cart order.Cart) error {
	data, err := encodeLines(cart.Lines())
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, cartKeyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store: set cart in redis: %w", err)
	}
	return nil
}

// LoadCart implements CartStore.
func (r *RedisCarts) LoadCart(ctx context.Context, sessionID string) (order.Cart, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return order.Cart{}, nil
	}
	if err != nil {
		return order.Cart{}, fmt.Errorf("store: get cart from redis: %w", err)
	}
	return decodeCart(data)
}

// Close closes the client.
func (r *RedisCarts) Close() error {
	return r.client.Close()
}

var _ CartStore = (*RedisCarts)(nil)
