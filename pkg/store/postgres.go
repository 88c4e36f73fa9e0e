package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

//go:embed schema_postgres.sql
var postgresSchema string

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate implements Store.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Menu implements catalog.Catalog.
func (p *Postgres) Menu(ctx context.Context) ([]catalog.MenuItem, error) {
	return p.queryItems(ctx, rebind(selectMenuSQL))
}

// Search implements catalog.Catalog.
func (p *Postgres) Search(ctx context.Context, keyword string) ([]catalog.MenuItem, error) {
	return p.queryItems(ctx, rebind(searchMenuSQL), like(keyword), like(keyword))
}

func (p *Postgres) queryItems(ctx context.Context, q string, args ...any) ([]catalog.MenuItem, error) {
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query menu: %w", err)
	}
	defer rows.Close()

	var out []catalog.MenuItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan menu: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SaveMenu implements Store.
func (p *Postgres) SaveMenu(ctx context.Context, items []catalog.MenuItem) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for i, it := range items {
			_, err := tx.Exec(ctx, rebind(upsertMenuSQL),
				it.ID, i, it.Name, it.Price, joinKeywords(it.Keywords), string(it.Category))
			if err != nil {
				return fmt.Errorf("store: save menu item %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

// SaveCart implements CartStore.
func (p *Postgres) SaveCart(ctx context.Context, sessionID string, cart order.Cart) error {
	data, err := encodeLines(cart.Lines())
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, rebind(upsertCartSQL), sessionID, data, cart.Total()); err != nil {
		return fmt.Errorf("store: save cart: %w", err)
	}
	return nil
}

// LoadCart implements CartStore.
func (p *Postgres) LoadCart(ctx context.Context, sessionID string) (order.Cart, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, rebind(selectCartSQL), sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Cart{}, nil
	}
	if err != nil {
		return order.Cart{}, fmt.Errorf("store: load cart: %w", err)
	}
	return decodeCart(data)
}

// SaveTurn implements assistant.TurnStore.
func (p *Postgres) SaveTurn(ctx context.Context, sessionID, userMessage, assistantMessage string) error {
	if _, err := p.pool.Exec(ctx, rebind(insertTurnSQL), sessionID, userMessage, assistantMessage); err != nil {
		return fmt.Errorf("store: save turn: %w", err)
	}
	return nil
}

// Publish records a completed order. Publishing the same order twice is a
// no-op.
func (p *Postgres) Publish(ctx context.Context, ev events.OrderCompleted) error {
	data, err := encodeLines(ev.Lines)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, rebind(insertOrderSQL),
		ev.OrderID, ev.SessionID, ev.OrderType, ev.PaymentMethod, ev.Phone, data, ev.Total, ev.CompletedAt)
	if err != nil {
		return fmt.Errorf("store: save order: %w", err)
	}
	return nil
}

// Order implements Store.
func (p *Postgres) Order(ctx context.Context, orderID string) (events.OrderCompleted, error) {
	var (
		ev   events.OrderCompleted
		data []byte
	)
	err := p.pool.QueryRow(ctx, rebind(selectOrderSQL), orderID).Scan(
		&ev.OrderID, &ev.SessionID, &ev.OrderType, &ev.PaymentMethod, &ev.Phone, &data, &ev.Total, &ev.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return events.OrderCompleted{}, ErrNotFound
	}
	if err != nil {
		return events.OrderCompleted{}, fmt.Errorf("store: load order: %w", err)
	}
	cart, err := decodeCart(data)
	if err != nil {
		return events.OrderCompleted{}, err
	}
	ev.Lines = cart.Lines()
	return ev, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

var _ Store = (*Postgres)(nil)
