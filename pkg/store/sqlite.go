package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLite is a Store in a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database at path, creating its directory.
func NewSQLite(path string) (*SQLite, error) {
	if path != MemoryDSN && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// One connection keeps in-memory databases shared and serializes writes.
	db.SetMaxOpenConns(1)
	return &SQLite{db: db}, nil
}

// Migrate implements Store.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Menu implements catalog.Catalog.
func (s *SQLite) Menu(ctx context.Context) ([]catalog.MenuItem, error) {
	return s.queryItems(ctx, selectMenuSQL)
}

// Search implements catalog.Catalog.
func (s *SQLite) Search(ctx context.Context, keyword string) ([]catalog.MenuItem, error) {
	return s.queryItems(ctx, searchMenuSQL, like(keyword), like(keyword))
}

func (s *SQLite) queryItems(ctx context.Context, q string, args ...any) ([]catalog.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
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
func (s *SQLite) SaveMenu(ctx context.Context, items []catalog.MenuItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	for i, it := range items {
		_, err := tx.ExecContext(ctx, upsertMenuSQL,
			it.ID, i, it.Name, it.Price, joinKeywords(it.Keywords), string(it.Category))
		if err != nil {
			return fmt.Errorf("store: save menu item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// SaveCart implements CartStore.
func (s *SQLite) SaveCart(ctx context.Context, sessionID string, cart order.Cart) error {
	data, err := encodeLines(cart.Lines())
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertCartSQL, sessionID, string(data), cart.Total()); err != nil {
		return fmt.Errorf("store: save cart: %w", err)
	}
	return nil
}

// LoadCart implements CartStore.
func (s *SQLite) LoadCart(ctx context.Context, sessionID string) (order.Cart, error) {
	var data string
	err := s.db.QueryRowContext(ctx, selectCartSQL, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Cart{}, nil
	}
	if err != nil {
		return order.Cart{}, fmt.Errorf("store: load cart: %w", err)
	}
	return decodeCart([]byte(data))
}

// SaveTurn implements assistant.TurnStore.
func (s *SQLite) SaveTurn(ctx context.Context, sessionID, userMessage, assistantMessage string) error {
	if _, err := s.db.ExecContext(ctx, insertTurnSQL, sessionID, userMessage, assistantMessage); err != nil {
		return fmt.Errorf("store: save turn: %w", err)
	}
	return nil
}

// Turns returns the number of turns stored for sessionID.
func (s *SQLite) Turns(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

// Publish records a completed order. Publishing the same order twice is a
// no-op.
func (s *SQLite) Publish(ctx context.Context, ev events.OrderCompleted) error {
	data, err := encodeLines(ev.Lines)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertOrderSQL,
		ev.OrderID, ev.SessionID, ev.OrderType, ev.PaymentMethod, ev.Phone, string(data), ev.Total,
		ev.CompletedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: save order: %w", err)
	}
	return nil
}

// Order implements Store.
func (s *SQLite) Order(ctx context.Context, orderID string) (events.OrderCompleted, error) {
	var (
		ev          events.OrderCompleted
		data        string
		completedAt string
	)
	err := s.db.QueryRowContext(ctx, selectOrderSQL, orderID).Scan(
		&ev.OrderID, &ev.SessionID, &ev.OrderType, &ev.PaymentMethod, &ev.Phone, &data, &ev.Total, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return events.OrderCompleted{}, ErrNotFound
	}
	if err != nil {
		return events.OrderCompleted{}, fmt.Errorf("store: load order: %w", err)
	}
	cart, err := decodeCart([]byte(data))
	if err != nil {
		return events.OrderCompleted{}, err
	}
	ev.Lines = cart.Lines()
	if ev.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt); err != nil {
		return events.OrderCompleted{}, fmt.Errorf("store: parse completed_at: %w", err)
	}
	return ev, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
