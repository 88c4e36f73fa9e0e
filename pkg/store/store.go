// Package store persists the menu, carts, assistant conversations and
// completed orders. Postgres and SQLite back the full Store; Redis can hold
// carts on their own.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/intent"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// CartStore saves the latest cart of each session. Loading an unknown
// session yields an empty cart.
type CartStore interface {
	SaveCart(ctx context.Context, sessionID string, cart order.Cart) error
	LoadCart(ctx context.Context, sessionID string) (order.Cart, error)
}

// Store is the kiosk's database.
type Store interface {
	catalog.Catalog
	CartStore
	events.Publisher

	// SaveMenu inserts or updates items, keeping their order.
	SaveMenu(ctx context.Context, items []catalog.MenuItem) error
	// SaveTurn records one answered assistant turn.
	SaveTurn(ctx context.Context, sessionID, userMessage, assistantMessage string) error
	// Order returns a completed order by id.
	Order(ctx context.Context, orderID string) (events.OrderCompleted, error)
	// Migrate creates missing tables.
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the database named by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgres(ctx, dsn)
	case DriverSQLite, "":
		return NewSQLite(dsn)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

// Seed loads items into s when its menu is empty and reports whether it did.
func Seed(ctx context.Context, s Store, items []catalog.MenuItem) (bool, error) {
	menu, err := s.Menu(ctx)
	if err != nil {
		return false, err
	}
	if len(menu) > 0 {
		return false, nil
	}
	return true, s.SaveMenu(ctx, items)
}

const (
	upsertMenuSQL = `INSERT INTO menu (id, position, name, price, keywords, category)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET position = excluded.position, name = excluded.name,
	price = excluded.price, keywords = excluded.keywords, category = excluded.category`

	selectMenuSQL = `SELECT id, name, price, keywords, category FROM menu ORDER BY position, id`

	searchMenuSQL = `SELECT id, name, price, keywords, category FROM menu
WHERE REPLACE(LOWER(keywords), ' ', '') LIKE ? ESCAPE '\'
	OR REPLACE(LOWER(name), ' ', '') LIKE ? ESCAPE '\'
ORDER BY position, id`

	insertTurnSQL = `INSERT INTO conversations (session_id, user_message, assistant_message) VALUES (?, ?, ?)`

	upsertCartSQL = `INSERT INTO carts (session_id, items_json, total) VALUES (?, ?, ?)
ON CONFLICT (session_id) DO UPDATE SET items_json = excluded.items_json, total = excluded.total,
	updated_at = CURRENT_TIMESTAMP`

	selectCartSQL = `SELECT items_json FROM carts WHERE session_id = ?`

	insertOrderSQL = `INSERT INTO orders (order_id, session_id, order_type, payment_method, phone, items_json, total, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (order_id) DO NOTHING`

	selectOrderSQL = `SELECT order_id, session_id, order_type, payment_method, phone, items_json, total, completed_at
FROM orders WHERE order_id = ?`
)

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func rebind(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func joinKeywords(kw []string) string { return strings.Join(kw, ",") }

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// likeEscaper escapes LIKE wildcards; searchMenuSQL declares \ as the escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// like builds a substring pattern over the normalized keyword, so SQL search
// agrees with catalog.Snapshot.Search.
func like(keyword string) string {
	return "%" + likeEscaper.Replace(intent.Normalize(keyword)) + "%"
}

func encodeLines(lines []order.Line) ([]byte, error) {
	if lines == nil {
		lines = []order.Line{}
	}
	return json.Marshal(lines)
}

// decodeCart rebuilds a cart from stored lines. Stored totals are never
// trusted.
func decodeCart(data []byte) (order.Cart, error) {
	var lines []order.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return order.Cart{}, fmt.Errorf("store: decode cart: %w", err)
	}
	return order.New(lines...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (catalog.MenuItem, error) {
	var (
		it       catalog.MenuItem
		keywords string
		category string
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Price, &keywords, &category); err != nil {
		return catalog.MenuItem{}, err
	}
	it.Keywords = splitKeywords(keywords)
	it.Category = catalog.Category(category)
	return it, nil
}
