package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/order"
	"github.com/teslashibe/go-kiosk/pkg/store"
)

func newSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.NewSQLite(store.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleCart(t *testing.T) order.Cart {
	t.Helper()
	cart, err := order.New(
		order.Line{ItemID: "shrimp", DisplayName: "새우버거", UnitPrice: 5000, Quantity: 2},
		order.Line{ItemID: "cider_large", DisplayName: "사이다 (라지)", UnitPrice: 2500, Quantity: 1,
			Variant: &order.Variant{Size: order.SizeLarge}},
	)
	require.NoError(t, err)
	return cart
}

// exerciseStore runs the behaviour shared by every Store implementation.
func exerciseStore(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := store.Seed(ctx, s, catalog.Seed())
	require.NoError(t, err)
	seeded, err := store.Seed(ctx, s, catalog.Seed())
	require.NoError(t, err)
	require.False(t, seeded, "a populated menu is left alone")

	menu, err := s.Menu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, len(catalog.Seed()))
	require.Equal(t, "shrimp", menu[0].ID)
	require.Equal(t, []string{"새우", "shrimp"}, menu[0].Keywords)
	require.Equal(t, catalog.CategoryBurger, menu[0].Category)

	found, err := s.Search(ctx, "새우")
	require.NoError(t, err)
	var ids []string
	for _, it := range found {
		ids = append(ids, it.ID)
	}
	require.Equal(t, []string{"shrimp", "chili", "truffle"}, ids)

	found, err = s.Search(ctx, "칠리 새우 버거")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "chili", found[0].ID)

	found, err = s.Search(ctx, "TRUFFLE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "truffle", found[0].ID)

	for _, wildcard := range []string{"%", "_", `\`} {
		found, err = s.Search(ctx, wildcard)
		require.NoError(t, err)
		require.Empty(t, found, "wildcard %q must match literally", wildcard)
	}

	empty, err := s.LoadCart(ctx, "nobody")
	require.NoError(t, err)
	require.True(t, empty.IsEmpty())

	cart := sampleCart(t)
	require.NoError(t, s.SaveCart(ctx, "s1", cart))
	got, err := s.LoadCart(ctx, "s1")
	require.NoError(t, err)
	require.True(t, got.Equal(cart))
	require.Equal(t, 12500, got.Total())

	cart, _ = cart.Remove("shrimp")
	require.NoError(t, s.SaveCart(ctx, "s1", cart))
	got, err = s.LoadCart(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Quantity("shrimp"))

	require.NoError(t, s.SaveTurn(ctx, "s1", "뭐가 맛있어요?", "새우버거가 인기예요."))

	ev := events.OrderCompleted{
		OrderID:       "o1",
		SessionID:     "s1",
		OrderType:     "takeout",
		PaymentMethod: "card",
		Lines:         cart.Lines(),
		Total:         cart.Total(),
		CompletedAt:   time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.Publish(ctx, ev))
	require.NoError(t, s.Publish(ctx, ev), "publishing twice is a no-op")

	stored, err := s.Order(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, ev.Total, stored.Total)
	require.Equal(t, ev.OrderType, stored.OrderType)
	require.Len(t, stored.Lines, 2)
	require.True(t, ev.CompletedAt.Equal(stored.CompletedAt))

	_, err = s.Order(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteStore(t *testing.T) {
	s := newSQLite(t)
	exerciseStore(t, s)

	n, err := s.Turns(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	s := newSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))

	seeded, err := store.Seed(context.Background(), s, catalog.Seed())
	require.NoError(t, err)
	require.True(t, seeded)
}

func TestSQLiteFile(t *testing.T) {
	path := t.TempDir() + "/data/kiosk.db"
	s, err := store.NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(context.Background()))

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), "mysql", "")
	require.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := store.Open(ctx, store.DriverPostgres, dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	exerciseStore(t, s)
}

func TestRedisCarts(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	carts := store.NewRedisCarts(client, time.Minute)
	defer carts.Close()

	id := "test-" + time.Now().Format("150405.000000")
	empty, err := carts.LoadCart(ctx, id)
	require.NoError(t, err)
	require.True(t, empty.IsEmpty())

	cart := sampleCart(t)
	require.NoError(t, carts.SaveCart(ctx, id, cart))
	got, err := carts.LoadCart(ctx, id)
	require.NoError(t, err)
	require.True(t, got.Equal(cart))

	ttl, err := client.TTL(ctx, "kiosk:cart:"+id).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
