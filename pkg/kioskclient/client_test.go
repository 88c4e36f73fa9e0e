package kioskclient_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/hub"
	"github.com/teslashibe/go-kiosk/pkg/intent"
	"github.com/teslashibe/go-kiosk/pkg/kiosk"
	"github.com/teslashibe/go-kiosk/pkg/kioskclient"
	"github.com/teslashibe/go-kiosk/pkg/web"
)

func startServer(t *testing.T) (*kioskclient.Client, *hub.Hub) {
	t.Helper()
	orders := hub.New("orders", nil)
	engine := kiosk.NewEngine(nil, catalog.NewSnapshot(catalog.Seed()),
		kiosk.WithPublisher(events.NewBroadcaster(orders)))
	srv := web.NewServer(":0", engine, kiosk.NewRegistry(time.Hour), web.WithOrderHub(orders))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
	})
	return kioskclient.New("http://" + ln.Addr().String()), orders
}

func TestSessionOverHTTP(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	menu, err := c.Menu(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, menu)

	found, err := c.Search(ctx, "새우")
	require.NoError(t, err)
	require.NotEmpty(t, found)
	require.Equal(t, "shrimp", found[0].ID)

	view, err := c.CreateSession(ctx, kiosk.OrderTakeout)
	require.NoError(t, err)
	require.Equal(t, kiosk.ScreenMenuBrowsing, view.Screen)

	out, err := c.Say(ctx, view.ID, "콜라 주세요")
	require.NoError(t, err)
	require.Equal(t, 2000, out.Session.Cart.Total())

	out, err = c.Touch(ctx, view.ID, intent.Checkout())
	require.NoError(t, err)
	require.Equal(t, kiosk.ScreenOrderConfirm, out.Session.Screen)

	back, err := c.Back(ctx, view.ID)
	require.NoError(t, err)
	require.Equal(t, kiosk.ScreenMenuBrowsing, back.Screen)

	got, err := c.Session(ctx, view.ID)
	require.NoError(t, err)
	require.Equal(t, back.Screen, got.Screen)

	_, err = c.Session(ctx, "missing")
	require.True(t, errors.Is(err, kiosk.ErrSessionNotFound), "got %v", err)
}

func TestStreamCompletesOrder(t *testing.T) {
	c, orders := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	feed, err := c.Orders(ctx)
	require.NoError(t, err)
	defer feed.Close()
	require.Eventually(t, func() bool { return orders.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	view, err := c.CreateSession(ctx, kiosk.OrderDineIn)
	require.NoError(t, err)

	stream, err := c.Dial(ctx, view.ID)
	require.NoError(t, err)
	defer stream.Close()
	require.Equal(t, view.ID, stream.Initial.ID)

	steps := []struct {
		text string
		want kiosk.Screen
	}{
		{"콜라 주세요", kiosk.ScreenMenuBrowsing},
		{"결제", kiosk.ScreenOrderConfirm},
		{"결제", kiosk.ScreenPoints},
		{"필요없어요", kiosk.ScreenPayment},
	}
	for _, step := range steps {
		out, err := stream.Say(step.text)
		require.NoError(t, err)
		require.Equal(t, step.want, out.Session.Screen, "after %q", step.text)
	}

	out, err := stream.Back()
	require.NoError(t, err)
	require.Equal(t, kiosk.ScreenPoints, out.Session.Screen)
	out, err = stream.Say("필요없어요")
	require.NoError(t, err)
	require.Equal(t, kiosk.ScreenPayment, out.Session.Screen)

	out, err = stream.Touch(intent.Choose(string(kiosk.PaymentCard)))
	require.NoError(t, err)
	require.NotNil(t, out.Completed)
	require.Equal(t, kiosk.ScreenHome, out.Session.Screen)

	ev, err := feed.Next()
	require.NoError(t, err)
	require.Equal(t, out.Completed.OrderID, ev.OrderID)
	require.Equal(t, 2000, ev.Total)
	require.Equal(t, "card", ev.PaymentMethod)
	require.Equal(t, "dinein", ev.OrderType)
}

func TestDialUnknownSession(t *testing.T) {
	c, _ := startServer(t)
	_, err := c.Dial(context.Background(), "missing")
	require.ErrorIs(t, err, kiosk.ErrSessionNotFound)
}
