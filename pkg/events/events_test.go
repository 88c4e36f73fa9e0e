package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-kiosk/pkg/events"
	"github.com/teslashibe/go-kiosk/pkg/hub"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func completed() events.OrderCompleted {
	return events.OrderCompleted{
		OrderID:       "o1",
		SessionID:     "s1",
		PaymentMethod: "card",
		Lines:         []order.Line{{ItemID: "cola", DisplayName: "콜라", UnitPrice: 2000, Quantity: 2}},
		Total:         4000,
		CompletedAt:   time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublish(t *testing.T) {
	w := &fakeWriter{}
	k := events.NewKafkaWriter(w, events.DefaultTopic)

	require.NoError(t, k.Publish(context.Background(), completed()))
	require.Len(t, w.msgs, 1)
	require.Equal(t, "s1", string(w.msgs[0].Key))

	var env events.Envelope
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &env))
	require.Equal(t, events.TypeOrderCompleted, env.Type)
	require.Equal(t, 4000, env.Order.Total)
	require.Equal(t, "o1", env.Order.OrderID)

	require.NoError(t, k.Close())
	require.True(t, w.closed)
}

func TestKafkaPublishError(t *testing.T) {
	boom := errors.New("broker down")
	k := events.NewKafkaWriter(&fakeWriter{err: boom}, events.DefaultTopic)
	require.ErrorIs(t, k.Publish(context.Background(), completed()), boom)
}

func TestNewKafkaWithoutBrokers(t *testing.T) {
	_, err := events.NewKafka(nil, "")
	require.ErrorIs(t, err, events.ErrKafkaDisabled)
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	var delivered int
	ok := events.PublisherFunc(func(context.Context, events.OrderCompleted) error {
		delivered++
		return nil
	})
	failing := events.PublisherFunc(func(context.Context, events.OrderCompleted) error { return boom })

	err := events.Multi{failing, nil, ok}.Publish(context.Background(), completed())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, delivered, "later publishers still run")

	require.NoError(t, events.Multi{ok, events.Discard}.Publish(context.Background(), completed()))
}

func TestBroadcasterDropsWhenQueueFull(t *testing.T) {
	b := events.NewBroadcaster(hub.New("orders", nil))
	ctx := context.Background()

	var err error
	for i := 0; i < 1000 && err == nil; i++ {
		err = b.Publish(ctx, completed())
	}
	require.ErrorIs(t, err, events.ErrBroadcastDropped)
}
