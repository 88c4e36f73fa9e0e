package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives completed orders.
const DefaultTopic = "kiosk.orders"

// ErrKafkaDisabled is returned by NewKafka without brokers.
var ErrKafkaDisabled = errors.New("events: kafka disabled")

// MessageWriter is the part of kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes completed orders to a topic, keyed by session so that one
// session's orders stay in one partition.
type Kafka struct {
	w     MessageWriter
	topic string
}

// NewKafka creates a publisher writing to topic on brokers.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, ErrKafkaDisabled
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return NewKafkaWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, topic), nil
}

// NewKafkaWriter publishes through w.
func NewKafkaWriter(w MessageWriter, topic string) *Kafka {
	return &Kafka{w: w, topic: topic}
}

// Publish implements Publisher.
func (k *Kafka) Publish(ctx context.Context, ev OrderCompleted) error {
	data, err := json.Marshal(Envelope{Type: TypeOrderCompleted, Order: ev})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(ev.SessionID),
		Value: data,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeOrderCompleted)},
		},
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publish to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.w.Close()
}

var _ Publisher = (*Kafka)(nil)
