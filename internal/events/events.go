// Package events publishes domain events about scans and leads for
// downstream consumers such as analytics and billing.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type Type string

const (
	ScanCreated   Type = "scan.created"
	ChatStarted   Type = "chat.started"
	LeadAccepted  Type = "lead.accepted"
	LeadDeclined  Type = "lead.declined"
	LeadConverted Type = "lead.converted"
)

type Event struct {
	Type         Type      `json:"type"`
	ClientID     string    `json:"clientId"`
	ChatID       string    `json:"chatId,omitempty"`
	RestaurantID string    `json:"restaurantId,omitempty"`
	ScanID       string    `json:"scanId,omitempty"`
	At           time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// MessageWriter is the part of *kafka.Writer used by Kafka.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON, keyed by client id so that the events of
// one client stay ordered within a partition.
type Kafka struct {
	writer MessageWriter
}

func NewKafka(writer MessageWriter) *Kafka {
	return &Kafka{writer: writer}
}

// BatchTimeout bounds how long a publish waits for more messages to fill
// a batch.
const BatchTimeout = 10 * time.Millisecond

func NewKafkaWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           BatchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ClientID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
