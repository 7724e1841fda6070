// Package kafka publishes ledger events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
	"github.com/segmentio/kafka-go"
)

const defaultWriteTimeout = 5 * time.Second

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// JournalEventProducer writes one JSON message per ledger event, keyed by
// entry id so all events of an entry land on the same partition in order.
type JournalEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewJournalEventProducer creates a synchronous producer for topic on brokers.
func NewJournalEventProducer(logger *slog.Logger, brokers []string, topic string) (*JournalEventProducer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}
	if topic == "" {
		return nil, errors.New("kafka ledger topic is not configured")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           defaultWriteTimeout,
		AllowAutoTopicCreation: true,
	}

	return &JournalEventProducer{logger: logger, writer: writer, topic: topic}, nil
}

// Ensure JournalEventProducer implements portssvc.EventPublisher
var _ portssvc.EventPublisher = (*JournalEventProducer)(nil)

func (p *JournalEventProducer) Publish(ctx context.Context, event domain.LedgerEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.EntryID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, p.topic, err)
	}

	p.logger.Debug("Published ledger event",
		"topic", p.topic,
		"event_type", event.Type,
		"entry_id", event.EntryID,
	)
	return nil
}

func (p *JournalEventProducer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
