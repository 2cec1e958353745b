package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iho/gofinance/internal/domain"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes trade events to a Kafka topic. Messages are keyed
// by user and symbol so a user's trades in one ticker stay ordered within a
// partition.
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaWriter builds a writer for the given brokers and topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// NewKafkaPublisher creates a publisher writing through w.
func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// PublishTrade writes one message for the executed trade.
func (p *KafkaPublisher) PublishTrade(ctx context.Context, event domain.TradeExecutedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal trade event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID + "|" + event.Symbol),
		Value: payload,
		Time:  event.TransactedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(domain.EventTypeTradeExecuted)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write trade event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct{}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// PublishTrade logs the event with the request logger.
func (p *LogPublisher) PublishTrade(ctx context.Context, event domain.TradeExecutedEvent) error {
	zerolog.Ctx(ctx).Info().
		Str("event_type", domain.EventTypeTradeExecuted).
		Str("transaction_id", event.TransactionID).
		Str("side", string(event.Side)).
		Str("symbol", event.Symbol).
		Int64("shares", event.Shares).
		Str("price", event.Price).
		Msg("trade executed")

	return nil
}
