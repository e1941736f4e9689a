package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"payments/internal/domain"
)

// statusEvent is the wire format of a payment status-change event.
type statusEvent struct {
	PaymentID       string `json:"payment_id"`
	OwnerExternalID string `json:"owner_external_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	OccurredAt      string `json:"occurred_at"`
}

// KafkaPublisher publishes payment status-change events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PaymentStatusChanged publishes the payment's current status keyed by
// payment id, so per-payment ordering is preserved within a partition.
func (p *KafkaPublisher) PaymentStatusChanged(ctx context.Context, payment *domain.Payment) error {
	value, err := json.Marshal(statusEvent{
		PaymentID:       payment.ID,
		OwnerExternalID: payment.OwnerExternalID,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		Status:          string(payment.Status),
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payment.ID),
		Value: value,
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when no brokers are configured.
type NoopPublisher struct{}

// PaymentStatusChanged discards the event.
func (NoopPublisher) PaymentStatusChanged(ctx context.Context, payment *domain.Payment) error {
	return nil
}
