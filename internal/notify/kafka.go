package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// kafkaNotifier publishes order-created events to a Kafka topic.
type kafkaNotifier struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaNotifier creates a Kafka-backed notifier. The order number is
// used as the message key so retries of the same order land on the same
// partition.
func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) Notifier {
	return &kafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger.With().Str("component", "kafka-notifier").Logger(),
	}
}

// NotifyOrderCreated publishes the event.
func (n *kafkaNotifier) NotifyOrderCreated(ctx context.Context, event OrderCreated) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: b,
	})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	n.logger.Debug().
		Str("order_number", event.OrderNumber).
		Msg("order created event published")

	return nil
}

// Close releases the underlying writer.
func (n *kafkaNotifier) Close() error {
	return n.writer.Close()
}
