// Package producer publishes notification lifecycle events to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/events"
	"github.com/afikmenashe/adherence-platform/internal/notification"
	kafkautil "github.com/afikmenashe/adherence-platform/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a Kafka writer and publishes notification events keyed by
// notification_id, so every event for one notification lands on one partition.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a Kafka producer for the given comma-separated brokers.
func NewProducer(brokers string, topic string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}
	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
	)

	kafkautil.EnsureTopic(brokerList[0], topic, 3)

	slog.Info("Kafka producer configured",
		"write_timeout", kafkautil.WriteTimeout,
		"required_acks", "RequireOne",
		"partition_key", "notification_id (hashed)",
	)

	return &Producer{
		writer: kafkautil.NewWriter(brokerList, topic),
		topic:  topic,
	}, nil
}

// Publish serializes event to JSON and writes it synchronously.
func (p *Producer) Publish(ctx context.Context, event *events.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.NotificationID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "schema_version", Value: []byte(strconv.Itoa(event.SchemaVersion))},
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "client_id", Value: []byte(event.ClientID)},
		},
		Time: time.Unix(event.OccurredAt, 0),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"notification_id", event.NotificationID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Info("Published notification event",
		"notification_id", event.NotificationID,
		"client_id", event.ClientID,
		"event_type", event.EventType,
	)
	return nil
}

// PublishCreated publishes a NOTIFICATION_CREATED event.
func (p *Producer) PublishCreated(ctx context.Context, n *notification.Notification) error {
	return p.Publish(ctx, events.Created(n))
}

// PublishTransition publishes the triaged or resolved event for n.
func (p *Producer) PublishTransition(ctx context.Context, n *notification.Notification, from notification.Status) error {
	event := events.Transitioned(n, from)
	if event == nil {
		return fmt.Errorf("no event for status %s", n.Status)
	}
	return p.Publish(ctx, event)
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	return nil
}

// NoOp discards events. Used when no brokers are configured.
type NoOp struct{}

func (NoOp) PublishCreated(context.Context, *notification.Notification) error { return nil }

func (NoOp) PublishTransition(context.Context, *notification.Notification, notification.Status) error {
	return nil
}

func (NoOp) Close() error { return nil }
