// Package kafka provides shared Kafka writer utilities.
package kafka

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// WriteTimeout is the maximum time to wait for a Kafka write operation.
const WriteTimeout = 10 * time.Second

// ParseBrokers parses a comma-separated broker list and trims whitespace.
// Empty entries are dropped.
func ParseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ValidateProducerParams validates common producer parameters.
func ValidateProducerParams(brokers, topic string) error {
	if len(ParseBrokers(brokers)) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	return nil
}

// NewWriter creates a synchronous writer with at-least-once delivery.
// Messages are partitioned by key hash.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// EnsureTopic creates topic if it does not exist. Best effort: failures are
// logged and the topic may need to be created manually.
func EnsureTopic(broker, topic string, partitions int) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		slog.Warn("Could not connect to Kafka to check/create topic",
			"broker", broker,
			"topic", topic,
			"error", err,
		)
		return
	}
	defer conn.Close()

	if existing, err := conn.ReadPartitions(topic); err == nil && len(existing) > 0 {
		slog.Info("Topic already exists", "topic", topic, "partitions", len(existing))
		return
	}

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		slog.Warn("Could not create topic", "topic", topic, "error", err)
		return
	}
	slog.Info("Created topic", "topic", topic, "partitions", partitions)
}
