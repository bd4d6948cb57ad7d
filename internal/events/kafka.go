package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards events to a Kafka topic, keyed by user so one user's events stay ordered.
type KafkaSink struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewKafkaSink builds a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return NewKafkaSinkWithWriter(newKafkaWriter(brokers, topic))
}

// newKafkaWriter hashes the message key to pick the partition. A single event is flushed
// after BatchTimeout, so keep it short.
func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaSinkWithWriter wraps an existing writer.
func NewKafkaSinkWithWriter(w MessageWriter) *KafkaSink {
	return &KafkaSink{writer: w, timeout: 10 * time.Second}
}

// Send writes event as a JSON message.
func (k *KafkaSink) Send(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

// Close flushes and closes the writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
