package stream

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher mirrors accepted events to an external feed. Implementations
// must tolerate broker unavailability; mirror failures never fail an
// ingestion.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

// KafkaMirror publishes each accepted event to a single Kafka topic.
type KafkaMirror struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewKafkaMirror creates a mirror producing to topic on the given
// comma-separated broker list.
func NewKafkaMirror(brokers, topic string) *KafkaMirror {
	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaMirror{writer: w, timeout: 10 * time.Second}
}

// Publish produces one event line. The key is the producing agent's id so
// per-agent ordering survives partitioning.
func (m *KafkaMirror) Publish(ctx context.Context, key string, value []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}

func (m *KafkaMirror) Close() error {
	return m.writer.Close()
}
