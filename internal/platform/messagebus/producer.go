package messagebus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher is the narrow producer interface consumed by the sweeps and the
// dialog service.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Producer publishes records synchronously: every Publish waits for broker
// acknowledgment from all replicas within a bounded timeout, so a timeout
// surfaces as a retryable error to the caller.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a producer for the given brokers. The topic is set
// per record so one producer serves every outbound topic.
func NewProducer(brokers []string, logger *slog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
		MaxAttempts:  3,
		Async:        false,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...))
		}),
	}

	return &Producer{writer: writer, logger: logger}
}

// Publish writes one record and blocks until the broker acknowledges it or
// the write times out.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, p.writer.WriteTimeout)
	defer cancel()

	err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "record published", "topic", topic)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close producer: %w", err)
	}
	return nil
}
