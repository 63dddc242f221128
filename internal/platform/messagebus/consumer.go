package messagebus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// BatchHandler processes one fetched batch. It must either apply every
// record's effects atomically or return an error; offsets are committed
// only after the handler returns nil, and a failing batch is retried in
// place rather than skipped.
type BatchHandler func(ctx context.Context, records []kafka.Message) error

// BatchConsumer wraps a kafka-go reader into the gateway's
// poll / handle / commit loop for one topic.
type BatchConsumer struct {
	reader       *kafka.Reader
	logger       *slog.Logger
	batchSize    int
	pollTimeout  time.Duration
	retryBackoff time.Duration
}

// NewBatchConsumer creates a consumer for the given topic and group.
// Offset commits are explicit: the reader never auto-commits.
func NewBatchConsumer(brokers []string, groupID, topic string, batchSize int, pollTimeout time.Duration, logger *slog.Logger) *BatchConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          1,
		MaxBytes:          10e6,
		HeartbeatInterval: 3 * time.Second,
		CommitInterval:    0, // synchronous commits only
		MaxAttempts:       3,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error(fmt.Sprintf(msg, args...))
		}),
	})

	return &BatchConsumer{
		reader:       reader,
		logger:       logger.With("topic", topic),
		batchSize:    batchSize,
		pollTimeout:  pollTimeout,
		retryBackoff: time.Second,
	}
}

// Run polls for batches until ctx is cancelled. Each non-empty batch is
// handed to handler and retried until it succeeds; offsets are committed
// only after the handler succeeds, never mid-batch. Run exits at a batch
// boundary, never inside one.
func (c *BatchConsumer) Run(ctx context.Context, handler BatchHandler) error {
	c.logger.InfoContext(ctx, "starting message bus consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "consumer context cancelled, closing reader")
			return c.reader.Close()
		default:
		}

		records, err := c.fetchBatch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			c.logger.ErrorContext(ctx, "failed to fetch records", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if len(records) == 0 {
			continue
		}

		if err := c.deliver(ctx, handler, records); err != nil {
			// Shutdown mid-retry. Offsets stay uncommitted and the batch is
			// redelivered on the next start.
			c.logger.InfoContext(ctx, "consumer stopping with batch uncommitted", "records", len(records))
			return c.reader.Close()
		}

		if err := c.reader.CommitMessages(ctx, records...); err != nil {
			c.logger.ErrorContext(ctx, "failed to commit offsets", "error", err, "records", len(records))
		}
	}
}

const maxDeliverBackoff = 30 * time.Second

// deliver hands the in-hand batch to the handler until it succeeds,
// backing off between attempts. Fetching onward while a batch is unhandled
// would let a later commit acknowledge the failed batch's offsets, so the
// only way out without success is ctx cancellation.
func (c *BatchConsumer) deliver(ctx context.Context, handler BatchHandler, records []kafka.Message) error {
	backoff := c.retryBackoff
	for {
		err := handler(ctx, records)
		if err == nil {
			return nil
		}
		c.logger.ErrorContext(ctx, "batch handler failed, retrying same batch",
			"error", err, "records", len(records), "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxDeliverBackoff {
			backoff = maxDeliverBackoff
		}
	}
}

// fetchBatch reads up to batchSize records, waiting at most pollTimeout for
// the batch to fill. A deadline hit ends the batch, it is not an error.
func (c *BatchConsumer) fetchBatch(ctx context.Context) ([]kafka.Message, error) {
	deadline := time.Now().Add(c.pollTimeout)
	records := make([]kafka.Message, 0, c.batchSize)

	for len(records) < c.batchSize {
		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return records, nil
			}
			return records, err
		}
		records = append(records, msg)
	}
	return records, nil
}

// Close releases the underlying reader.
func (c *BatchConsumer) Close() error {
	return c.reader.Close()
}
