package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	"github.com/medkom/dialog-gateway/internal/platform/database"
)

// RecordHandler processes one record's payload inside the ambient batch
// transaction. Returning an error aborts the whole batch; handlers treat
// "no match" outcomes as success so one unmatched record cannot block the
// others.
type RecordHandler func(ctx context.Context, value []byte) error

// Gateway binds one consumed topic to its record handler and turns a
// fetched batch into exactly one storage transaction. Offsets are committed
// by the consumer only after HandleBatch returns nil, so the storage commit
// always happens strictly before the offset commit.
type Gateway struct {
	db      database.DB
	topic   string
	handler RecordHandler
	logger  *slog.Logger
}

// NewGateway creates the ingestion gateway for one topic.
func NewGateway(db database.DB, topic string, handler RecordHandler, logger *slog.Logger) *Gateway {
	return &Gateway{
		db:      db,
		topic:   topic,
		handler: handler,
		logger:  logger.With("topic", topic),
	}
}

// HandleBatch dispatches every record of the batch to the handler within a
// single transaction. Tombstone records (absent value) are counted and
// skipped. On any handler error the transaction is rolled back and the
// error is returned so the consumer leaves the batch's offsets uncommitted.
func (g *Gateway) HandleBatch(ctx context.Context, records []kafka.Message) error {
	timer := prometheus.NewTimer(batchDurationHist.WithLabelValues(g.topic))
	defer timer.ObserveDuration()

	err := database.RunInTx(ctx, g.db, func(txCtx context.Context) error {
		for _, rec := range records {
			if rec.Value == nil {
				recordsProcessedCounter.WithLabelValues(g.topic, "tombstone").Inc()
				continue
			}
			if err := g.handler(txCtx, rec.Value); err != nil {
				recordsProcessedCounter.WithLabelValues(g.topic, "failed").Inc()
				return fmt.Errorf("record at offset %d: %w", rec.Offset, err)
			}
		}
		return nil
	})
	if err != nil {
		batchesCounter.WithLabelValues(g.topic, "rolled_back").Inc()
		g.logger.ErrorContext(ctx, "ingestion batch rolled back", "error", err, "records", len(records))
		return err
	}

	batchesCounter.WithLabelValues(g.topic, "committed").Inc()
	g.logger.DebugContext(ctx, "ingestion batch committed", "records", len(records))
	return nil
}
