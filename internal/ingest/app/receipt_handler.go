package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	ingestdomain "github.com/medkom/dialog-gateway/internal/ingest/domain"
)

// ReceiptHandler reconciles delivery receipts into message status records.
// The upsert is keyed by message, so replayed receipts converge; receipts
// for unknown messages are dropped because they may race ahead of, or
// arrive long after, their message.
type ReceiptHandler struct {
	messages domain.MessageRepository
	statuses domain.StatusRepository
	topic    string
	logger   *slog.Logger
}

func NewReceiptHandler(messages domain.MessageRepository, statuses domain.StatusRepository, topic string, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{messages: messages, statuses: statuses, topic: topic, logger: logger}
}

// Handle processes one delivery receipt.
func (h *ReceiptHandler) Handle(ctx context.Context, value []byte) error {
	var rec ingestdomain.DeliveryReceiptRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		h.logger.ErrorContext(ctx, "undecodable delivery receipt dropped", "error", err)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_decode").Inc()
		return nil
	}

	status := domain.Status(rec.Status)
	if !status.Valid() {
		h.logger.WarnContext(ctx, "delivery receipt with unknown status dropped",
			"status", rec.Status, "message_id", rec.MessageID)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_invalid").Inc()
		return nil
	}

	messageUUID, err := uuid.Parse(rec.MessageID)
	if err != nil {
		h.logger.WarnContext(ctx, "delivery receipt with unparsable message id dropped",
			"message_id", rec.MessageID)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_invalid").Inc()
		return nil
	}

	msg, err := h.messages.GetByUUID(ctx, messageUUID)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			recordsProcessedCounter.WithLabelValues(h.topic, "dropped_unknown_message").Inc()
			return nil
		}
		return fmt.Errorf("look up message %s for receipt: %w", rec.MessageID, err)
	}

	if err := h.statuses.Upsert(ctx, msg.ID, status, rec.Detail); err != nil {
		return fmt.Errorf("upsert status for message %s: %w", rec.MessageID, err)
	}

	recordsProcessedCounter.WithLabelValues(h.topic, "handled").Inc()
	h.logger.InfoContext(ctx, "delivery receipt reconciled",
		"message_uuid", messageUUID, "status", status)
	return nil
}
