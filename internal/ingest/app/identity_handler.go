package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	ingestdomain "github.com/medkom/dialog-gateway/internal/ingest/domain"
)

// IdentityChangeHandler persists subject identifier changes. Repointing of
// historical messages happens asynchronously in the identity reconciliation
// job, not here.
type IdentityChangeHandler struct {
	changes domain.IdentityChangeRepository
	topic   string
	logger  *slog.Logger
}

func NewIdentityChangeHandler(changes domain.IdentityChangeRepository, topic string, logger *slog.Logger) *IdentityChangeHandler {
	return &IdentityChangeHandler{changes: changes, topic: topic, logger: logger}
}

// Handle processes one identity change record.
func (h *IdentityChangeHandler) Handle(ctx context.Context, value []byte) error {
	var rec ingestdomain.IdentityChangeRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		h.logger.ErrorContext(ctx, "undecodable identity change dropped", "error", err)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_decode").Inc()
		return nil
	}

	if rec.OldIdent == "" || rec.NewIdent == "" || rec.OldIdent == rec.NewIdent {
		h.logger.WarnContext(ctx, "identity change with unusable idents dropped")
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_invalid").Inc()
		return nil
	}

	if err := h.changes.Create(ctx, rec.OldIdent, rec.NewIdent); err != nil {
		return fmt.Errorf("persist identity change: %w", err)
	}

	recordsProcessedCounter.WithLabelValues(h.topic, "handled").Inc()
	return nil
}
