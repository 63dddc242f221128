package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
)

const jobIdentity = "identity_reconciler"

// IdentityReconciler repoints stored dialog messages after a subject
// identifier change. Repoint and mark happen in the same pass; re-running a
// half-finished change is harmless because repointing an already-moved
// subject touches zero rows.
type IdentityReconciler struct {
	changes   domain.IdentityChangeRepository
	messages  domain.MessageRepository
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewIdentityReconciler(
	changes domain.IdentityChangeRepository,
	messages domain.MessageRepository,
	batchSize int,
	logger *slog.Logger,
) *IdentityReconciler {
	return &IdentityReconciler{
		changes:   changes,
		messages:  messages,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *IdentityReconciler) Run(ctx context.Context) error {
	pending, err := r.changes.ListUnprocessed(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("list unprocessed identity changes: %w", err)
	}

	for _, change := range pending {
		if err := r.process(ctx, change); err != nil {
			r.logger.ErrorContext(ctx, "identity change failed",
				"change_id", change.ID, "error", err)
			continue
		}
		sweepCandidatesCounter.WithLabelValues(jobIdentity, "published").Inc()
	}
	return nil
}

func (r *IdentityReconciler) process(ctx context.Context, change *domain.IdentityChange) error {
	moved, err := r.messages.RepointSubject(ctx, change.OldIdent, change.NewIdent)
	if err != nil {
		return fmt.Errorf("repoint subject: %w", err)
	}
	if err := r.changes.MarkProcessed(ctx, change.ID, r.now()); err != nil {
		sweepCandidatesCounter.WithLabelValues(jobIdentity, "mark_failed").Inc()
		return fmt.Errorf("mark identity change processed: %w", err)
	}
	r.logger.InfoContext(ctx, "identity change applied", "change_id", change.ID, "messages_moved", moved)
	return nil
}
