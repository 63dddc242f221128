package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	"github.com/medkom/dialog-gateway/internal/platform/messagebus"
)

const jobRejected = "rejected_sweep"

// RejectedSweep publishes one event per outbound message whose delivery
// receipt reported a rejection and that has not been announced yet.
type RejectedSweep struct {
	messages  domain.MessageRepository
	statuses  domain.StatusRepository
	publisher messagebus.Publisher
	topic     string
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewRejectedSweep(
	messages domain.MessageRepository,
	statuses domain.StatusRepository,
	publisher messagebus.Publisher,
	topic string,
	batchSize int,
	logger *slog.Logger,
) *RejectedSweep {
	return &RejectedSweep{
		messages:  messages,
		statuses:  statuses,
		publisher: publisher,
		topic:     topic,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *RejectedSweep) Run(ctx context.Context) error {
	candidates, err := s.messages.ListRejectedUnpublished(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("list rejected candidates: %w", err)
	}

	for _, msg := range candidates {
		if err := s.process(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "rejected candidate failed",
				"message_uuid", msg.UUID, "error", err)
			continue
		}
		sweepCandidatesCounter.WithLabelValues(jobRejected, "published").Inc()
	}
	return nil
}

func (s *RejectedSweep) process(ctx context.Context, msg *domain.DialogMessage) error {
	event := domain.RejectedMessageEvent{
		MessageUUID:     msg.UUID,
		ConversationRef: msg.ConversationRef,
		KindCode:        msg.Type.KindCode(),
		SubjectIdent:    msg.SubjectIdent,
		CreatedAt:       msg.CreatedAt,
	}

	status, err := s.statuses.GetByMessageID(ctx, msg.ID)
	switch {
	case err == nil:
		event.StatusDetail = status.Detail
	case errors.Is(err, domain.ErrStatusNotFound):
		// Candidate listing saw a REJECTED status, so this should not
		// happen; publish without the detail rather than stall the sweep.
	default:
		return fmt.Errorf("load status detail: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal rejected event: %w", err)
	}

	if err := s.publisher.Publish(ctx, s.topic, messagebus.SubjectKey(msg.SubjectIdent), payload); err != nil {
		sweepCandidatesCounter.WithLabelValues(jobRejected, "publish_failed").Inc()
		return fmt.Errorf("publish rejected event: %w", err)
	}
	if err := s.messages.MarkRejectedPublished(ctx, msg.ID, s.now()); err != nil {
		sweepCandidatesCounter.WithLabelValues(jobRejected, "mark_failed").Inc()
		return fmt.Errorf("mark rejected published: %w", err)
	}
	return nil
}
