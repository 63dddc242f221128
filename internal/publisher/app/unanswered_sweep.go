package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	"github.com/medkom/dialog-gateway/internal/platform/messagebus"
)

const jobUnanswered = "unanswered_sweep"

// UnansweredSweep publishes one event per outbound request that has gone
// unanswered past the configured threshold, then marks the message so it is
// never picked up again. Publish happens before the mark, so a crash in
// between replays the event; consumers deduplicate on the message uuid.
type UnansweredSweep struct {
	messages  domain.MessageRepository
	publisher messagebus.Publisher
	topic     string
	after     time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewUnansweredSweep(
	messages domain.MessageRepository,
	publisher messagebus.Publisher,
	topic string,
	after time.Duration,
	batchSize int,
	logger *slog.Logger,
) *UnansweredSweep {
	return &UnansweredSweep{
		messages:  messages,
		publisher: publisher,
		topic:     topic,
		after:     after,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *UnansweredSweep) Run(ctx context.Context) error {
	cutoff := s.now().Add(-s.after)
	candidates, err := s.messages.ListUnansweredCandidates(ctx, cutoff, s.batchSize)
	if err != nil {
		return fmt.Errorf("list unanswered candidates: %w", err)
	}

	for _, msg := range candidates {
		if err := s.process(ctx, msg); err != nil {
			// One bad candidate must not block the rest of the batch.
			s.logger.ErrorContext(ctx, "unanswered candidate failed",
				"message_uuid", msg.UUID, "error", err)
			continue
		}
		sweepCandidatesCounter.WithLabelValues(jobUnanswered, "published").Inc()
	}
	return nil
}

func (s *UnansweredSweep) process(ctx context.Context, msg *domain.DialogMessage) error {
	event := domain.UnansweredMessageEvent{
		MessageUUID:     msg.UUID,
		ConversationRef: msg.ConversationRef,
		KindCode:        msg.Type.KindCode(),
		SubjectIdent:    msg.SubjectIdent,
		CreatedAt:       msg.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal unanswered event: %w", err)
	}

	if err := s.publisher.Publish(ctx, s.topic, messagebus.SubjectKey(msg.SubjectIdent), payload); err != nil {
		sweepCandidatesCounter.WithLabelValues(jobUnanswered, "publish_failed").Inc()
		return fmt.Errorf("publish unanswered event: %w", err)
	}
	if err := s.messages.MarkUnansweredPublished(ctx, msg.ID, s.now()); err != nil {
		sweepCandidatesCounter.WithLabelValues(jobUnanswered, "mark_failed").Inc()
		return fmt.Errorf("mark unanswered published: %w", err)
	}
	return nil
}
