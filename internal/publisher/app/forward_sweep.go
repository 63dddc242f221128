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

const jobForward = "forward_sweep"

// ForwardSweep announces every stored inbound provider message exactly once
// so case handling downstream can pick it up.
type ForwardSweep struct {
	messages  domain.MessageRepository
	publisher messagebus.Publisher
	topic     string
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewForwardSweep(
	messages domain.MessageRepository,
	publisher messagebus.Publisher,
	topic string,
	batchSize int,
	logger *slog.Logger,
) *ForwardSweep {
	return &ForwardSweep{
		messages:  messages,
		publisher: publisher,
		topic:     topic,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ForwardSweep) Run(ctx context.Context) error {
	candidates, err := s.messages.ListInboundUnforwarded(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("list unforwarded inbound: %w", err)
	}

	for _, msg := range candidates {
		if err := s.process(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "forward candidate failed",
				"message_uuid", msg.UUID, "error", err)
			continue
		}
		sweepCandidatesCounter.WithLabelValues(jobForward, "published").Inc()
	}
	return nil
}

func (s *ForwardSweep) process(ctx context.Context, msg *domain.DialogMessage) error {
	event := domain.ForwardedProviderMessageEvent{
		MessageUUID:     msg.UUID,
		ConversationRef: msg.ConversationRef,
		ParentRef:       msg.ParentRef,
		KindCode:        msg.Type.KindCode(),
		SubjectIdent:    msg.SubjectIdent,
		Text:            msg.Text,
		CreatedAt:       msg.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal forwarded event: %w", err)
	}

	if err := s.publisher.Publish(ctx, s.topic, messagebus.SubjectKey(msg.SubjectIdent), payload); err != nil {
		sweepCandidatesCounter.WithLabelValues(jobForward, "publish_failed").Inc()
		return fmt.Errorf("publish forwarded event: %w", err)
	}
	if err := s.messages.MarkForwardedPublished(ctx, msg.ID, s.now()); err != nil {
		sweepCandidatesCounter.WithLabelValues(jobForward, "mark_failed").Inc()
		return fmt.Errorf("mark forwarded published: %w", err)
	}
	return nil
}
