package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/medkom/dialog-gateway/internal/adapters/attachmentstore"
	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	ingestdomain "github.com/medkom/dialog-gateway/internal/ingest/domain"
)

// StatementHandler ingests provider-medical-statement records. The
// statement content lives in the external attachment store; only records
// with an OK validation outcome are processed. Statements may arrive with
// no conversation id at all, which is what the correlator's statement
// fallback (step 4) exists for.
type StatementHandler struct {
	correlator  *Correlator
	messages    domain.MessageRepository
	attachments domain.AttachmentRepository
	store       attachmentstore.Store
	topic       string
	logger      *slog.Logger
}

func NewStatementHandler(
	correlator *Correlator,
	messages domain.MessageRepository,
	attachments domain.AttachmentRepository,
	store attachmentstore.Store,
	topic string,
	logger *slog.Logger,
) *StatementHandler {
	return &StatementHandler{
		correlator:  correlator,
		messages:    messages,
		attachments: attachments,
		store:       store,
		topic:       topic,
		logger:      logger,
	}
}

// Handle processes one statement record.
func (h *StatementHandler) Handle(ctx context.Context, value []byte) error {
	var rec ingestdomain.ProviderMedicalStatementRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		h.logger.ErrorContext(ctx, "undecodable medical statement record dropped", "error", err)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_decode").Inc()
		return nil
	}

	if rec.ValidationOutcome != ingestdomain.StatementOutcomeOK {
		h.logger.InfoContext(ctx, "medical statement with non-OK outcome dropped",
			"outcome", rec.ValidationOutcome, "external_message_id", rec.ExternalMessageID)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_outcome").Inc()
		return nil
	}

	match, err := h.correlator.Resolve(ctx, CorrelationInput{
		ConversationID:    rec.ConversationID,
		ParentID:          rec.ParentID,
		SubjectIdent:      rec.SubjectIdent,
		StatementFallback: true,
	})
	if err != nil {
		return fmt.Errorf("correlate medical statement %s: %w", rec.ExternalMessageID, err)
	}
	if match == nil {
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_no_conversation").Inc()
		return nil
	}

	msg, err := domain.NewInboundMessage(domain.InboundSpec{
		Type:              domain.TypeStatementRequest,
		ConversationRef:   match.ConversationRef,
		ParentRef:         match.ParentRef,
		SubjectIdent:      rec.SubjectIdent,
		ProviderIdent:     optional(rec.ProviderIdent),
		ProviderName:      optional(rec.ProviderName),
		ExternalMessageID: rec.ExternalMessageID,
		Text:              rec.Text,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "invalid medical statement dropped",
			"error", err, "external_message_id", rec.ExternalMessageID)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_invalid").Inc()
		return nil
	}
	msg.AttachmentCount = 1

	if err := h.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("persist medical statement %s: %w", rec.ExternalMessageID, err)
	}

	// The rendered statement itself is the primary artifact, attachment 0.
	content, err := h.store.Fetch(ctx, rec.ContentRef)
	if err != nil {
		return fmt.Errorf("fetch statement content %s: %w", rec.ContentRef, err)
	}
	att := &domain.Attachment{
		MessageID:   msg.ID,
		Number:      0,
		ContentType: content.ContentType,
		Payload:     content.Bytes,
	}
	if err := h.attachments.Create(ctx, att); err != nil {
		return fmt.Errorf("persist statement content of %s: %w", rec.ExternalMessageID, err)
	}

	recordsProcessedCounter.WithLabelValues(h.topic, "handled").Inc()
	h.logger.InfoContext(ctx, "medical statement ingested",
		"message_uuid", msg.UUID, "conversation_ref", msg.ConversationRef)
	return nil
}
