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

// DialogMessageHandler ingests provider-dialog-message records: classify,
// correlate, persist. It is a RecordHandler and runs inside the batch
// transaction.
//
// Duplicate deliveries with identical correlation facts create additional
// rows; only reprocessing within one already-committed batch is prevented,
// by the gateway's commit ordering.
type DialogMessageHandler struct {
	correlator  *Correlator
	messages    domain.MessageRepository
	attachments domain.AttachmentRepository
	store       attachmentstore.Store
	topic       string
	logger      *slog.Logger
}

// NewDialogMessageHandler wires the handler for the given topic name (used
// only for metric labels).
func NewDialogMessageHandler(
	correlator *Correlator,
	messages domain.MessageRepository,
	attachments domain.AttachmentRepository,
	store attachmentstore.Store,
	topic string,
	logger *slog.Logger,
) *DialogMessageHandler {
	return &DialogMessageHandler{
		correlator:  correlator,
		messages:    messages,
		attachments: attachments,
		store:       store,
		topic:       topic,
		logger:      logger,
	}
}

// Handle processes one record. Unknown kinds, meeting acceptances and
// correlation misses are dropped outcomes, not errors.
func (h *DialogMessageHandler) Handle(ctx context.Context, value []byte) error {
	var rec ingestdomain.ProviderDialogMessageRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		h.logger.ErrorContext(ctx, "undecodable dialog message record dropped", "error", err)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_decode").Inc()
		return nil
	}

	// Meeting acceptances are identified by classification code, not kind,
	// and are always dropped before correlation.
	if rec.Classification == ingestdomain.ClassificationMeetingAccept {
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_kind").Inc()
		return nil
	}
	if rec.Kind != ingestdomain.KindReply && rec.Kind != ingestdomain.KindNote {
		h.logger.InfoContext(ctx, "unknown message kind dropped", "kind", rec.Kind)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_kind").Inc()
		return nil
	}

	match, err := h.correlator.Resolve(ctx, CorrelationInput{
		ConversationID: rec.ConversationID,
		ParentID:       rec.ParentID,
		SubjectIdent:   rec.SubjectIdent,
	})
	if err != nil {
		return fmt.Errorf("correlate dialog message %s: %w", rec.ExternalMessageID, err)
	}
	if match == nil {
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_no_conversation").Inc()
		return nil
	}

	// A reply stays within the conversation's type; a note gets its own.
	msgType := match.Owner.Type
	if rec.Kind == ingestdomain.KindNote {
		msgType = domain.TypeNoteFromProvider
	}

	msg, err := domain.NewInboundMessage(domain.InboundSpec{
		Type:              msgType,
		ConversationRef:   match.ConversationRef,
		ParentRef:         match.ParentRef,
		SubjectIdent:      rec.SubjectIdent,
		ProviderIdent:     optional(rec.ProviderIdent),
		ProviderName:      optional(rec.ProviderName),
		ExternalMessageID: rec.ExternalMessageID,
		Text:              rec.Text,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "invalid inbound dialog message dropped",
			"error", err, "external_message_id", rec.ExternalMessageID)
		recordsProcessedCounter.WithLabelValues(h.topic, "dropped_invalid").Inc()
		return nil
	}
	msg.AttachmentCount = len(rec.AttachmentIDs)

	if err := h.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("persist inbound message %s: %w", rec.ExternalMessageID, err)
	}

	// Attachments keep the supplied order, numbered from 0.
	for i, attID := range rec.AttachmentIDs {
		content, err := h.store.Fetch(ctx, attID)
		if err != nil {
			return fmt.Errorf("fetch attachment %s: %w", attID, err)
		}
		att := &domain.Attachment{
			MessageID:   msg.ID,
			Number:      i,
			ContentType: content.ContentType,
			Payload:     content.Bytes,
		}
		if err := h.attachments.Create(ctx, att); err != nil {
			return fmt.Errorf("persist attachment %d of message %s: %w", i, rec.ExternalMessageID, err)
		}
	}

	recordsProcessedCounter.WithLabelValues(h.topic, "handled").Inc()
	h.logger.InfoContext(ctx, "inbound dialog message ingested",
		"message_uuid", msg.UUID, "conversation_ref", msg.ConversationRef, "attachments", len(rec.AttachmentIDs))
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
