// Package app implements the case-handler-facing operations: creating
// outbound messages, reminders and statement returns, and reading a message
// together with its delivery status.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medkom/dialog-gateway/internal/adapters/permission"
	"github.com/medkom/dialog-gateway/internal/adapters/renderer"
	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	"github.com/medkom/dialog-gateway/internal/platform/database"
	"github.com/medkom/dialog-gateway/internal/platform/messagebus"
)

// DialogService orchestrates one outbound message creation: permission
// check, document rendering, transactional persistence of the message plus
// its rendered document, then a synchronous bus publish of the request
// event. The publish happens after commit; a publish failure surfaces to the
// caller while the stored message stays in place.
type DialogService struct {
	db          database.DB
	messages    domain.MessageRepository
	statuses    domain.StatusRepository
	attachments domain.AttachmentRepository
	renderer    renderer.Renderer
	permissions permission.Checker
	publisher   messagebus.Publisher
	topic       string
	logger      *slog.Logger
}

func NewDialogService(
	db database.DB,
	messages domain.MessageRepository,
	statuses domain.StatusRepository,
	attachments domain.AttachmentRepository,
	rend renderer.Renderer,
	permissions permission.Checker,
	publisher messagebus.Publisher,
	topic string,
	logger *slog.Logger,
) *DialogService {
	return &DialogService{
		db:          db,
		messages:    messages,
		statuses:    statuses,
		attachments: attachments,
		renderer:    rend,
		permissions: permissions,
		publisher:   publisher,
		topic:       topic,
		logger:      logger,
	}
}

// CreateOutbound opens a new conversation with a provider.
func (s *DialogService) CreateOutbound(ctx context.Context, actingUser string, spec domain.OutboundSpec) (*domain.DialogMessage, error) {
	if err := s.checkPermission(ctx, spec.SubjectIdent, actingUser); err != nil {
		return nil, err
	}
	msg, err := domain.NewOutboundMessage(spec)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, msg)
}

// CreateReminder sends a reminder for an earlier unanswered request.
func (s *DialogService) CreateReminder(ctx context.Context, actingUser string, originalUUID uuid.UUID, text string, document []domain.DocumentBlock) (*domain.DialogMessage, error) {
	original, err := s.messages.GetOutboundByUUID(ctx, originalUUID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(ctx, original.SubjectIdent, actingUser); err != nil {
		return nil, err
	}
	msg, err := domain.NewReminder(original, text, document)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, msg)
}

// CreateStatementReturn sends a received medical statement back to the
// provider for correction. The inbound statement identifies both the
// conversation and, through it, the outbound request that conversation
// started with.
func (s *DialogService) CreateStatementReturn(ctx context.Context, actingUser string, inboundUUID uuid.UUID, text string, document []domain.DocumentBlock) (*domain.DialogMessage, error) {
	inbound, err := s.messages.GetByUUID(ctx, inboundUUID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(ctx, inbound.SubjectIdent, actingUser); err != nil {
		return nil, err
	}

	// The conversation's newest outbound message may be a reminder, so the
	// lookup targets the statement request the conversation started with.
	request, err := s.messages.FindStatementRequestByConversation(ctx, inbound.ConversationRef, inbound.SubjectIdent)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return nil, ErrNoStatementToReturn
		}
		return nil, err
	}

	msg, err := domain.NewStatementReturn(inbound, request, text, document)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, msg)
}

// MessageWithStatus is the read model returned to case handlers.
type MessageWithStatus struct {
	Message *domain.DialogMessage
	Status  *domain.MessageStatus // nil until a delivery receipt arrived
}

// Get returns a message and its delivery status, if any, after a permission
// check against the message's subject.
func (s *DialogService) Get(ctx context.Context, actingUser string, id uuid.UUID) (*MessageWithStatus, error) {
	msg, err := s.messages.GetByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(ctx, msg.SubjectIdent, actingUser); err != nil {
		return nil, err
	}

	status, err := s.statuses.GetByMessageID(ctx, msg.ID)
	if err != nil && !errors.Is(err, domain.ErrStatusNotFound) {
		return nil, err
	}
	return &MessageWithStatus{Message: msg, Status: status}, nil
}

func (s *DialogService) checkPermission(ctx context.Context, subjectIdent, actingUser string) error {
	allowed, err := s.permissions.Allowed(ctx, subjectIdent, actingUser)
	if err != nil {
		return fmt.Errorf("permission check: %w", err)
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}

// dispatch renders, persists and publishes one outbound message.
func (s *DialogService) dispatch(ctx context.Context, msg *domain.DialogMessage) (*domain.DialogMessage, error) {
	pdf, err := s.renderer.Render(ctx, renderer.RenderRequest{
		KindCode: msg.Type.KindCode(),
		Title:    msg.Type.ArchiveTitle(),
		Text:     msg.Text,
		Blocks:   msg.Document,
	})
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	msg.AttachmentCount = 1
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if err := s.messages.Create(ctx, msg); err != nil {
			return fmt.Errorf("store message: %w", err)
		}
		return s.attachments.Create(ctx, &domain.Attachment{
			MessageID:   msg.ID,
			Number:      0,
			ContentType: "application/pdf",
			Payload:     pdf,
		})
	})
	if err != nil {
		return nil, err
	}
	messagesCreatedCounter.WithLabelValues(string(msg.Type)).Inc()

	if err := s.publishRequest(ctx, msg, pdf); err != nil {
		// The message is committed; the caller sees the publish failure and
		// can retry against the provider network integration.
		s.logger.ErrorContext(ctx, "message request publish failed after commit",
			"error", err, "message_uuid", msg.UUID, "type", msg.Type)
		return msg, fmt.Errorf("publish message request: %w", err)
	}
	return msg, nil
}

func (s *DialogService) publishRequest(ctx context.Context, msg *domain.DialogMessage, pdf []byte) error {
	var providerRef string
	if msg.ProviderRef != nil {
		providerRef = *msg.ProviderRef
	}
	event := domain.MessageRequestEvent{
		MessageUUID:     msg.UUID,
		ConversationRef: msg.ConversationRef,
		KindCode:        msg.Type.KindCode(),
		SubjectIdent:    msg.SubjectIdent,
		ProviderRef:     providerRef,
		Text:            msg.Text,
		DocumentPDF:     pdf,
		CreatedAt:       msg.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.publisher.Publish(ctx, s.topic, messagebus.SubjectKey(msg.SubjectIdent), payload)
}
