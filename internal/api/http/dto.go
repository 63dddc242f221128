package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
)

// DocumentBlockDTO is a structured document component on the wire.
type DocumentBlockDTO struct {
	Kind string `json:"kind" validate:"required,oneof=HEADER PARAGRAPH"`
	Text string `json:"text" validate:"required"`
}

// CreateMessageRequest is the body for POST /v1/dialog-messages.
type CreateMessageRequest struct {
	Type          string             `json:"type" validate:"required"`
	SubjectIdent  string             `json:"subject_ident" validate:"required"`
	ProviderRef   string             `json:"provider_ref" validate:"required"`
	ProviderIdent *string            `json:"provider_ident,omitempty"`
	ProviderName  *string            `json:"provider_name,omitempty"`
	Text          string             `json:"text" validate:"required"`
	Document      []DocumentBlockDTO `json:"document" validate:"required,min=1,dive"`
}

// CreateReminderRequest is the body for
// POST /v1/dialog-messages/{messageUUID}/reminder.
type CreateReminderRequest struct {
	Text     string             `json:"text" validate:"required"`
	Document []DocumentBlockDTO `json:"document" validate:"required,min=1,dive"`
}

// CreateStatementReturnRequest is the body for POST /v1/statement-returns.
type CreateStatementReturnRequest struct {
	InboundMessageUUID string             `json:"inbound_message_uuid" validate:"required,uuid4"`
	Text               string             `json:"text" validate:"required"`
	Document           []DocumentBlockDTO `json:"document" validate:"required,min=1,dive"`
}

// StatusDTO mirrors the at-most-one delivery status of a message.
type StatusDTO struct {
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageResponse is the read model returned for every message operation.
type MessageResponse struct {
	MessageUUID     uuid.UUID  `json:"message_uuid"`
	ConversationRef uuid.UUID  `json:"conversation_ref"`
	ParentRef       *uuid.UUID `json:"parent_ref,omitempty"`
	Direction       string     `json:"direction"`
	Type            string     `json:"type"`
	SubjectIdent    string     `json:"subject_ident"`
	ProviderIdent   *string    `json:"provider_ident,omitempty"`
	ProviderName    *string    `json:"provider_name,omitempty"`
	ProviderRef     *string    `json:"provider_ref,omitempty"`
	Text            string     `json:"text"`
	AttachmentCount int        `json:"attachment_count"`
	ArchiveRef      *string    `json:"archive_ref,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Status          *StatusDTO `json:"status,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toMessageResponse(msg *domain.DialogMessage, status *domain.MessageStatus) MessageResponse {
	resp := MessageResponse{
		MessageUUID:     msg.UUID,
		ConversationRef: msg.ConversationRef,
		ParentRef:       msg.ParentRef,
		Direction:       string(msg.Direction),
		Type:            string(msg.Type),
		SubjectIdent:    msg.SubjectIdent,
		ProviderIdent:   msg.ProviderIdent,
		ProviderName:    msg.ProviderName,
		ProviderRef:     msg.ProviderRef,
		Text:            msg.Text,
		AttachmentCount: msg.AttachmentCount,
		ArchiveRef:      msg.ArchiveRef,
		CreatedAt:       msg.CreatedAt,
	}
	if status != nil {
		resp.Status = &StatusDTO{
			Status:    string(status.Status),
			Detail:    status.Detail,
			UpdatedAt: status.UpdatedAt,
		}
	}
	return resp
}

func toDocumentBlocks(dtos []DocumentBlockDTO) []domain.DocumentBlock {
	blocks := make([]domain.DocumentBlock, 0, len(dtos))
	for _, d := range dtos {
		blocks = append(blocks, domain.DocumentBlock{Kind: domain.BlockKind(d.Kind), Text: d.Text})
	}
	return blocks
}
