package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageRequestEvent is published for every newly created outbound message
// together with its rendered document bytes. It is the record the provider
// network integration acts on.
type MessageRequestEvent struct {
	MessageUUID     uuid.UUID `json:"message_uuid"`
	ConversationRef uuid.UUID `json:"conversation_ref"`
	KindCode        string    `json:"kind_code"`
	SubjectIdent    string    `json:"subject_ident"`
	ProviderRef     string    `json:"provider_ref"`
	Text            string    `json:"text"`
	DocumentPDF     []byte    `json:"document_pdf"`
	CreatedAt       time.Time `json:"created_at"`
}

// UnansweredMessageEvent is published once when an outbound request has
// gone unanswered past the configured threshold.
type UnansweredMessageEvent struct {
	MessageUUID     uuid.UUID `json:"message_uuid"`
	ConversationRef uuid.UUID `json:"conversation_ref"`
	KindCode        string    `json:"kind_code"`
	SubjectIdent    string    `json:"subject_ident"`
	CreatedAt       time.Time `json:"created_at"`
}

// RejectedMessageEvent is published once when a provider network rejected
// an outbound message.
type RejectedMessageEvent struct {
	MessageUUID     uuid.UUID `json:"message_uuid"`
	ConversationRef uuid.UUID `json:"conversation_ref"`
	KindCode        string    `json:"kind_code"`
	SubjectIdent    string    `json:"subject_ident"`
	StatusDetail    string    `json:"status_detail,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ForwardedProviderMessageEvent is published once per inbound provider
// message so downstream case handling can react to it.
type ForwardedProviderMessageEvent struct {
	MessageUUID     uuid.UUID  `json:"message_uuid"`
	ConversationRef uuid.UUID  `json:"conversation_ref"`
	ParentRef       *uuid.UUID `json:"parent_ref,omitempty"`
	KindCode        string     `json:"kind_code"`
	SubjectIdent    string     `json:"subject_ident"`
	Text            string     `json:"text"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Consumers of all four topics must treat deliveries as at-least-once and
// deduplicate on MessageUUID: a crash between publish and outbox marking
// replays the event on the next sweep.
