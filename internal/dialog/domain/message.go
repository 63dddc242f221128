package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction tells whether a message was sent to a provider or received
// from one, relative to the case-handling system.
type Direction string

const (
	DirectionOutbound Direction = "OUTBOUND"
	DirectionInbound  Direction = "INBOUND"
)

// DialogMessage is the central entity: one message in a conversation
// between a case handler and a healthcare provider.
//
// ID is an internal ordinal and never leaves the service; UUID is the
// external identity. ConversationRef is shared by every message in a
// conversation and immutable once persisted. ParentRef points at the
// specific message this one replies to or supersedes and is only a
// lineage/correlation hint.
type DialogMessage struct {
	ID              int64
	UUID            uuid.UUID
	Direction       Direction
	ConversationRef uuid.UUID
	ParentRef       *uuid.UUID
	Type            MessageType

	SubjectIdent  string
	ProviderIdent *string
	ProviderName  *string
	// ProviderRef is the provider's address on the messaging network.
	// Required for OUTBOUND messages, absent for INBOUND ones.
	ProviderRef *string
	// ExternalMessageID is the originating network's id of an INBOUND
	// delivery, kept for traceability. Absent for OUTBOUND messages.
	ExternalMessageID *string

	Text            string
	Document        []DocumentBlock
	AttachmentCount int

	// ArchiveRef is set exactly once, when the archive dispatcher succeeds.
	ArchiveRef *string

	// Outbox markers. Each is set exactly once; a set marker keeps the row
	// out of the corresponding sweep forever.
	UnansweredPublishedAt *time.Time
	RejectedPublishedAt   *time.Time
	ForwardedPublishedAt  *time.Time

	CreatedAt time.Time
}

// OutboundSpec carries the caller-supplied fields for a new outbound
// message.
type OutboundSpec struct {
	Type          MessageType
	SubjectIdent  string
	ProviderRef   string
	ProviderIdent *string
	ProviderName  *string
	Text          string
	Document      []DocumentBlock
}

// NewOutboundMessage constructs a new outbound message opening a new
// conversation. Only case-handler-initiated types are accepted; reminders
// and statement returns have their own constructors because they depend on
// prior messages.
func NewOutboundMessage(spec OutboundSpec) (*DialogMessage, error) {
	switch spec.Type {
	case TypeInfoRequest, TypeStatementRequest, TypeNoteToProvider:
	default:
		return nil, ErrTypeNotCreatable
	}
	if spec.SubjectIdent == "" {
		return nil, ErrSubjectRequired
	}
	if spec.ProviderRef == "" {
		return nil, ErrProviderRefRequired
	}

	providerRef := spec.ProviderRef
	return &DialogMessage{
		UUID:            uuid.New(),
		Direction:       DirectionOutbound,
		ConversationRef: uuid.New(),
		Type:            spec.Type,
		SubjectIdent:    spec.SubjectIdent,
		ProviderIdent:   spec.ProviderIdent,
		ProviderName:    spec.ProviderName,
		ProviderRef:     &providerRef,
		Text:            spec.Text,
		Document:        spec.Document,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// NewReminder constructs a reminder for an earlier outbound request. The
// original's type must permit reminders; the reminder joins the original's
// conversation and points at it through ParentRef.
func NewReminder(original *DialogMessage, text string, document []DocumentBlock) (*DialogMessage, error) {
	if original == nil {
		return nil, ErrOriginalRequired
	}
	if original.Direction != DirectionOutbound {
		return nil, ErrOriginalNotOutbound
	}
	if !original.Type.AllowsReminder() {
		return nil, ErrReminderNotAllowed
	}

	parent := original.UUID
	return &DialogMessage{
		UUID:            uuid.New(),
		Direction:       DirectionOutbound,
		ConversationRef: original.ConversationRef,
		ParentRef:       &parent,
		Type:            TypeReminder,
		SubjectIdent:    original.SubjectIdent,
		ProviderIdent:   original.ProviderIdent,
		ProviderName:    original.ProviderName,
		ProviderRef:     original.ProviderRef,
		Text:            text,
		Document:        document,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// NewStatementReturn constructs a return of a medical statement: the case
// handler sends a received statement back to the provider for correction.
// It requires the inbound statement being returned and the outbound request
// that statement answered; the return inherits the request's conversation
// and points at the inbound statement through ParentRef.
func NewStatementReturn(inbound, request *DialogMessage, text string, document []DocumentBlock) (*DialogMessage, error) {
	if inbound == nil || request == nil {
		return nil, ErrOriginalRequired
	}
	if inbound.Direction != DirectionInbound || inbound.Type != TypeStatementRequest {
		return nil, ErrNotInboundStatement
	}
	if request.Direction != DirectionOutbound || request.Type != TypeStatementRequest {
		return nil, ErrNotStatementRequest
	}
	if inbound.ConversationRef != request.ConversationRef {
		return nil, ErrConversationMismatch
	}

	parent := inbound.UUID
	return &DialogMessage{
		UUID:            uuid.New(),
		Direction:       DirectionOutbound,
		ConversationRef: request.ConversationRef,
		ParentRef:       &parent,
		Type:            TypeStatementReturn,
		SubjectIdent:    request.SubjectIdent,
		ProviderIdent:   request.ProviderIdent,
		ProviderName:    request.ProviderName,
		ProviderRef:     request.ProviderRef,
		Text:            text,
		Document:        document,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// InboundSpec carries the correlated fields for an inbound message about to
// be persisted.
type InboundSpec struct {
	Type              MessageType
	ConversationRef   uuid.UUID
	ParentRef         *uuid.UUID
	SubjectIdent      string
	ProviderIdent     *string
	ProviderName      *string
	ExternalMessageID string
	Text              string
	Document          []DocumentBlock
}

// NewInboundMessage constructs an inbound message already attached to a
// conversation by the correlation engine.
func NewInboundMessage(spec InboundSpec) (*DialogMessage, error) {
	if spec.ExternalMessageID == "" {
		return nil, ErrExternalIDRequired
	}
	if spec.SubjectIdent == "" {
		return nil, ErrSubjectRequired
	}

	externalID := spec.ExternalMessageID
	return &DialogMessage{
		UUID:              uuid.New(),
		Direction:         DirectionInbound,
		ConversationRef:   spec.ConversationRef,
		ParentRef:         spec.ParentRef,
		Type:              spec.Type,
		SubjectIdent:      spec.SubjectIdent,
		ProviderIdent:     spec.ProviderIdent,
		ProviderName:      spec.ProviderName,
		ExternalMessageID: &externalID,
		Text:              spec.Text,
		Document:          spec.Document,
		CreatedAt:         time.Now().UTC(),
	}, nil
}
