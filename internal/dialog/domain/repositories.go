package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRepository persists dialog messages. Implementations participate
// in an ambient transaction when the context carries one, which is how one
// ingestion batch commits atomically. ConversationRef is written on Create
// and never updated afterwards.
type MessageRepository interface {
	Create(ctx context.Context, msg *DialogMessage) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*DialogMessage, error)

	// Correlation lookups. Each returns ErrMessageNotFound on a miss.
	GetOutboundByUUID(ctx context.Context, id uuid.UUID) (*DialogMessage, error)
	FindOutboundByConversation(ctx context.Context, conversationRef uuid.UUID, subjectIdent string) (*DialogMessage, error)
	// FindStatementRequestByConversation returns the outbound statement
	// request the conversation started with, ignoring later outbound
	// messages such as reminders.
	FindStatementRequestByConversation(ctx context.Context, conversationRef uuid.UUID, subjectIdent string) (*DialogMessage, error)
	LatestOutboundStatementRequest(ctx context.Context, subjectIdent string, sentAfter time.Time) (*DialogMessage, error)

	// Outbox sweeps. List methods never return rows whose marker is set;
	// Mark methods set the marker exactly once.
	ListUnansweredCandidates(ctx context.Context, olderThan time.Time, limit int) ([]*DialogMessage, error)
	MarkUnansweredPublished(ctx context.Context, id int64, at time.Time) error
	ListRejectedUnpublished(ctx context.Context, limit int) ([]*DialogMessage, error)
	MarkRejectedPublished(ctx context.Context, id int64, at time.Time) error
	ListInboundUnforwarded(ctx context.Context, limit int) ([]*DialogMessage, error)
	MarkForwardedPublished(ctx context.Context, id int64, at time.Time) error

	// Archive dispatch.
	ListUnarchived(ctx context.Context, limit int) ([]*DialogMessage, error)
	SetArchiveRef(ctx context.Context, id int64, ref string) error

	// Identity reconciliation: repoints every message of oldIdent to
	// newIdent; returns the number of rows touched.
	RepointSubject(ctx context.Context, oldIdent, newIdent string) (int64, error)
}

// StatusRepository persists the at-most-one status record per message.
type StatusRepository interface {
	// Upsert inserts the status row for a message or updates status,
	// detail and updated_at in place when one exists.
	Upsert(ctx context.Context, messageID int64, status Status, detail string) error
	GetByMessageID(ctx context.Context, messageID int64) (*MessageStatus, error)
}

// AttachmentRepository persists message-scoped binary payloads.
type AttachmentRepository interface {
	Create(ctx context.Context, att *Attachment) error
	Get(ctx context.Context, messageID int64, number int) (*Attachment, error)
	ListByMessage(ctx context.Context, messageID int64) ([]*Attachment, error)
}

// IdentityChangeRepository persists subject identifier changes awaiting
// reconciliation.
type IdentityChangeRepository interface {
	Create(ctx context.Context, oldIdent, newIdent string) error
	ListUnprocessed(ctx context.Context, limit int) ([]*IdentityChange, error)
	MarkProcessed(ctx context.Context, id int64, at time.Time) error
}
