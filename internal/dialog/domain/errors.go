package domain

import "errors"

// Construction precondition violations. These surface as user-visible
// rejections at the API boundary and are never swallowed.
var (
	ErrTypeNotCreatable     = errors.New("message type cannot be created directly")
	ErrSubjectRequired      = errors.New("subject person ident is required")
	ErrProviderRefRequired  = errors.New("provider ref is required for outbound messages")
	ErrExternalIDRequired   = errors.New("external message id is required for inbound messages")
	ErrOriginalRequired     = errors.New("original message is required")
	ErrOriginalNotOutbound  = errors.New("original message is not outbound")
	ErrReminderNotAllowed   = errors.New("message type does not permit reminders")
	ErrNotInboundStatement  = errors.New("message is not an inbound medical statement")
	ErrNotStatementRequest  = errors.New("message is not an outbound statement request")
	ErrConversationMismatch = errors.New("inbound statement and request belong to different conversations")
)

// Repository sentinels.
var (
	ErrMessageNotFound = errors.New("dialog message not found")
	ErrStatusNotFound  = errors.New("message status not found")
)
