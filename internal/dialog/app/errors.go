package app

import "errors"

var (
	// ErrPermissionDenied means the external permission service refused the
	// acting user access to the subject person's dialog.
	ErrPermissionDenied = errors.New("acting user may not handle this subject's dialog")
	// ErrNoStatementToReturn means no outbound statement request exists in
	// the inbound statement's conversation.
	ErrNoStatementToReturn = errors.New("no outbound statement request found for conversation")
)
