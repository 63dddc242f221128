// Package permission wraps the external access-control service. The gateway
// never evaluates access rules itself; it delegates every check.
package permission

import "context"

// Checker answers whether the acting user may handle the subject person's
// dialog messages.
type Checker interface {
	Allowed(ctx context.Context, subjectIdent, actingUser string) (bool, error)
}
