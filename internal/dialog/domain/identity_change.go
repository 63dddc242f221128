package domain

import "time"

// IdentityChange records that a subject person's identifier changed.
// Ingestion persists the pair; a periodic reconciliation job repoints
// historical messages to the new identifier and marks the pair processed.
type IdentityChange struct {
	ID          int64
	OldIdent    string
	NewIdent    string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
