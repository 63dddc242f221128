package domain

import "time"

// Status is the delivery/acceptance state reported for a message by the
// provider network.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusSent      Status = "SENT"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusSent, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// MessageStatus is the at-most-one status record of a message. It is
// upserted from delivery receipts and never deleted. Replayed receipts
// converge on the same final state; there is no ordering guard against an
// out-of-order receipt overwriting a later status with an earlier one.
type MessageStatus struct {
	MessageID int64
	Status    Status
	Detail    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
