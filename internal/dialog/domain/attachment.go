package domain

// Attachment is a binary payload scoped to one message, ordered by Number
// starting at 0 and immutable once written. When a message has a primary
// rendered artifact it is always attachment 0.
type Attachment struct {
	MessageID   int64
	Number      int
	ContentType string
	Payload     []byte
}
