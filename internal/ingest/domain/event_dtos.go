package domain

// Message-kind codes carried on provider dialog message records. Only
// replies and notes are correlated; everything else is dropped before
// correlation.
const (
	KindReply = "REPLY"
	KindNote  = "NOTE"
)

// ClassificationMeetingAccept is the classification code marking a meeting
// acceptance. It is distinct from the message-kind field and always wins:
// records carrying it are dropped regardless of kind.
const ClassificationMeetingAccept = "MEETING_ACCEPT"

// ProviderDialogMessageRecord mirrors the payload of the
// provider-dialog-message topic.
type ProviderDialogMessageRecord struct {
	// ExternalMessageID is the originating network's id for this delivery.
	ExternalMessageID string `json:"external_message_id"`
	Kind              string `json:"kind"`
	Classification    string `json:"classification,omitempty"`
	// ConversationID is the conversation identifier claimed by the
	// provider. Providers sometimes echo a message id here instead.
	ConversationID string `json:"conversation_id,omitempty"`
	ParentID       string `json:"parent_id,omitempty"`
	SubjectIdent   string `json:"subject_ident"`
	ProviderIdent  string `json:"provider_ident,omitempty"`
	ProviderName   string `json:"provider_name,omitempty"`
	Text           string `json:"text"`
	// AttachmentIDs reference payloads in the external attachment store,
	// in order.
	AttachmentIDs []string `json:"attachment_ids,omitempty"`
}

// Validation outcomes on medical statement records. Only OK statements are
// processed.
const StatementOutcomeOK = "OK"

// ProviderMedicalStatementRecord mirrors the payload of the
// provider-medical-statement topic. The statement content itself lives in
// the external attachment store.
type ProviderMedicalStatementRecord struct {
	ExternalMessageID string `json:"external_message_id"`
	// ContentRef references the rendered statement in the external
	// attachment store.
	ContentRef        string `json:"content_ref"`
	ValidationOutcome string `json:"validation_outcome"`
	ConversationID    string `json:"conversation_id,omitempty"`
	ParentID          string `json:"parent_id,omitempty"`
	SubjectIdent      string `json:"subject_ident"`
	ProviderIdent     string `json:"provider_ident,omitempty"`
	ProviderName      string `json:"provider_name,omitempty"`
	Text              string `json:"text,omitempty"`
}

// DeliveryReceiptRecord mirrors the payload of the delivery-receipt topic.
// MessageID names the target message by the uuid it was published under.
type DeliveryReceiptRecord struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// IdentityChangeRecord mirrors the payload of the identity-change topic.
type IdentityChangeRecord struct {
	OldIdent string `json:"old_ident"`
	NewIdent string `json:"new_ident"`
}
