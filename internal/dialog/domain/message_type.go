package domain

// MessageType is the closed enumeration of dialog message types. Every
// derived value below (archive title, archive visibility, bus kind code,
// reminder permission, unanswered eligibility) is a total mapping over this
// enum; AllTypes keeps the mappings honest in tests when a member is added.
type MessageType string

const (
	// TypeInfoRequest asks the provider for supplementary information.
	TypeInfoRequest MessageType = "INFO_REQUEST"
	// TypeStatementRequest asks the provider for a medical statement.
	TypeStatementRequest MessageType = "STATEMENT_REQUEST"
	// TypeReminder nudges the provider about an unanswered request.
	TypeReminder MessageType = "REMINDER"
	// TypeStatementReturn sends a received medical statement back to the
	// provider for correction.
	TypeStatementReturn MessageType = "STATEMENT_RETURN"
	// TypeNoteToProvider is a free-form note from the case handler.
	TypeNoteToProvider MessageType = "NOTE_TO_PROVIDER"
	// TypeNoteFromProvider is a free-form note from the provider.
	TypeNoteFromProvider MessageType = "NOTE_FROM_PROVIDER"
)

// AllTypes lists every MessageType. Tests iterate this to assert the
// derivations stay total when the enum grows.
var AllTypes = []MessageType{
	TypeInfoRequest,
	TypeStatementRequest,
	TypeReminder,
	TypeStatementReturn,
	TypeNoteToProvider,
	TypeNoteFromProvider,
}

// ArchiveVisibility classifies an archived document.
type ArchiveVisibility string

const (
	// VisibilityExternal marks documents shared with the provider.
	VisibilityExternal ArchiveVisibility = "EXTERNAL"
	// VisibilityInternal marks documents kept internal to the case.
	VisibilityInternal ArchiveVisibility = "INTERNAL"
)

// ArchiveTitle returns the document title used for archive submissions.
func (t MessageType) ArchiveTitle() string {
	switch t {
	case TypeInfoRequest:
		return "Request for supplementary information"
	case TypeStatementRequest:
		return "Request for medical statement"
	case TypeReminder:
		return "Reminder of unanswered request"
	case TypeStatementReturn:
		return "Return of medical statement"
	case TypeNoteToProvider:
		return "Note to healthcare provider"
	case TypeNoteFromProvider:
		return "Note from healthcare provider"
	}
	return ""
}

// ArchiveVisibility returns the archive classification for the type.
func (t MessageType) ArchiveVisibility() ArchiveVisibility {
	switch t {
	case TypeInfoRequest, TypeStatementRequest, TypeReminder, TypeStatementReturn, TypeNoteToProvider:
		return VisibilityExternal
	case TypeNoteFromProvider:
		return VisibilityInternal
	}
	return ""
}

// KindCode returns the message-kind code carried on the outbound bus.
func (t MessageType) KindCode() string {
	switch t {
	case TypeInfoRequest:
		return "REQUEST_INFO"
	case TypeStatementRequest:
		return "REQUEST_STATEMENT"
	case TypeReminder:
		return "REMINDER"
	case TypeStatementReturn:
		return "STATEMENT_RETURN"
	case TypeNoteToProvider:
		return "NOTE"
	case TypeNoteFromProvider:
		return "PROVIDER_NOTE"
	}
	return ""
}

// AllowsReminder reports whether a reminder may be constructed for a
// message of this type.
func (t MessageType) AllowsReminder() bool {
	switch t {
	case TypeInfoRequest, TypeStatementRequest:
		return true
	case TypeReminder, TypeStatementReturn, TypeNoteToProvider, TypeNoteFromProvider:
		return false
	}
	return false
}

// UnansweredEligible reports whether the type participates in the
// unanswered sweep. Reminders and case-handler notes never count as
// unanswered; provider notes are inbound-only.
func (t MessageType) UnansweredEligible() bool {
	switch t {
	case TypeInfoRequest, TypeStatementRequest, TypeStatementReturn:
		return true
	case TypeReminder, TypeNoteToProvider, TypeNoteFromProvider:
		return false
	}
	return false
}

// Valid reports whether t is a member of the enumeration.
func (t MessageType) Valid() bool {
	switch t {
	case TypeInfoRequest, TypeStatementRequest, TypeReminder,
		TypeStatementReturn, TypeNoteToProvider, TypeNoteFromProvider:
		return true
	}
	return false
}
