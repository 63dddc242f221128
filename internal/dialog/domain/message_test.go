package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOutboundSpec() OutboundSpec {
	ident := "12345678901"
	name := "Dr. Holm"
	return OutboundSpec{
		Type:          TypeInfoRequest,
		SubjectIdent:  "01019012345",
		ProviderRef:   "987654",
		ProviderIdent: &ident,
		ProviderName:  &name,
		Text:          "Please provide further details.",
		Document: []DocumentBlock{
			{Kind: BlockHeader, Text: "Request"},
			{Kind: BlockParagraph, Text: "Please provide further details."},
		},
	}
}

func TestNewOutboundMessage(t *testing.T) {
	t.Run("creates message with fresh conversation", func(t *testing.T) {
		msg, err := NewOutboundMessage(validOutboundSpec())
		require.NoError(t, err)

		assert.Equal(t, DirectionOutbound, msg.Direction)
		assert.Equal(t, TypeInfoRequest, msg.Type)
		assert.NotEqual(t, uuid.Nil, msg.UUID)
		assert.NotEqual(t, uuid.Nil, msg.ConversationRef)
		assert.NotEqual(t, msg.UUID, msg.ConversationRef)
		assert.Nil(t, msg.ParentRef)
		require.NotNil(t, msg.ProviderRef)
		assert.Equal(t, "987654", *msg.ProviderRef)
	})

	t.Run("rejects types that are not directly creatable", func(t *testing.T) {
		for _, typ := range []MessageType{TypeReminder, TypeStatementReturn, TypeNoteFromProvider} {
			spec := validOutboundSpec()
			spec.Type = typ
			_, err := NewOutboundMessage(spec)
			assert.ErrorIs(t, err, ErrTypeNotCreatable, "type %s", typ)
		}
	})

	t.Run("requires subject ident", func(t *testing.T) {
		spec := validOutboundSpec()
		spec.SubjectIdent = ""
		_, err := NewOutboundMessage(spec)
		assert.ErrorIs(t, err, ErrSubjectRequired)
	})

	t.Run("requires provider ref", func(t *testing.T) {
		spec := validOutboundSpec()
		spec.ProviderRef = ""
		_, err := NewOutboundMessage(spec)
		assert.ErrorIs(t, err, ErrProviderRefRequired)
	})
}

func TestNewReminder(t *testing.T) {
	t.Run("joins the original conversation", func(t *testing.T) {
		original, err := NewOutboundMessage(validOutboundSpec())
		require.NoError(t, err)

		reminder, err := NewReminder(original, "Still waiting.", nil)
		require.NoError(t, err)

		assert.Equal(t, TypeReminder, reminder.Type)
		assert.Equal(t, original.ConversationRef, reminder.ConversationRef)
		require.NotNil(t, reminder.ParentRef)
		assert.Equal(t, original.UUID, *reminder.ParentRef)
		assert.Equal(t, original.SubjectIdent, reminder.SubjectIdent)
		assert.Equal(t, original.ProviderRef, reminder.ProviderRef)
	})

	t.Run("rejects types that do not permit reminders", func(t *testing.T) {
		spec := validOutboundSpec()
		spec.Type = TypeNoteToProvider
		original, err := NewOutboundMessage(spec)
		require.NoError(t, err)

		_, err = NewReminder(original, "nudge", nil)
		assert.ErrorIs(t, err, ErrReminderNotAllowed)
	})

	t.Run("rejects inbound originals", func(t *testing.T) {
		inbound, err := NewInboundMessage(InboundSpec{
			Type:              TypeInfoRequest,
			ConversationRef:   uuid.New(),
			SubjectIdent:      "01019012345",
			ExternalMessageID: "ext-1",
		})
		require.NoError(t, err)

		_, err = NewReminder(inbound, "nudge", nil)
		assert.ErrorIs(t, err, ErrOriginalNotOutbound)
	})

	t.Run("rejects nil original", func(t *testing.T) {
		_, err := NewReminder(nil, "nudge", nil)
		assert.ErrorIs(t, err, ErrOriginalRequired)
	})
}

func TestNewStatementReturn(t *testing.T) {
	newStatementPair := func(t *testing.T) (inbound, request *DialogMessage) {
		t.Helper()
		spec := validOutboundSpec()
		spec.Type = TypeStatementRequest
		request, err := NewOutboundMessage(spec)
		require.NoError(t, err)

		inbound, err = NewInboundMessage(InboundSpec{
			Type:              TypeStatementRequest,
			ConversationRef:   request.ConversationRef,
			SubjectIdent:      request.SubjectIdent,
			ExternalMessageID: "ext-stmt-1",
		})
		require.NoError(t, err)
		return inbound, request
	}

	t.Run("returns the statement within the request's conversation", func(t *testing.T) {
		inbound, request := newStatementPair(t)

		ret, err := NewStatementReturn(inbound, request, "Needs correction.", nil)
		require.NoError(t, err)

		assert.Equal(t, TypeStatementReturn, ret.Type)
		assert.Equal(t, DirectionOutbound, ret.Direction)
		assert.Equal(t, request.ConversationRef, ret.ConversationRef)
		require.NotNil(t, ret.ParentRef)
		assert.Equal(t, inbound.UUID, *ret.ParentRef)
		assert.Equal(t, request.ProviderRef, ret.ProviderRef)
	})

	t.Run("rejects conversation mismatch", func(t *testing.T) {
		inbound, _ := newStatementPair(t)
		spec := validOutboundSpec()
		spec.Type = TypeStatementRequest
		otherRequest, err := NewOutboundMessage(spec)
		require.NoError(t, err)

		_, err = NewStatementReturn(inbound, otherRequest, "x", nil)
		assert.ErrorIs(t, err, ErrConversationMismatch)
	})

	t.Run("rejects non-statement inbound", func(t *testing.T) {
		_, request := newStatementPair(t)
		note, err := NewInboundMessage(InboundSpec{
			Type:              TypeNoteFromProvider,
			ConversationRef:   request.ConversationRef,
			SubjectIdent:      request.SubjectIdent,
			ExternalMessageID: "ext-note-1",
		})
		require.NoError(t, err)

		_, err = NewStatementReturn(note, request, "x", nil)
		assert.ErrorIs(t, err, ErrNotInboundStatement)
	})

	t.Run("rejects non-statement request", func(t *testing.T) {
		inbound, _ := newStatementPair(t)
		infoRequest, err := NewOutboundMessage(validOutboundSpec())
		require.NoError(t, err)
		infoRequest.ConversationRef = inbound.ConversationRef

		_, err = NewStatementReturn(inbound, infoRequest, "x", nil)
		assert.ErrorIs(t, err, ErrNotStatementRequest)
	})
}

func TestNewInboundMessage(t *testing.T) {
	t.Run("requires external message id", func(t *testing.T) {
		_, err := NewInboundMessage(InboundSpec{
			Type:            TypeNoteFromProvider,
			ConversationRef: uuid.New(),
			SubjectIdent:    "01019012345",
		})
		assert.ErrorIs(t, err, ErrExternalIDRequired)
	})

	t.Run("requires subject ident", func(t *testing.T) {
		_, err := NewInboundMessage(InboundSpec{
			Type:              TypeNoteFromProvider,
			ConversationRef:   uuid.New(),
			ExternalMessageID: "ext-1",
		})
		assert.ErrorIs(t, err, ErrSubjectRequired)
	})
}
