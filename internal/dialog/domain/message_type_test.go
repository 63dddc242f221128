package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The derivations over MessageType must stay total: adding an enum member
// without extending every switch should fail here, not in production.
func TestMessageTypeDerivationsAreTotal(t *testing.T) {
	for _, typ := range AllTypes {
		typ := typ
		t.Run(string(typ), func(t *testing.T) {
			assert.True(t, typ.Valid())
			assert.NotEmpty(t, typ.ArchiveTitle())
			assert.NotEmpty(t, typ.KindCode())
			assert.Contains(t,
				[]ArchiveVisibility{VisibilityExternal, VisibilityInternal},
				typ.ArchiveVisibility())
		})
	}
}

func TestMessageTypeArchiveVisibility(t *testing.T) {
	for _, typ := range AllTypes {
		want := VisibilityExternal
		if typ == TypeNoteFromProvider {
			want = VisibilityInternal
		}
		assert.Equal(t, want, typ.ArchiveVisibility(), "type %s", typ)
	}
}

func TestMessageTypeAllowsReminder(t *testing.T) {
	allowed := map[MessageType]bool{
		TypeInfoRequest:      true,
		TypeStatementRequest: true,
	}
	for _, typ := range AllTypes {
		assert.Equal(t, allowed[typ], typ.AllowsReminder(), "type %s", typ)
	}
}

func TestMessageTypeUnansweredEligible(t *testing.T) {
	eligible := map[MessageType]bool{
		TypeInfoRequest:      true,
		TypeStatementRequest: true,
		TypeStatementReturn:  true,
	}
	for _, typ := range AllTypes {
		assert.Equal(t, eligible[typ], typ.UnansweredEligible(), "type %s", typ)
	}
}

func TestMessageTypeValidRejectsUnknown(t *testing.T) {
	assert.False(t, MessageType("SOMETHING_ELSE").Valid())
	assert.False(t, MessageType("").Valid())
}

func TestDocumentText(t *testing.T) {
	blocks := []DocumentBlock{
		{Kind: BlockHeader, Text: "Request for statement"},
		{Kind: BlockParagraph, Text: "First paragraph."},
		{Kind: BlockParagraph, Text: "Second paragraph."},
	}
	assert.Equal(t, "Request for statement\nFirst paragraph.\nSecond paragraph.", DocumentText(blocks))
	assert.Equal(t, "", DocumentText(nil))
}
