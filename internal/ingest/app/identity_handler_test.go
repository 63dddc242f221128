package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIdentityChangeHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a usable change", func(t *testing.T) {
		changes := new(MockIdentityChangeRepository)
		handler := NewIdentityChangeHandler(changes, "identity-change", discardLogger())

		changes.On("Create", ctx, "01019012345", "01019054321").Return(nil)

		err := handler.Handle(ctx, []byte(`{"old_ident":"01019012345","new_ident":"01019054321"}`))
		require.NoError(t, err)
		changes.AssertExpectations(t)
	})

	t.Run("drops unusable idents", func(t *testing.T) {
		changes := new(MockIdentityChangeRepository)
		handler := NewIdentityChangeHandler(changes, "identity-change", discardLogger())

		for _, payload := range []string{
			`{"old_ident":"","new_ident":"01019054321"}`,
			`{"old_ident":"01019012345","new_ident":""}`,
			`{"old_ident":"same","new_ident":"same"}`,
			`{broken`,
		} {
			assert.NoError(t, handler.Handle(ctx, []byte(payload)), payload)
		}
		changes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		changes := new(MockIdentityChangeRepository)
		handler := NewIdentityChangeHandler(changes, "identity-change", discardLogger())

		changes.On("Create", ctx, "a", "b").Return(assert.AnError)
		assert.ErrorIs(t, handler.Handle(ctx, []byte(`{"old_ident":"a","new_ident":"b"}`)), assert.AnError)
	})
}
