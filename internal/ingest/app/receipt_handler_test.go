package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	ingestdomain "github.com/medkom/dialog-gateway/internal/ingest/domain"
)

func receiptPayload(t *testing.T, rec ingestdomain.DeliveryReceiptRecord) []byte {
	t.Helper()
	payload, err := json.Marshal(rec)
	require.NoError(t, err)
	return payload
}

func TestReceiptHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts status for known message", func(t *testing.T) {
		messages := new(MockMessageRepository)
		statuses := new(MockStatusRepository)
		handler := NewReceiptHandler(messages, statuses, "delivery-receipt", discardLogger())

		msg := outboundFixture(domain.TypeInfoRequest)
		messages.On("GetByUUID", ctx, msg.UUID).Return(msg, nil)
		statuses.On("Upsert", ctx, msg.ID, domain.StatusAccepted, "ok").Return(nil)

		err := handler.Handle(ctx, receiptPayload(t, ingestdomain.DeliveryReceiptRecord{
			MessageID: msg.UUID.String(),
			Status:    "ACCEPTED",
			Detail:    "ok",
		}))
		require.NoError(t, err)
		statuses.AssertExpectations(t)
	})

	t.Run("replayed receipt converges through the same upsert", func(t *testing.T) {
		messages := new(MockMessageRepository)
		statuses := new(MockStatusRepository)
		handler := NewReceiptHandler(messages, statuses, "delivery-receipt", discardLogger())

		msg := outboundFixture(domain.TypeInfoRequest)
		messages.On("GetByUUID", ctx, msg.UUID).Return(msg, nil)
		statuses.On("Upsert", ctx, msg.ID, domain.StatusRejected, "unknown recipient").Return(nil).Twice()

		payload := receiptPayload(t, ingestdomain.DeliveryReceiptRecord{
			MessageID: msg.UUID.String(),
			Status:    "REJECTED",
			Detail:    "unknown recipient",
		})
		require.NoError(t, handler.Handle(ctx, payload))
		require.NoError(t, handler.Handle(ctx, payload))
		statuses.AssertExpectations(t)
	})

	t.Run("drops receipt for unknown message", func(t *testing.T) {
		messages := new(MockMessageRepository)
		statuses := new(MockStatusRepository)
		handler := NewReceiptHandler(messages, statuses, "delivery-receipt", discardLogger())

		msg := outboundFixture(domain.TypeInfoRequest)
		messages.On("GetByUUID", ctx, msg.UUID).Return(nil, domain.ErrMessageNotFound)

		err := handler.Handle(ctx, receiptPayload(t, ingestdomain.DeliveryReceiptRecord{
			MessageID: msg.UUID.String(),
			Status:    "SENT",
		}))
		require.NoError(t, err)
		statuses.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("drops unknown status values", func(t *testing.T) {
		messages := new(MockMessageRepository)
		statuses := new(MockStatusRepository)
		handler := NewReceiptHandler(messages, statuses, "delivery-receipt", discardLogger())

		err := handler.Handle(ctx, receiptPayload(t, ingestdomain.DeliveryReceiptRecord{
			MessageID: "any",
			Status:    "EXPLODED",
		}))
		require.NoError(t, err)
		messages.AssertNotCalled(t, "GetByUUID", mock.Anything, mock.Anything)
	})

	t.Run("drops undecodable payload", func(t *testing.T) {
		messages := new(MockMessageRepository)
		statuses := new(MockStatusRepository)
		handler := NewReceiptHandler(messages, statuses, "delivery-receipt", discardLogger())

		assert.NoError(t, handler.Handle(ctx, []byte("{broken")))
	})

	t.Run("storage failure surfaces so the batch is retried", func(t *testing.T) {
		messages := new(MockMessageRepository)
		statuses := new(MockStatusRepository)
		handler := NewReceiptHandler(messages, statuses, "delivery-receipt", discardLogger())

		msg := outboundFixture(domain.TypeInfoRequest)
		messages.On("GetByUUID", ctx, msg.UUID).Return(msg, nil)
		statuses.On("Upsert", ctx, msg.ID, domain.StatusSent, "").Return(assert.AnError)

		err := handler.Handle(ctx, receiptPayload(t, ingestdomain.DeliveryReceiptRecord{
			MessageID: msg.UUID.String(),
			Status:    "SENT",
		}))
		assert.ErrorIs(t, err, assert.AnError)
	})
}
