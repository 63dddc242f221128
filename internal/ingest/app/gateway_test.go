package app

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayFixture(t *testing.T, handler RecordHandler) (*Gateway, pgxmock.PgxPoolIface) {
	t.Helper()
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewGateway(db, "provider-dialog-message", handler, discardLogger()), db
}

func TestGatewayHandleBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches every record inside one transaction", func(t *testing.T) {
		var seen []string
		gw, db := newGatewayFixture(t, func(ctx context.Context, value []byte) error {
			seen = append(seen, string(value))
			return nil
		})
		defer db.Close()

		db.ExpectBegin()
		db.ExpectCommit()

		err := gw.HandleBatch(ctx, []kafka.Message{
			{Offset: 100, Value: []byte(`{"a":1}`)},
			{Offset: 101, Value: []byte(`{"b":2}`)},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, seen)
		// Commit happened before HandleBatch returned, so the consumer's
		// offset commit always follows the storage commit.
		assert.NoError(t, db.ExpectationsWereMet())
	})

	t.Run("tombstones are skipped without reaching the handler", func(t *testing.T) {
		calls := 0
		gw, db := newGatewayFixture(t, func(ctx context.Context, value []byte) error {
			calls++
			return nil
		})
		defer db.Close()

		db.ExpectBegin()
		db.ExpectCommit()

		err := gw.HandleBatch(ctx, []kafka.Message{
			{Offset: 200, Value: nil},
			{Offset: 201, Value: []byte(`{}`)},
			{Offset: 202, Value: nil},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.NoError(t, db.ExpectationsWereMet())
	})

	t.Run("handler error rolls the transaction back", func(t *testing.T) {
		boom := errors.New("unknown provider record")
		calls := 0
		gw, db := newGatewayFixture(t, func(ctx context.Context, value []byte) error {
			calls++
			if calls == 2 {
				return boom
			}
			return nil
		})
		defer db.Close()

		db.ExpectBegin()
		db.ExpectRollback()

		err := gw.HandleBatch(ctx, []kafka.Message{
			{Offset: 300, Value: []byte(`{}`)},
			{Offset: 301, Value: []byte(`{}`)},
			{Offset: 302, Value: []byte(`{}`)},
		})
		require.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "offset 301")
		// The failing record aborts the batch; later records are not
		// dispatched and nothing commits.
		assert.Equal(t, 2, calls)
		assert.NoError(t, db.ExpectationsWereMet())
	})

	t.Run("begin failure surfaces", func(t *testing.T) {
		gw, db := newGatewayFixture(t, func(ctx context.Context, value []byte) error {
			t.Fatal("handler must not run without a transaction")
			return nil
		})
		defer db.Close()

		db.ExpectBegin().WillReturnError(errors.New("storage unreachable"))

		err := gw.HandleBatch(ctx, []kafka.Message{{Offset: 400, Value: []byte(`{}`)}})
		assert.ErrorContains(t, err, "begin transaction")
		assert.NoError(t, db.ExpectationsWereMet())
	})
}
