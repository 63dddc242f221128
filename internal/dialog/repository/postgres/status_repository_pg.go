package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	"github.com/medkom/dialog-gateway/internal/platform/database"
)

type pgStatusRepository struct {
	db database.DB
}

// NewStatusRepository creates the PostgreSQL-backed StatusRepository.
func NewStatusRepository(db database.DB) domain.StatusRepository {
	return &pgStatusRepository{db: db}
}

func (r *pgStatusRepository) conn(ctx context.Context) database.Querier {
	return database.QuerierFromContext(ctx, r.db)
}

func (r *pgStatusRepository) Upsert(ctx context.Context, messageID int64, status domain.Status, detail string) error {
	now := time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dialog_message_statuses (message_id, status, detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (message_id) DO UPDATE
		SET status = EXCLUDED.status, detail = EXCLUDED.detail, updated_at = EXCLUDED.updated_at`,
		messageID, status, detail, now)
	if err != nil {
		return fmt.Errorf("upsert message status: %w", err)
	}
	return nil
}

func (r *pgStatusRepository) GetByMessageID(ctx context.Context, messageID int64) (*domain.MessageStatus, error) {
	var st domain.MessageStatus
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT message_id, status, detail, created_at, updated_at
		FROM dialog_message_statuses WHERE message_id = $1`, messageID).
		Scan(&st.MessageID, &st.Status, &st.Detail, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStatusNotFound
		}
		return nil, err
	}
	return &st, nil
}
