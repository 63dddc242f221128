package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	"github.com/medkom/dialog-gateway/internal/platform/database"
)

type pgAttachmentRepository struct {
	db database.DB
}

// NewAttachmentRepository creates the PostgreSQL-backed AttachmentRepository.
func NewAttachmentRepository(db database.DB) domain.AttachmentRepository {
	return &pgAttachmentRepository{db: db}
}

func (r *pgAttachmentRepository) conn(ctx context.Context) database.Querier {
	return database.QuerierFromContext(ctx, r.db)
}

func (r *pgAttachmentRepository) Create(ctx context.Context, att *domain.Attachment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dialog_attachments (message_id, number, content_type, payload)
		VALUES ($1, $2, $3, $4)`,
		att.MessageID, att.Number, att.ContentType, att.Payload)
	if err != nil {
		return fmt.Errorf("insert attachment %d for message %d: %w", att.Number, att.MessageID, err)
	}
	return nil
}

func (r *pgAttachmentRepository) Get(ctx context.Context, messageID int64, number int) (*domain.Attachment, error) {
	var att domain.Attachment
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT message_id, number, content_type, payload
		FROM dialog_attachments WHERE message_id = $1 AND number = $2`,
		messageID, number).
		Scan(&att.MessageID, &att.Number, &att.ContentType, &att.Payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &att, nil
}

func (r *pgAttachmentRepository) ListByMessage(ctx context.Context, messageID int64) ([]*domain.Attachment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT message_id, number, content_type, payload
		FROM dialog_attachments WHERE message_id = $1 ORDER BY number`, messageID)
	if err != nil {
		return nil, fmt.Errorf("list attachments for message %d: %w", messageID, err)
	}
	defer rows.Close()

	var out []*domain.Attachment
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.MessageID, &att.Number, &att.ContentType, &att.Payload); err != nil {
			return nil, err
		}
		out = append(out, &att)
	}
	return out, rows.Err()
}
