package postgres

import (
	"context"
	"fmt"
	"time"


	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	"github.com/medkom/dialog-gateway/internal/platform/database"
)

type pgIdentityChangeRepository struct {
	db database.DB
}

// NewIdentityChangeRepository creates the PostgreSQL-backed IdentityChangeRepository.
func NewIdentityChangeRepository(db database.DB) domain.IdentityChangeRepository {
	return &pgIdentityChangeRepository{db: db}
}

func (r *pgIdentityChangeRepository) conn(ctx context.Context) database.Querier {
	return database.QuerierFromContext(ctx, r.db)
}

func (r *pgIdentityChangeRepository) Create(ctx context.Context, oldIdent, newIdent string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO identity_changes (old_ident, new_ident, created_at)
		VALUES ($1, $2, $3)`,
		oldIdent, newIdent, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert identity change: %w", err)
	}
	return nil
}

func (r *pgIdentityChangeRepository) ListUnprocessed(ctx context.Context, limit int) ([]*domain.IdentityChange, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, old_ident, new_ident, created_at, processed_at
		FROM identity_changes WHERE processed_at IS NULL
		ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed identity changes: %w", err)
	}
	defer rows.Close()

	var out []*domain.IdentityChange
	for rows.Next() {
		var ic domain.IdentityChange
		if err := rows.Scan(&ic.ID, &ic.OldIdent, &ic.NewIdent, &ic.CreatedAt, &ic.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, &ic)
	}
	return out, rows.Err()
}

func (r *pgIdentityChangeRepository) MarkProcessed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE identity_changes SET processed_at = $2 WHERE id = $1 AND processed_at IS NULL`,
		id, at)
	if err != nil {
		return fmt.Errorf("mark identity change processed: %w", err)
	}
	return nil
}
