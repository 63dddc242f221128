package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
	"github.com/medkom/dialog-gateway/internal/platform/database"
)

const messageCols = `id, uuid, direction, conversation_ref, parent_ref, message_type,
	subject_ident, provider_ident, provider_name, provider_ref, external_message_id,
	message_text, document, attachment_count, archive_ref,
	unanswered_published_at, rejected_published_at, forwarded_published_at, created_at`

type pgMessageRepository struct {
	db database.DB
}

// NewMessageRepository creates the PostgreSQL-backed MessageRepository.
func NewMessageRepository(db database.DB) domain.MessageRepository {
	return &pgMessageRepository{db: db}
}

func (r *pgMessageRepository) conn(ctx context.Context) database.Querier {
	return database.QuerierFromContext(ctx, r.db)
}

func scanMessage(row pgx.Row) (*domain.DialogMessage, error) {
	var (
		msg    domain.DialogMessage
		docRaw []byte
	)
	err := row.Scan(
		&msg.ID, &msg.UUID, &msg.Direction, &msg.ConversationRef, &msg.ParentRef, &msg.Type,
		&msg.SubjectIdent, &msg.ProviderIdent, &msg.ProviderName, &msg.ProviderRef, &msg.ExternalMessageID,
		&msg.Text, &docRaw, &msg.AttachmentCount, &msg.ArchiveRef,
		&msg.UnansweredPublishedAt, &msg.RejectedPublishedAt, &msg.ForwardedPublishedAt, &msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	if len(docRaw) > 0 {
		if err := json.Unmarshal(docRaw, &msg.Document); err != nil {
			return nil, fmt.Errorf("decode document blocks: %w", err)
		}
	}
	return &msg, nil
}

func scanMessages(rows pgx.Rows) ([]*domain.DialogMessage, error) {
	defer rows.Close()
	var out []*domain.DialogMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (r *pgMessageRepository) Create(ctx context.Context, msg *domain.DialogMessage) error {
	docRaw, err := json.Marshal(msg.Document)
	if err != nil {
		return fmt.Errorf("encode document blocks: %w", err)
	}

	query := `
		INSERT INTO dialog_messages (
			uuid, direction, conversation_ref, parent_ref, message_type,
			subject_ident, provider_ident, provider_name, provider_ref, external_message_id,
			message_text, document, attachment_count, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id`

	err = r.conn(ctx).QueryRow(ctx, query,
		msg.UUID, msg.Direction, msg.ConversationRef, msg.ParentRef, msg.Type,
		msg.SubjectIdent, msg.ProviderIdent, msg.ProviderName, msg.ProviderRef, msg.ExternalMessageID,
		msg.Text, docRaw, msg.AttachmentCount, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert dialog message: %w", err)
	}
	return nil
}

func (r *pgMessageRepository) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.DialogMessage, error) {
	return scanMessage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+messageCols+` FROM dialog_messages WHERE uuid = $1`, id))
}

func (r *pgMessageRepository) GetOutboundByUUID(ctx context.Context, id uuid.UUID) (*domain.DialogMessage, error) {
	return scanMessage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+messageCols+` FROM dialog_messages WHERE uuid = $1 AND direction = $2`,
		id, domain.DirectionOutbound))
}

func (r *pgMessageRepository) FindOutboundByConversation(ctx context.Context, conversationRef uuid.UUID, subjectIdent string) (*domain.DialogMessage, error) {
	return scanMessage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+messageCols+` FROM dialog_messages
		 WHERE conversation_ref = $1 AND subject_ident = $2 AND direction = $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		conversationRef, subjectIdent, domain.DirectionOutbound))
}

func (r *pgMessageRepository) FindStatementRequestByConversation(ctx context.Context, conversationRef uuid.UUID, subjectIdent string) (*domain.DialogMessage, error) {
	return scanMessage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+messageCols+` FROM dialog_messages
		 WHERE conversation_ref = $1 AND subject_ident = $2 AND direction = $3 AND message_type = $4
		 ORDER BY created_at
		 LIMIT 1`,
		conversationRef, subjectIdent, domain.DirectionOutbound, domain.TypeStatementRequest))
}

func (r *pgMessageRepository) LatestOutboundStatementRequest(ctx context.Context, subjectIdent string, sentAfter time.Time) (*domain.DialogMessage, error) {
	return scanMessage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+messageCols+` FROM dialog_messages
		 WHERE subject_ident = $1 AND direction = $2 AND message_type = $3 AND created_at > $4
		 ORDER BY created_at DESC
		 LIMIT 1`,
		subjectIdent, domain.DirectionOutbound, domain.TypeStatementRequest, sentAfter))
}

func unansweredEligibleTypes() []string {
	var types []string
	for _, t := range domain.AllTypes {
		if t.UnansweredEligible() {
			types = append(types, string(t))
		}
	}
	return types
}

func (r *pgMessageRepository) ListUnansweredCandidates(ctx context.Context, olderThan time.Time, limit int) ([]*domain.DialogMessage, error) {
	// A candidate is the newest outbound message in its conversation, of an
	// eligible type, old enough, not rejected, with no later inbound reply
	// and no unanswered marker.
	query := `
		SELECT ` + messageCols + ` FROM dialog_messages m
		WHERE m.direction = 'OUTBOUND'
		  AND m.message_type = ANY($1)
		  AND m.unanswered_published_at IS NULL
		  AND m.created_at < $2
		  AND NOT EXISTS (
			SELECT 1 FROM dialog_message_statuses s
			WHERE s.message_id = m.id AND s.status = 'REJECTED')
		  AND NOT EXISTS (
			SELECT 1 FROM dialog_messages o
			WHERE o.conversation_ref = m.conversation_ref
			  AND o.direction = 'OUTBOUND' AND o.created_at > m.created_at)
		  AND NOT EXISTS (
			SELECT 1 FROM dialog_messages i
			WHERE i.conversation_ref = m.conversation_ref
			  AND i.direction = 'INBOUND' AND i.created_at > m.created_at)
		ORDER BY m.created_at
		LIMIT $3`

	rows, err := r.conn(ctx).Query(ctx, query, unansweredEligibleTypes(), olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list unanswered candidates: %w", err)
	}
	return scanMessages(rows)
}

func (r *pgMessageRepository) MarkUnansweredPublished(ctx context.Context, id int64, at time.Time) error {
	return r.markOnce(ctx, "unanswered_published_at", id, at)
}

func (r *pgMessageRepository) ListRejectedUnpublished(ctx context.Context, limit int) ([]*domain.DialogMessage, error) {
	query := `
		SELECT ` + messageCols + ` FROM dialog_messages m
		WHERE m.direction = 'OUTBOUND'
		  AND m.rejected_published_at IS NULL
		  AND EXISTS (
			SELECT 1 FROM dialog_message_statuses s
			WHERE s.message_id = m.id AND s.status = 'REJECTED')
		ORDER BY m.created_at
		LIMIT $1`

	rows, err := r.conn(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list rejected unpublished: %w", err)
	}
	return scanMessages(rows)
}

func (r *pgMessageRepository) MarkRejectedPublished(ctx context.Context, id int64, at time.Time) error {
	return r.markOnce(ctx, "rejected_published_at", id, at)
}

func (r *pgMessageRepository) ListInboundUnforwarded(ctx context.Context, limit int) ([]*domain.DialogMessage, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+messageCols+` FROM dialog_messages
		 WHERE direction = 'INBOUND' AND forwarded_published_at IS NULL
		 ORDER BY created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list inbound unforwarded: %w", err)
	}
	return scanMessages(rows)
}

func (r *pgMessageRepository) MarkForwardedPublished(ctx context.Context, id int64, at time.Time) error {
	return r.markOnce(ctx, "forwarded_published_at", id, at)
}

// markOnce sets a once-only outbox marker. The IS NULL guard keeps markers
// monotonic even if two sweep runs race.
func (r *pgMessageRepository) markOnce(ctx context.Context, column string, id int64, at time.Time) error {
	query := fmt.Sprintf(
		`UPDATE dialog_messages SET %s = $2 WHERE id = $1 AND %s IS NULL`, column, column)
	tag, err := r.conn(ctx).Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *pgMessageRepository) ListUnarchived(ctx context.Context, limit int) ([]*domain.DialogMessage, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+messageCols+` FROM dialog_messages
		 WHERE direction = 'OUTBOUND' AND archive_ref IS NULL AND attachment_count > 0
		 ORDER BY created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unarchived: %w", err)
	}
	return scanMessages(rows)
}

func (r *pgMessageRepository) SetArchiveRef(ctx context.Context, id int64, ref string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE dialog_messages SET archive_ref = $2 WHERE id = $1 AND archive_ref IS NULL`,
		id, ref)
	if err != nil {
		return fmt.Errorf("set archive ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *pgMessageRepository) RepointSubject(ctx context.Context, oldIdent, newIdent string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE dialog_messages SET subject_ident = $2 WHERE subject_ident = $1`,
		oldIdent, newIdent)
	if err != nil {
		return 0, fmt.Errorf("repoint subject: %w", err)
	}
	return tag.RowsAffected(), nil
}
