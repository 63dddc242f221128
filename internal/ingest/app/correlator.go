package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
)

// statementFallbackWindow bounds step 4 of the correlation algorithm: only
// statement requests sent within the last two months qualify.
const statementFallbackMonths = 2

// CorrelationInput carries the correlation facts of one inbound record.
type CorrelationInput struct {
	// ConversationID is the conversation identifier claimed by the
	// provider; it may actually be a message uuid, or garbage.
	ConversationID string
	ParentID       string
	SubjectIdent   string
	// StatementFallback enables step 4, which applies to medical statement
	// requests only.
	StatementFallback bool
}

// Correlation is a successful match: the conversation to attach to, the
// parent lineage hint to store (nil when the match came from the claimed
// conversation id itself) and the outbound message that owns the match.
type Correlation struct {
	ConversationRef uuid.UUID
	ParentRef       *uuid.UUID
	Owner           *domain.DialogMessage
}

// Correlator links an inbound provider message to the outbound conversation
// it answers. Matching is ordered and first-match-wins; a miss is a normal
// outcome, not an error.
type Correlator struct {
	messages domain.MessageRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewCorrelator creates a Correlator over the message repository.
func NewCorrelator(messages domain.MessageRepository, logger *slog.Logger) *Correlator {
	return &Correlator{
		messages: messages,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Resolve runs the matching algorithm. It returns (nil, nil) when no
// conversation matches; only storage failures return an error.
func (c *Correlator) Resolve(ctx context.Context, in CorrelationInput) (*Correlation, error) {
	// Step 1: claimed conversation id matches an outbound conversation for
	// the same subject. This always wins over a parent-id match.
	claimedConv, convParseErr := uuid.Parse(in.ConversationID)
	if convParseErr == nil {
		owner, err := c.messages.FindOutboundByConversation(ctx, claimedConv, in.SubjectIdent)
		switch {
		case err == nil:
			return &Correlation{ConversationRef: claimedConv, Owner: owner}, nil
		case !errors.Is(err, domain.ErrMessageNotFound):
			return nil, err
		}

		// Step 2: the provider echoed a message uuid instead of the
		// conversation id.
		owner, err = c.messages.GetOutboundByUUID(ctx, claimedConv)
		switch {
		case err == nil:
			parent := owner.UUID
			return &Correlation{ConversationRef: owner.ConversationRef, ParentRef: &parent, Owner: owner}, nil
		case !errors.Is(err, domain.ErrMessageNotFound):
			return nil, err
		}
	}

	// Step 3: the parent identifier matches an outbound message.
	if parentID, err := uuid.Parse(in.ParentID); err == nil {
		owner, err := c.messages.GetOutboundByUUID(ctx, parentID)
		switch {
		case err == nil:
			parent := owner.UUID
			return &Correlation{ConversationRef: owner.ConversationRef, ParentRef: &parent, Owner: owner}, nil
		case !errors.Is(err, domain.ErrMessageNotFound):
			return nil, err
		}
	}

	// Step 4: statement requests only. The most recent outbound statement
	// request for the subject, sent within the fallback window.
	if in.StatementFallback {
		cutoff := c.now().AddDate(0, -statementFallbackMonths, 0)
		owner, err := c.messages.LatestOutboundStatementRequest(ctx, in.SubjectIdent, cutoff)
		switch {
		case err == nil:
			parent := owner.UUID
			return &Correlation{ConversationRef: owner.ConversationRef, ParentRef: &parent, Owner: owner}, nil
		case !errors.Is(err, domain.ErrMessageNotFound):
			return nil, err
		}
	}

	// Step 5: no conversation found; the caller drops the record.
	c.logger.InfoContext(ctx, "no conversation matched inbound record",
		"claimed_conversation_id", in.ConversationID, "statement_fallback", in.StatementFallback)
	return nil, nil
}
