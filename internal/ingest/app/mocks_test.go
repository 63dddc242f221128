package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/medkom/dialog-gateway/internal/adapters/attachmentstore"
	"github.com/medkom/dialog-gateway/internal/dialog/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.DialogMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByUUID(ctx context.Context, id uuid.UUID) (*domain.DialogMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) GetOutboundByUUID(ctx context.Context, id uuid.UUID) (*domain.DialogMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) FindStatementRequestByConversation(ctx context.Context, conversationRef uuid.UUID, subjectIdent string) (*domain.DialogMessage, error) {
	args := m.Called(ctx, conversationRef, subjectIdent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) FindOutboundByConversation(ctx context.Context, conversationRef uuid.UUID, subjectIdent string) (*domain.DialogMessage, error) {
	args := m.Called(ctx, conversationRef, subjectIdent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) LatestOutboundStatementRequest(ctx context.Context, subjectIdent string, sentAfter time.Time) (*domain.DialogMessage, error) {
	args := m.Called(ctx, subjectIdent, sentAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) ListUnansweredCandidates(ctx context.Context, olderThan time.Time, limit int) ([]*domain.DialogMessage, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) MarkUnansweredPublished(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockMessageRepository) ListRejectedUnpublished(ctx context.Context, limit int) ([]*domain.DialogMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) MarkRejectedPublished(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockMessageRepository) ListInboundUnforwarded(ctx context.Context, limit int) ([]*domain.DialogMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) MarkForwardedPublished(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockMessageRepository) ListUnarchived(ctx context.Context, limit int) ([]*domain.DialogMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DialogMessage), args.Error(1)
}

func (m *MockMessageRepository) SetArchiveRef(ctx context.Context, id int64, ref string) error {
	args := m.Called(ctx, id, ref)
	return args.Error(0)
}

func (m *MockMessageRepository) RepointSubject(ctx context.Context, oldIdent, newIdent string) (int64, error) {
	args := m.Called(ctx, oldIdent, newIdent)
	return args.Get(0).(int64), args.Error(1)
}

type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) Upsert(ctx context.Context, messageID int64, status domain.Status, detail string) error {
	args := m.Called(ctx, messageID, status, detail)
	return args.Error(0)
}

func (m *MockStatusRepository) GetByMessageID(ctx context.Context, messageID int64) (*domain.MessageStatus, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MessageStatus), args.Error(1)
}

type MockAttachmentRepository struct {
	mock.Mock
}

func (m *MockAttachmentRepository) Create(ctx context.Context, att *domain.Attachment) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

func (m *MockAttachmentRepository) Get(ctx context.Context, messageID int64, number int) (*domain.Attachment, error) {
	args := m.Called(ctx, messageID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) ListByMessage(ctx context.Context, messageID int64) ([]*domain.Attachment, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Attachment), args.Error(1)
}

type MockIdentityChangeRepository struct {
	mock.Mock
}

func (m *MockIdentityChangeRepository) Create(ctx context.Context, oldIdent, newIdent string) error {
	args := m.Called(ctx, oldIdent, newIdent)
	return args.Error(0)
}

func (m *MockIdentityChangeRepository) ListUnprocessed(ctx context.Context, limit int) ([]*domain.IdentityChange, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IdentityChange), args.Error(1)
}

func (m *MockIdentityChangeRepository) MarkProcessed(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockAttachmentStore struct {
	mock.Mock
}

func (m *MockAttachmentStore) Fetch(ctx context.Context, id string) (*attachmentstore.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attachmentstore.Content), args.Error(1)
}
