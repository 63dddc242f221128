// Package app implements the archive dispatcher: the periodic job that
// submits accepted outbound messages to the external document archive.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/medkom/dialog-gateway/internal/adapters/archive"
	"github.com/medkom/dialog-gateway/internal/dialog/domain"
)

// Dispatcher submits every outbound message that carries a rendered
// document but no archive reference yet. The archive reference is written
// exactly once; a crash after Submit but before SetArchiveRef resubmits the
// same document on the next run, which the archive tolerates.
type Dispatcher struct {
	messages    domain.MessageRepository
	attachments domain.AttachmentRepository
	archiver    archive.Archiver
	batchSize   int
	logger      *slog.Logger
}

func NewDispatcher(
	messages domain.MessageRepository,
	attachments domain.AttachmentRepository,
	archiver archive.Archiver,
	batchSize int,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		messages:    messages,
		attachments: attachments,
		archiver:    archiver,
		batchSize:   batchSize,
		logger:      logger,
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	candidates, err := d.messages.ListUnarchived(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("list unarchived messages: %w", err)
	}

	for _, msg := range candidates {
		if err := d.process(ctx, msg); err != nil {
			archiveSubmissionsCounter.WithLabelValues("failed").Inc()
			d.logger.ErrorContext(ctx, "archive submission failed",
				"message_uuid", msg.UUID, "error", err)
			continue
		}
		archiveSubmissionsCounter.WithLabelValues("archived").Inc()
	}
	return nil
}

func (d *Dispatcher) process(ctx context.Context, msg *domain.DialogMessage) error {
	pdf, err := d.attachments.Get(ctx, msg.ID, 0)
	if err != nil {
		return fmt.Errorf("load rendered document: %w", err)
	}

	sub := archive.Submission{
		Title:        msg.Type.ArchiveTitle(),
		Visibility:   msg.Type.ArchiveVisibility(),
		SubjectIdent: msg.SubjectIdent,
		DocumentText: domain.DocumentText(msg.Document),
		DocumentPDF:  pdf.Payload,
	}
	sub.RecipientIdent, sub.RecipientName = recipient(msg)

	ref, err := d.archiver.Submit(ctx, sub)
	if err != nil {
		return fmt.Errorf("submit to archive: %w", err)
	}
	if err := d.messages.SetArchiveRef(ctx, msg.ID, ref); err != nil {
		return fmt.Errorf("set archive ref: %w", err)
	}
	return nil
}

// recipient derives the archive recipient from what the message knows about
// the provider: the national id when present, else the registry number from
// the network address zero-padded to nine digits, else only the name.
func recipient(msg *domain.DialogMessage) (ident, name string) {
	if msg.ProviderName != nil {
		name = *msg.ProviderName
	}
	if msg.ProviderIdent != nil && *msg.ProviderIdent != "" {
		return *msg.ProviderIdent, name
	}
	if msg.ProviderRef != nil {
		if n, err := strconv.Atoi(*msg.ProviderRef); err == nil {
			return fmt.Sprintf("%09d", n), name
		}
	}
	return "", name
}
