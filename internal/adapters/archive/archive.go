// Package archive wraps the external document-archive service which stores
// accepted outbound messages permanently and returns a reference id.
package archive

import (
	"context"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
)

// Submission is one archive request built from an outbound message.
type Submission struct {
	Title        string                   `json:"title"`
	Visibility   domain.ArchiveVisibility `json:"visibility"`
	SubjectIdent string                   `json:"subject_ident"`
	// RecipientIdent identifies the provider: national id when known, else
	// a zero-padded 9-digit registry number, else empty with RecipientName
	// carrying the only identity available.
	RecipientIdent string `json:"recipient_ident,omitempty"`
	RecipientName  string `json:"recipient_name,omitempty"`
	DocumentText   string `json:"document_text"`
	DocumentPDF    []byte `json:"document_pdf"`
}

// Archiver submits documents to the archive and returns the archive
// reference on success.
type Archiver interface {
	Submit(ctx context.Context, sub Submission) (string, error)
}
