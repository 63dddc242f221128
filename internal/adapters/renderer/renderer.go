// Package renderer wraps the external document-generation service. The
// service takes structured message content and returns opaque rendered
// bytes; rendering failures surface as retryable errors to the caller.
package renderer

import (
	"context"

	"github.com/medkom/dialog-gateway/internal/dialog/domain"
)

// RenderRequest carries the structured content handed to the renderer.
type RenderRequest struct {
	KindCode string                 `json:"kind_code"`
	Title    string                 `json:"title"`
	Text     string                 `json:"text"`
	Blocks   []domain.DocumentBlock `json:"blocks"`
}

// Renderer renders a message's structured document into opaque bytes
// (in practice a PDF).
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}
