// Package attachmentstore wraps the external store holding attachment
// payloads referenced by inbound bus records.
package attachmentstore

import "context"

// Content is one fetched attachment payload with its declared content type.
type Content struct {
	Bytes       []byte
	ContentType string
}

// Store fetches externally stored attachment content by opaque id.
type Store interface {
	Fetch(ctx context.Context, id string) (*Content, error)
}
