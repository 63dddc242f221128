package attachmentstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

type httpStore struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPStore creates a Store fetching attachment bytes over HTTP.
func NewHTTPStore(baseURL string, httpClient *http.Client, logger *slog.Logger) Store {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpStore{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

func (s *httpStore) Fetch(ctx context.Context, id string) (*Content, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/api/v1/attachments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("build attachment request: %w", err)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch attachment %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment store returned status %d for %s", resp.StatusCode, id)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read attachment %s: %w", id, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	s.logger.DebugContext(ctx, "attachment fetched", "id", id, "bytes", len(payload))
	return &Content{Bytes: payload, ContentType: contentType}, nil
}
