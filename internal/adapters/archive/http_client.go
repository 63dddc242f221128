package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type httpArchiver struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPArchiver creates an Archiver talking JSON to the archive service.
func NewHTTPArchiver(baseURL string, httpClient *http.Client, logger *slog.Logger) Archiver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpArchiver{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

type submitResponse struct {
	ArchiveRef string `json:"archive_ref"`
}

func (a *httpArchiver) Submit(ctx context.Context, sub Submission) (string, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("marshal archive submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v1/documents", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build archive request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("archive returned status %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode archive response: %w", err)
	}
	if out.ArchiveRef == "" {
		return "", fmt.Errorf("archive returned empty reference")
	}

	a.logger.DebugContext(ctx, "document archived", "archive_ref", out.ArchiveRef)
	return out.ArchiveRef, nil
}
