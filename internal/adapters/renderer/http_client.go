package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type httpRenderer struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPRenderer creates a Renderer talking JSON to the document
// generation service.
func NewHTTPRenderer(baseURL string, httpClient *http.Client, logger *slog.Logger) Renderer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &httpRenderer{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

func (r *httpRenderer) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/v1/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer returned status %d", resp.StatusCode)
	}

	rendered, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rendered document: %w", err)
	}

	r.logger.DebugContext(ctx, "document rendered", "kind_code", req.KindCode, "bytes", len(rendered))
	return rendered, nil
}
