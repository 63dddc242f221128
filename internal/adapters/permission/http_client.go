package permission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type httpChecker struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPChecker creates a Checker talking JSON to the permission service.
func NewHTTPChecker(baseURL string, httpClient *http.Client, logger *slog.Logger) Checker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &httpChecker{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

type checkRequest struct {
	SubjectIdent string `json:"subject_ident"`
	ActingUser   string `json:"acting_user"`
}

type checkResponse struct {
	Allowed bool `json:"allowed"`
}

func (c *httpChecker) Allowed(ctx context.Context, subjectIdent, actingUser string) (bool, error) {
	body, err := json.Marshal(checkRequest{SubjectIdent: subjectIdent, ActingUser: actingUser})
	if err != nil {
		return false, fmt.Errorf("marshal permission request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/access-check", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build permission request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("call permission service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("permission service returned status %d", resp.StatusCode)
	}

	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode permission response: %w", err)
	}
	return out.Allowed, nil
}
