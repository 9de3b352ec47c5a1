// Package parser provides the client for the external AI parsing service
// that turns free-form utterances into typed draft entries.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daypulse/capture/internal/domain"
)

// Parser defines the parsing collaborator boundary. An empty Entries slice is
// a valid outcome: it means nothing could be extracted, not an error.
type Parser interface {
	Parse(ctx context.Context, req *ParseRequest) (*ParseResponse, error)
}

// TranscriptEntry is one prior message sent as context.
type TranscriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ParseRequest carries one utterance plus the session transcript.
type ParseRequest struct {
	SessionID string            `json:"session_id"`
	Message   string            `json:"message"`
	History   []TranscriptEntry `json:"history,omitempty"`
}

// ParsedEntry is one draft the parser extracted. The category is carried
// end-to-end from here; nothing downstream re-derives it.
type ParsedEntry struct {
	Category   domain.UpdateCategory `json:"category"`
	Summary    string                `json:"summary"`
	Details    json.RawMessage       `json:"details"`
	Confidence float64               `json:"confidence"`
}

// ParseResponse is the parser's answer to one chat turn.
type ParseResponse struct {
	Reply   string        `json:"assistant_reply"`
	Entries []ParsedEntry `json:"created_entries"`
}

// Client talks to the parser service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a parser client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Parser = (*Client)(nil)

// Parse sends the utterance to POST /v1/parse.
func (c *Client) Parse(ctx context.Context, req *ParseRequest) (*ParseResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parse request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.ExternalError{Op: "parser", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.ExternalError{
			Op:  "parser",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	var parsed ParseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &domain.ExternalError{Op: "parser", Err: fmt.Errorf("malformed response: %w", err)}
	}
	return &parsed, nil
}
