// Package entries provides the client for the per-category domain create
// endpoints that accepted drafts are committed to.
package entries

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

// Creator defines the domain-store boundary. Create is called at most once
// per accept attempt; idempotency beyond that is the collaborator's concern.
type Creator interface {
	Create(ctx context.Context, category domain.UpdateCategory, entry *EntryRequest) (*Entity, error)
}

// EntryRequest is the committed form of a draft.
type EntryRequest struct {
	Title  string          `json:"title"`
	Fields json.RawMessage `json:"fields,omitempty"`
}

// Entity is the permanent record the domain store created.
type Entity struct {
	ID string `json:"id"`
}

// categoryPaths maps each category to its create endpoint.
var categoryPaths = map[domain.UpdateCategory]string{
	domain.CategoryTask:    "/v1/tasks",
	domain.CategoryExpense: "/v1/expenses",
	domain.CategoryEvent:   "/v1/events",
	domain.CategoryJournal: "/v1/journal",
}

// Client talks to the domain stores over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a domain-store client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Creator = (*Client)(nil)

// Create posts the entry to the category's create endpoint.
func (c *Client) Create(ctx context.Context, category domain.UpdateCategory, entry *EntryRequest) (*Entity, error) {
	path, ok := categoryPaths[category]
	if !ok {
		return nil, fmt.Errorf("no create endpoint for category %q", category)
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.ExternalError{Op: "create " + string(category), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.ExternalError{
			Op:  "create " + string(category),
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	var entity Entity
	if err := json.NewDecoder(resp.Body).Decode(&entity); err != nil {
		return nil, &domain.ExternalError{Op: "create " + string(category), Err: fmt.Errorf("malformed response: %w", err)}
	}
	if entity.ID == "" {
		return nil, &domain.ExternalError{Op: "create " + string(category), Err: fmt.Errorf("response missing entity id")}
	}
	return &entity, nil
}
