package domain

import (
	"encoding/json"
	"time"
)

// PendingUpdate is an AI-proposed draft record awaiting user review.
// Status transitions: pending -> accepted | rejected (terminal).
// The payload is the category-specific field set extracted by the parser.
type PendingUpdate struct {
	UpdateID   string          `json:"update_id"`
	SessionID  string          `json:"session_id,omitempty"`
	Category   UpdateCategory  `json:"category"`
	Summary    string          `json:"summary"`
	RawText    string          `json:"raw_text,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Confidence float64         `json:"confidence"`
	Status     UpdateStatus    `json:"status"`
	EntityID   string          `json:"entity_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ListFilter selects pending updates. Zero-valued fields mean "no constraint",
// except Status: the service substitutes StatusPending when it is empty.
type ListFilter struct {
	Status    UpdateStatus
	Category  UpdateCategory
	SessionID string
}

// PendingSummary carries the derived counts the review UI renders, so
// consumers never reconstruct them from a list themselves.
type PendingSummary struct {
	TotalPending int                    `json:"total_pending"`
	ByCategory   map[UpdateCategory]int `json:"by_category"`
	RecentItems  []PendingUpdate        `json:"recent_items"`
	HasPending   bool                   `json:"has_pending"`
}

// AcceptOutcome is the per-draft result of an accept or accept-all call.
// Batch failures are reported as data, one outcome per draft, never as a
// thrown error for the whole batch.
type AcceptOutcome struct {
	UpdateID string         `json:"update_id"`
	Category UpdateCategory `json:"category"`
	EntityID string         `json:"entity_id,omitempty"`
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
}

// BusEvent is a published bus message, retained in the diagnostics history.
type BusEvent struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// EntityCreatedPayload is the payload of a <category>:created event.
type EntityCreatedPayload struct {
	EntityID string          `json:"entity_id"`
	Category UpdateCategory  `json:"category"`
	Summary  string          `json:"summary"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	UpdateID string          `json:"update_id"`
}
