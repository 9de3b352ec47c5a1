package domain

import "encoding/json"

// ChatRequest carries one user utterance into an active session.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is what the conversational UI renders after each turn.
// It is always populated, even when the parser failed; failures surface as a
// fallback reply with zero drafts.
type ChatResponse struct {
	SessionID     string          `json:"session_id"`
	Reply         string          `json:"reply"`
	CreatedDrafts []PendingUpdate `json:"created_drafts"`
}

// CreateDraftRequest creates a draft outside the conversational flow.
type CreateDraftRequest struct {
	SessionID  string          `json:"session_id,omitempty"`
	Category   UpdateCategory  `json:"category"`
	Summary    string          `json:"summary"`
	RawText    string          `json:"raw_text,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
}

// EditDraftRequest patches a pending draft. Nil fields are left untouched;
// a non-nil Payload is merged key-by-key into the existing payload.
type EditDraftRequest struct {
	Summary *string                    `json:"summary,omitempty"`
	Payload map[string]json.RawMessage `json:"payload,omitempty"`
}

// ReviewSnapshot is returned after every mutation: the re-read pending list
// plus the derived counts, so consumers resync instead of trusting their own
// optimistic state.
type ReviewSnapshot struct {
	Pending []PendingUpdate `json:"pending"`
	Summary PendingSummary  `json:"summary"`
}

// AcceptResponse is the result of accepting a single draft.
type AcceptResponse struct {
	Outcome  AcceptOutcome  `json:"outcome"`
	Snapshot ReviewSnapshot `json:"snapshot"`
}

// AcceptAllResponse reports the per-draft outcomes of a batch accept.
type AcceptAllResponse struct {
	Outcomes []AcceptOutcome `json:"outcomes"`
	Accepted int             `json:"accepted"`
	Failed   int             `json:"failed"`
	Snapshot ReviewSnapshot  `json:"snapshot"`
}
