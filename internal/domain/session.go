package domain

import "time"

// Session represents a single daily-update capture conversation.
// State machine: active -> ended (terminal).
type Session struct {
	SessionID         string        `json:"session_id"`
	Status            SessionStatus `json:"status"`
	StartedAt         time.Time     `json:"started_at"`
	EndedAt           *time.Time    `json:"ended_at,omitempty"`
	CategoriesCovered []string      `json:"categories_covered"`
}

// Active reports whether the session still accepts messages.
func (s *Session) Active() bool {
	return s.Status == SessionActive
}

// Message is a single transcript entry within a session.
type Message struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryStatus reports coverage of one category within a session.
type CategoryStatus struct {
	Category   UpdateCategory `json:"category"`
	Covered    bool           `json:"covered"`
	ItemsCount int            `json:"items_count"`
}

// ConversationState is a read-only projection of a session: the transcript
// plus derived coverage counters. It is recomputed on demand, never stored.
type ConversationState struct {
	SessionID     string           `json:"session_id"`
	Status        SessionStatus    `json:"status"`
	Transcript    []Message        `json:"transcript"`
	Categories    []CategoryStatus `json:"categories"`
	PendingCount  int              `json:"pending_count"`
	TotalCaptured int              `json:"total_captured"`
	Complete      bool             `json:"complete"`
}
