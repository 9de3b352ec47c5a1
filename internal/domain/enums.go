// Package domain defines the core domain models for the capture service.
package domain

// UpdateCategory identifies which dashboard domain a draft belongs to.
type UpdateCategory string

const (
	CategoryTask    UpdateCategory = "task"
	CategoryExpense UpdateCategory = "expense"
	CategoryEvent   UpdateCategory = "event"
	CategoryJournal UpdateCategory = "journal"
)

// Categories lists every valid draft category in a stable order.
var Categories = []UpdateCategory{CategoryTask, CategoryExpense, CategoryEvent, CategoryJournal}

// Valid reports whether c is one of the known categories.
func (c UpdateCategory) Valid() bool {
	switch c {
	case CategoryTask, CategoryExpense, CategoryEvent, CategoryJournal:
		return true
	}
	return false
}

// UpdateStatus represents the lifecycle state of a pending update.
type UpdateStatus string

const (
	StatusPending  UpdateStatus = "pending"
	StatusAccepted UpdateStatus = "accepted"
	StatusRejected UpdateStatus = "rejected"

	// StatusAll is a filter value meaning "no status constraint".
	// It is never stored.
	StatusAll UpdateStatus = "all"
)

// SessionStatus represents the lifecycle state of a capture session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// EventType identifies a bus message type. Names follow the
// <domain>:<action> convention shared with the other dashboard producers.
type EventType string

const (
	EventTaskCreated    EventType = "task:created"
	EventTaskUpdated    EventType = "task:updated"
	EventTaskDeleted    EventType = "task:deleted"
	EventTaskCompleted  EventType = "task:completed"
	EventExpenseCreated EventType = "expense:created"
	EventExpenseUpdated EventType = "expense:updated"
	EventExpenseDeleted EventType = "expense:deleted"
	EventEventCreated   EventType = "event:created"
	EventEventUpdated   EventType = "event:updated"
	EventEventDeleted   EventType = "event:deleted"
	EventJournalCreated EventType = "journal:created"
	EventJournalUpdated EventType = "journal:updated"
	EventJournalDeleted EventType = "journal:deleted"
	EventProfileUpdated EventType = "profile:updated"
	EventSessionStarted EventType = "daily_update:session_started"
	EventSessionEnded   EventType = "daily_update:session_ended"
)

// CreatedEvent returns the <category>:created event type emitted after a
// successful accept.
func CreatedEvent(c UpdateCategory) EventType {
	return EventType(string(c) + ":created")
}
