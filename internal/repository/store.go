// Package repository provides persistence for sessions, transcripts and
// pending updates.
package repository

import (
	"context"

	"github.com/daypulse/capture/internal/domain"
)

// Store is the persistence boundary of the capture service. Mutation methods
// are the sole path to state change; transition methods report whether the
// guarded write applied so callers can detect lost races.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	GetActiveSession(ctx context.Context) (*domain.Session, error)
	EndSession(ctx context.Context, sessionID string) (bool, error)
	EndActiveSessions(ctx context.Context) (int, error)
	AddCoveredCategory(ctx context.Context, sessionID string, category domain.UpdateCategory) error

	// Transcript
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Pending updates
	CreatePendingUpdate(ctx context.Context, update *domain.PendingUpdate) error
	GetPendingUpdate(ctx context.Context, updateID string) (*domain.PendingUpdate, error)
	ListPendingUpdates(ctx context.Context, filter domain.ListFilter) ([]domain.PendingUpdate, error)
	UpdateDraftContent(ctx context.Context, updateID string, summary string, payload []byte) (bool, error)
	MarkAccepted(ctx context.Context, updateID string, entityID string) (bool, error)
	MarkRejected(ctx context.Context, updateID string) (bool, error)
	DeletePendingUpdate(ctx context.Context, updateID string) (bool, error)

	Close() error
}
