package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/daypulse/capture/internal/domain"
)

// StartSession creates a new active capture session. Any session still active
// is implicitly ended first, so at most one session is active at a time.
func (s *Service) StartSession(ctx context.Context) (*domain.Session, error) {
	ended, err := s.store.EndActiveSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to end prior sessions: %w", err)
	}
	if ended > 0 {
		log.Printf("WARN: replaced %d active session(s) on start", ended)
	}

	session := &domain.Session{
		SessionID:         newID("sess"),
		Status:            domain.SessionActive,
		StartedAt:         time.Now(),
		CategoriesCovered: []string{},
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.bus.Publish(domain.EventSessionStarted, map[string]string{"session_id": session.SessionID})
	return session, nil
}

// EndSession transitions a session to ended. Ending an already-ended session
// is a no-op, not an error.
func (s *Service) EndSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	ended, err := s.store.EndSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	if ended {
		s.bus.Publish(domain.EventSessionEnded, map[string]string{"session_id": sessionID})
	}

	session, err = s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}
	return session, nil
}

// ActiveSession returns the current active session, or nil when there is
// none. It never fails on "no active session".
func (s *Service) ActiveSession(ctx context.Context) (*domain.Session, error) {
	return s.store.GetActiveSession(ctx)
}

// AppendMessage adds a transcript entry to an active session.
func (s *Service) AppendMessage(ctx context.Context, sessionID, role, content string) (*domain.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if !session.Active() {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionEnded)
	}

	message := &domain.Message{
		MessageID: newID("msg"),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return message, nil
}

// ConversationState projects a session into the transcript plus derived
// per-category coverage. Recomputed on every call, never cached.
func (s *Service) ConversationState(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	messages, err := s.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	drafts, err := s.store.ListPendingUpdates(ctx, domain.ListFilter{Status: domain.StatusAll, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list session drafts: %w", err)
	}

	covered := make(map[string]bool, len(session.CategoriesCovered))
	for _, c := range session.CategoriesCovered {
		covered[c] = true
	}

	itemCounts := make(map[domain.UpdateCategory]int)
	pendingCount := 0
	for _, d := range drafts {
		itemCounts[d.Category]++
		if d.Status == domain.StatusPending {
			pendingCount++
		}
	}

	categories := make([]domain.CategoryStatus, 0, len(domain.Categories))
	complete := true
	for _, c := range domain.Categories {
		isCovered := covered[string(c)]
		if !isCovered {
			complete = false
		}
		categories = append(categories, domain.CategoryStatus{
			Category:   c,
			Covered:    isCovered,
			ItemsCount: itemCounts[c],
		})
	}

	return &domain.ConversationState{
		SessionID:     sessionID,
		Status:        session.Status,
		Transcript:    messages,
		Categories:    categories,
		PendingCount:  pendingCount,
		TotalCaptured: len(drafts),
		Complete:      complete,
	}, nil
}
