package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/daypulse/capture/internal/adapter/parser"
	"github.com/daypulse/capture/internal/domain"
)

// fallbackReply is shown when the parser cannot be reached or returns
// garbage. The conversation must always get a reply to render.
const fallbackReply = "I'm having trouble processing that. Could you repeat what you said?"

// Chat forwards one user utterance to the parsing collaborator and stores
// whatever drafts it extracted. Parser failures never reach the caller: the
// user message is still recorded and a fallback reply with zero drafts comes
// back instead.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (*domain.ChatResponse, error) {
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

	transcript, err := s.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	history := make([]parser.TranscriptEntry, 0, len(transcript))
	for _, m := range transcript {
		history = append(history, parser.TranscriptEntry{Role: m.Role, Content: m.Content})
	}

	if err := s.store.CreateMessage(ctx, &domain.Message{
		MessageID: newID("msg"),
		SessionID: sessionID,
		Role:      "user",
		Content:   message,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	parsed, err := s.parser.Parse(ctx, &parser.ParseRequest{
		SessionID: sessionID,
		Message:   message,
		History:   history,
	})
	if err != nil {
		log.Printf("WARN: parser failed for session %s: %v", sessionID, err)
		return s.replyWithFallback(ctx, sessionID)
	}

	reply := parsed.Reply
	if reply == "" {
		reply = fallbackReply
	}
	if err := s.store.CreateMessage(ctx, &domain.Message{
		MessageID: newID("msg"),
		SessionID: sessionID,
		Role:      "assistant",
		Content:   reply,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record assistant reply: %w", err)
	}

	drafts := make([]domain.PendingUpdate, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		// The category is the parser's verdict, never re-derived here.
		// Entries outside the taxonomy are dropped rather than guessed at.
		if !entry.Category.Valid() {
			log.Printf("WARN: parser returned unknown category %q for session %s, skipping", entry.Category, sessionID)
			continue
		}

		now := time.Now()
		draft := domain.PendingUpdate{
			UpdateID:   newID("upd"),
			SessionID:  sessionID,
			Category:   entry.Category,
			Summary:    entry.Summary,
			RawText:    message,
			Payload:    entry.Details,
			Confidence: entry.Confidence,
			Status:     domain.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.CreatePendingUpdate(ctx, &draft); err != nil {
			return nil, fmt.Errorf("failed to store draft: %w", err)
		}
		if err := s.store.AddCoveredCategory(ctx, sessionID, entry.Category); err != nil {
			log.Printf("WARN: failed to mark category %s covered for session %s: %v", entry.Category, sessionID, err)
		}
		drafts = append(drafts, draft)
	}

	return &domain.ChatResponse{
		SessionID:     sessionID,
		Reply:         reply,
		CreatedDrafts: drafts,
	}, nil
}

func (s *Service) replyWithFallback(ctx context.Context, sessionID string) (*domain.ChatResponse, error) {
	if err := s.store.CreateMessage(ctx, &domain.Message{
		MessageID: newID("msg"),
		SessionID: sessionID,
		Role:      "assistant",
		Content:   fallbackReply,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record fallback reply: %w", err)
	}
	return &domain.ChatResponse{
		SessionID:     sessionID,
		Reply:         fallbackReply,
		CreatedDrafts: []domain.PendingUpdate{},
	}, nil
}
