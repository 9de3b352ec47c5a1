package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/daypulse/capture/internal/adapter/entries"
	"github.com/daypulse/capture/internal/domain"
)

// recentItemsLimit bounds the recent list in PendingSummary.
const recentItemsLimit = 5

// ListDrafts returns drafts matching the filter. When no status is given the
// filter defaults to pending; callers wanting every status must ask with
// StatusAll explicitly.
func (s *Service) ListDrafts(ctx context.Context, filter domain.ListFilter) ([]domain.PendingUpdate, error) {
	if filter.Status == "" {
		filter.Status = domain.StatusPending
	}
	updates, err := s.store.ListPendingUpdates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	if updates == nil {
		updates = []domain.PendingUpdate{}
	}
	return updates, nil
}

// GetDraft returns one draft by id.
func (s *Service) GetDraft(ctx context.Context, updateID string) (*domain.PendingUpdate, error) {
	update, err := s.store.GetPendingUpdate(ctx, updateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if update == nil {
		return nil, fmt.Errorf("draft %s: %w", updateID, domain.ErrNotFound)
	}
	return update, nil
}

// CreateDraft inserts a draft outside the conversational flow, e.g. from a
// manual capture form. Schema validation still happens at edit/accept time.
func (s *Service) CreateDraft(ctx context.Context, req *domain.CreateDraftRequest) (*domain.PendingUpdate, error) {
	if !req.Category.Valid() {
		return nil, &domain.ValidationError{Category: req.Category, Reasons: []string{"unknown category"}}
	}
	if req.Summary == "" {
		return nil, &domain.ValidationError{Category: req.Category, Reasons: []string{"summary is required"}}
	}
	if req.SessionID != "" {
		session, err := s.store.GetSession(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if session == nil {
			return nil, fmt.Errorf("session %s: %w", req.SessionID, domain.ErrNotFound)
		}
	}

	now := time.Now()
	draft := &domain.PendingUpdate{
		UpdateID:   newID("upd"),
		SessionID:  req.SessionID,
		Category:   req.Category,
		Summary:    req.Summary,
		RawText:    req.RawText,
		Payload:    req.Payload,
		Confidence: req.Confidence,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreatePendingUpdate(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to store draft: %w", err)
	}
	if req.SessionID != "" {
		if err := s.store.AddCoveredCategory(ctx, req.SessionID, req.Category); err != nil {
			log.Printf("WARN: failed to mark category %s covered for session %s: %v", req.Category, req.SessionID, err)
		}
	}
	return draft, nil
}

// EditDraft merges the patch into a pending draft. The merged result is
// validated before anything is written: an invalid patch leaves the draft
// exactly as it was.
func (s *Service) EditDraft(ctx context.Context, updateID string, req *domain.EditDraftRequest) (*domain.PendingUpdate, error) {
	update, err := s.GetDraft(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if update.Status != domain.StatusPending {
		return nil, fmt.Errorf("draft %s is %s: %w", updateID, update.Status, domain.ErrInvalidState)
	}

	summary := update.Summary
	if req.Summary != nil {
		summary = *req.Summary
	}

	merged, err := mergePayload(update.Payload, req.Payload)
	if err != nil {
		return nil, &domain.ValidationError{Category: update.Category, Reasons: []string{err.Error()}}
	}

	if err := s.policy.Validate(ctx, update.Category, summary, merged); err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateDraftContent(ctx, updateID, summary, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	if !ok {
		// The draft left pending between our read and the guarded write.
		return nil, fmt.Errorf("draft %s: %w", updateID, domain.ErrInvalidState)
	}

	return s.GetDraft(ctx, updateID)
}

// mergePayload applies patch keys over the existing payload object.
func mergePayload(existing json.RawMessage, patch map[string]json.RawMessage) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &fields); err != nil {
			return nil, fmt.Errorf("existing payload is not a JSON object")
		}
	}
	for k, v := range patch {
		fields[k] = v
	}
	return json.Marshal(fields)
}

// AcceptDraft validates a pending draft, commits it to its category's domain
// store and publishes the <category>:created event. On external failure the
// draft stays pending and the error is surfaced.
func (s *Service) AcceptDraft(ctx context.Context, updateID string) (*domain.AcceptOutcome, error) {
	update, err := s.GetDraft(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if update.Status != domain.StatusPending {
		return nil, fmt.Errorf("draft %s is %s: %w", updateID, update.Status, domain.ErrConflict)
	}

	if err := s.policy.Validate(ctx, update.Category, update.Summary, update.Payload); err != nil {
		return nil, err
	}

	entity, err := s.entries.Create(ctx, update.Category, entryFromDraft(update))
	if err != nil {
		return nil, err
	}

	ok, err := s.store.MarkAccepted(ctx, updateID, entity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark draft accepted: %w", err)
	}
	if !ok {
		// A concurrent transition won the guarded write after our create
		// call went out; the entity exists but this accept loses.
		log.Printf("WARN: draft %s raced during accept, entity %s may be orphaned", updateID, entity.ID)
		return nil, fmt.Errorf("draft %s: %w", updateID, domain.ErrConflict)
	}

	s.bus.Publish(domain.CreatedEvent(update.Category), domain.EntityCreatedPayload{
		EntityID: entity.ID,
		Category: update.Category,
		Summary:  update.Summary,
		Payload:  update.Payload,
		UpdateID: updateID,
	})

	return &domain.AcceptOutcome{
		UpdateID: updateID,
		Category: update.Category,
		EntityID: entity.ID,
		Success:  true,
	}, nil
}

func entryFromDraft(update *domain.PendingUpdate) *entries.EntryRequest {
	return &entries.EntryRequest{
		Title:  update.Summary,
		Fields: update.Payload,
	}
}

// RejectDraft marks a pending draft rejected. Local only: no external call,
// no event.
func (s *Service) RejectDraft(ctx context.Context, updateID string) (*domain.PendingUpdate, error) {
	update, err := s.GetDraft(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if update.Status != domain.StatusPending {
		return nil, fmt.Errorf("draft %s is %s: %w", updateID, update.Status, domain.ErrConflict)
	}

	ok, err := s.store.MarkRejected(ctx, updateID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject draft: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", updateID, domain.ErrConflict)
	}
	return s.GetDraft(ctx, updateID)
}

// DeleteDraft hard-removes a draft regardless of status. Deleting an unknown
// id is a no-op.
func (s *Service) DeleteDraft(ctx context.Context, updateID string) error {
	if _, err := s.store.DeletePendingUpdate(ctx, updateID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// AcceptAll attempts to accept every pending draft, optionally scoped to one
// session (empty sessionID means global). Each draft is tried independently:
// one failure neither aborts the batch nor rolls back earlier successes.
// Outcomes come back in listing order, one per draft.
func (s *Service) AcceptAll(ctx context.Context, sessionID string) ([]domain.AcceptOutcome, error) {
	pending, err := s.store.ListPendingUpdates(ctx, domain.ListFilter{Status: domain.StatusPending, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending drafts: %w", err)
	}

	outcomes := make([]domain.AcceptOutcome, 0, len(pending))
	for _, update := range pending {
		outcome, err := s.AcceptDraft(ctx, update.UpdateID)
		if err != nil {
			outcomes = append(outcomes, domain.AcceptOutcome{
				UpdateID: update.UpdateID,
				Category: update.Category,
				Success:  false,
				Error:    err.Error(),
			})
			continue
		}
		outcomes = append(outcomes, *outcome)
	}
	return outcomes, nil
}

// Summary computes the derived pending counts the review UI renders.
func (s *Service) Summary(ctx context.Context) (*domain.PendingSummary, error) {
	pending, err := s.store.ListPendingUpdates(ctx, domain.ListFilter{Status: domain.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending drafts: %w", err)
	}

	byCategory := make(map[domain.UpdateCategory]int, len(domain.Categories))
	for _, c := range domain.Categories {
		byCategory[c] = 0
	}
	for _, u := range pending {
		byCategory[u.Category]++
	}

	recent := pending
	if len(recent) > recentItemsLimit {
		recent = recent[:recentItemsLimit]
	}
	if recent == nil {
		recent = []domain.PendingUpdate{}
	}

	return &domain.PendingSummary{
		TotalPending: len(pending),
		ByCategory:   byCategory,
		RecentItems:  recent,
		HasPending:   len(pending) > 0,
	}, nil
}
