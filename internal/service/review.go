package service

import (
	"context"

	"github.com/daypulse/capture/internal/domain"
)

// The review coordinator wraps every draft mutation with a re-read of the
// pending list and the summary counts. Consumers resync from the returned
// snapshot instead of mutating their own optimistic copy; the store stays
// the single source of truth.

func (s *Service) snapshot(ctx context.Context) (domain.ReviewSnapshot, error) {
	pending, err := s.ListDrafts(ctx, domain.ListFilter{})
	if err != nil {
		return domain.ReviewSnapshot{}, err
	}
	summary, err := s.Summary(ctx)
	if err != nil {
		return domain.ReviewSnapshot{}, err
	}
	return domain.ReviewSnapshot{Pending: pending, Summary: *summary}, nil
}

// ReviewAccept accepts one draft and returns the outcome with a fresh
// snapshot.
func (s *Service) ReviewAccept(ctx context.Context, updateID string) (*domain.AcceptResponse, error) {
	outcome, err := s.AcceptDraft(ctx, updateID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.AcceptResponse{Outcome: *outcome, Snapshot: snapshot}, nil
}

// ReviewReject rejects one draft and returns a fresh snapshot.
func (s *Service) ReviewReject(ctx context.Context, updateID string) (*domain.ReviewSnapshot, error) {
	if _, err := s.RejectDraft(ctx, updateID); err != nil {
		return nil, err
	}
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ReviewEdit edits one draft and returns it with a fresh snapshot.
func (s *Service) ReviewEdit(ctx context.Context, updateID string, req *domain.EditDraftRequest) (*domain.PendingUpdate, *domain.ReviewSnapshot, error) {
	update, err := s.EditDraft(ctx, updateID, req)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return update, &snapshot, nil
}

// ReviewDelete deletes one draft and returns a fresh snapshot.
func (s *Service) ReviewDelete(ctx context.Context, updateID string) (*domain.ReviewSnapshot, error) {
	if err := s.DeleteDraft(ctx, updateID); err != nil {
		return nil, err
	}
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ReviewAcceptAll runs the batch accept and returns the per-draft outcomes
// with a fresh snapshot.
func (s *Service) ReviewAcceptAll(ctx context.Context, sessionID string) (*domain.AcceptAllResponse, error) {
	outcomes, err := s.AcceptAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	accepted, failed := 0, 0
	for _, o := range outcomes {
		if o.Success {
			accepted++
		} else {
			failed++
		}
	}

	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.AcceptAllResponse{
		Outcomes: outcomes,
		Accepted: accepted,
		Failed:   failed,
		Snapshot: snapshot,
	}, nil
}
