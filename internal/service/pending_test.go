package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daypulse/capture/internal/domain"
)

func mustCreateDraft(t *testing.T, svc *Service, req *domain.CreateDraftRequest) *domain.PendingUpdate {
	t.Helper()
	draft, err := svc.CreateDraft(context.Background(), req)
	require.NoError(t, err)
	return draft
}

func TestAcceptDraftPublishesOneEvent(t *testing.T) {
	svc, _, creator := newTestService(t)
	ctx := context.Background()

	var events []domain.EntityCreatedPayload
	svc.Bus().Subscribe(domain.EventTaskCreated, func(payload interface{}) {
		events = append(events, payload.(domain.EntityCreatedPayload))
	})

	draft := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Finish report by Friday",
	})

	outcome, err := svc.AcceptDraft(ctx, draft.UpdateID)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.NotEmpty(t, outcome.EntityID)
	assert.Equal(t, 1, creator.calls[domain.CategoryTask])

	require.Len(t, events, 1)
	assert.Equal(t, outcome.EntityID, events[0].EntityID)
	assert.Equal(t, draft.UpdateID, events[0].UpdateID)

	reloaded, err := svc.GetDraft(ctx, draft.UpdateID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, reloaded.Status)
	assert.Equal(t, outcome.EntityID, reloaded.EntityID)
}

func TestAcceptDraftTwice(t *testing.T) {
	svc, _, creator := newTestService(t)
	ctx := context.Background()

	var events int
	svc.Bus().Subscribe(domain.EventTaskCreated, func(payload interface{}) { events++ })

	draft := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Water the plants",
	})

	_, err := svc.AcceptDraft(ctx, draft.UpdateID)
	require.NoError(t, err)

	// A repeat accept hits the terminal-status check before any external call.
	_, err = svc.AcceptDraft(ctx, draft.UpdateID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, creator.total())
	assert.Equal(t, 1, events)
}

func TestAcceptDraftValidationBlocks(t *testing.T) {
	svc, _, creator := newTestService(t)
	ctx := context.Background()

	draft := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryExpense,
		Summary:  "Team lunch",
	})

	_, err := svc.AcceptDraft(ctx, draft.UpdateID)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "amount")
	assert.Equal(t, 0, creator.total())

	reloaded, err := svc.GetDraft(ctx, draft.UpdateID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, reloaded.Status)
}

func TestAcceptDraftRequiredPayloadFields(t *testing.T) {
	cases := []struct {
		name   string
		req    *domain.CreateDraftRequest
		reason string
	}{
		{
			name: "event without start_time",
			req: &domain.CreateDraftRequest{
				Category: domain.CategoryEvent,
				Summary:  "Team standup",
				Payload:  json.RawMessage(`{"location": "office"}`),
			},
			reason: "start_time",
		},
		{
			name: "journal without content",
			req: &domain.CreateDraftRequest{
				Category: domain.CategoryJournal,
				Summary:  "Rough day",
				Payload:  json.RawMessage(`{"mood": "sad"}`),
			},
			reason: "content",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, creator := newTestService(t)
			ctx := context.Background()

			draft := mustCreateDraft(t, svc, tc.req)

			_, err := svc.AcceptDraft(ctx, draft.UpdateID)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tc.reason)
			assert.Equal(t, 0, creator.total())

			reloaded, err := svc.GetDraft(ctx, draft.UpdateID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusPending, reloaded.Status)
		})
	}
}

func TestAcceptDraftExternalFailureKeepsPending(t *testing.T) {
	svc, _, creator := newTestService(t)
	ctx := context.Background()

	creator.err = &domain.ExternalError{Op: "entries", Err: errors.New("status 503")}

	draft := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Call the dentist",
	})

	_, err := svc.AcceptDraft(ctx, draft.UpdateID)
	require.Error(t, err)
	assert.True(t, domain.IsExternal(err))

	reloaded, err := svc.GetDraft(ctx, draft.UpdateID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, reloaded.Status)

	// The retry succeeds once the collaborator recovers.
	creator.err = nil
	outcome, err := svc.AcceptDraft(ctx, draft.UpdateID)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestAcceptAllMixedOutcomes(t *testing.T) {
	svc, _, creator := newTestService(t)
	ctx := context.Background()

	var events int
	svc.Bus().Subscribe(domain.EventTaskCreated, func(payload interface{}) { events++ })
	svc.Bus().Subscribe(domain.EventExpenseCreated, func(payload interface{}) { events++ })

	task := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Send invoice",
	})
	expense := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryExpense,
		Summary:  "Parking",
	})

	outcomes, err := svc.AcceptAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	byID := map[string]domain.AcceptOutcome{}
	for _, o := range outcomes {
		byID[o.UpdateID] = o
	}

	assert.True(t, byID[task.UpdateID].Success)
	assert.NotEmpty(t, byID[task.UpdateID].EntityID)
	assert.False(t, byID[expense.UpdateID].Success)
	assert.Contains(t, byID[expense.UpdateID].Error, "amount")

	assert.Equal(t, 1, creator.total())
	assert.Equal(t, 1, events)

	// The failed expense is still pending and retryable.
	reloaded, err := svc.GetDraft(ctx, expense.UpdateID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, reloaded.Status)
}

func TestAcceptAllScopedToSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.StartSession(ctx)
	require.NoError(t, err)

	inSession := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		SessionID: session.SessionID,
		Category:  domain.CategoryTask,
		Summary:   "Scoped task",
	})
	mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Global task",
	})

	outcomes, err := svc.AcceptAll(ctx, session.SessionID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, inSession.UpdateID, outcomes[0].UpdateID)

	remaining, err := svc.ListDrafts(ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRejectThenEdit(t *testing.T) {
	svc, _, creator := newTestService(t)
	ctx := context.Background()

	draft := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Old chore",
	})

	rejected, err := svc.RejectDraft(ctx, draft.UpdateID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, 0, creator.total())

	summary := "New wording"
	_, err = svc.EditDraft(ctx, draft.UpdateID, &domain.EditDraftRequest{Summary: &summary})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = svc.AcceptDraft(ctx, draft.UpdateID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.RejectDraft(ctx, draft.UpdateID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestEditDraftMergesPayload(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	draft := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryExpense,
		Summary:  "Coffee",
		Payload:  json.RawMessage(`{"amount": 4.5, "currency": "USD"}`),
	})

	summary := "Coffee with client"
	updated, err := svc.EditDraft(ctx, draft.UpdateID, &domain.EditDraftRequest{
		Summary: &summary,
		Payload: map[string]json.RawMessage{"merchant": json.RawMessage(`"Blue Bottle"`)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Coffee with client", updated.Summary)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(updated.Payload, &fields))
	assert.Equal(t, 4.5, fields["amount"])
	assert.Equal(t, "USD", fields["currency"])
	assert.Equal(t, "Blue Bottle", fields["merchant"])
}

func TestEditDraftInvalidPatchLeavesDraftUntouched(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	draft := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryExpense,
		Summary:  "Taxi",
		Payload:  json.RawMessage(`{"amount": 20}`),
	})

	_, err := svc.EditDraft(ctx, draft.UpdateID, &domain.EditDraftRequest{
		Payload: map[string]json.RawMessage{"amount": json.RawMessage(`-5`)},
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	reloaded, err := svc.GetDraft(ctx, draft.UpdateID)
	require.NoError(t, err)
	assert.Equal(t, "Taxi", reloaded.Summary)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(reloaded.Payload, &fields))
	assert.Equal(t, float64(20), fields["amount"])
}

func TestDeleteDraftIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	draft := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryJournal,
		Summary:  "Scratch note",
		Payload:  json.RawMessage(`{"content": "scratch"}`),
	})

	require.NoError(t, svc.DeleteDraft(ctx, draft.UpdateID))
	_, err := svc.GetDraft(ctx, draft.UpdateID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, svc.DeleteDraft(ctx, draft.UpdateID))
	require.NoError(t, svc.DeleteDraft(ctx, "upd_missing"))
}

func TestListDraftsDefaultsToPending(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pending := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Still open",
	})
	accepted := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Already done",
	})
	_, err := svc.AcceptDraft(ctx, accepted.UpdateID)
	require.NoError(t, err)

	drafts, err := svc.ListDrafts(ctx, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, pending.UpdateID, drafts[0].UpdateID)

	all, err := svc.ListDrafts(ctx, domain.ListFilter{Status: domain.StatusAll})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSummaryCounts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		mustCreateDraft(t, svc, &domain.CreateDraftRequest{
			Category: domain.CategoryTask,
			Summary:  "Task",
		})
	}
	mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryJournal,
		Summary:  "Note",
	})

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 7, summary.TotalPending)
	assert.True(t, summary.HasPending)
	assert.Equal(t, 6, summary.ByCategory[domain.CategoryTask])
	assert.Equal(t, 1, summary.ByCategory[domain.CategoryJournal])
	assert.Equal(t, 0, summary.ByCategory[domain.CategoryExpense])
	assert.Len(t, summary.RecentItems, recentItemsLimit)
}

func TestSummaryEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalPending)
	assert.False(t, summary.HasPending)
	assert.Empty(t, summary.RecentItems)
	assert.Equal(t, 0, summary.ByCategory[domain.CategoryTask])
}

func TestReviewAcceptReturnsFreshSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	keep := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Keep me",
	})
	accept := mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Accept me",
	})

	resp, err := svc.ReviewAccept(ctx, accept.UpdateID)
	require.NoError(t, err)
	assert.True(t, resp.Outcome.Success)

	require.Len(t, resp.Snapshot.Pending, 1)
	assert.Equal(t, keep.UpdateID, resp.Snapshot.Pending[0].UpdateID)
	assert.Equal(t, 1, resp.Snapshot.Summary.TotalPending)
}

func TestReviewAcceptAllCountsOutcomes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryTask,
		Summary:  "Good",
	})
	mustCreateDraft(t, svc, &domain.CreateDraftRequest{
		Category: domain.CategoryExpense,
		Summary:  "No amount",
	})

	resp, err := svc.ReviewAcceptAll(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 1, resp.Failed)
	assert.Len(t, resp.Outcomes, 2)
	assert.Len(t, resp.Snapshot.Pending, 1)
}
