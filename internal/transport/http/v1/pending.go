package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/daypulse/capture/internal/domain"
)

// ListPending lists drafts. Without an explicit status filter only pending
// drafts come back.
// GET /v1/daily-updates/pending
func (h *Handler) ListPending(c echo.Context) error {
	ctx := c.Request().Context()

	filter := domain.ListFilter{
		Status:    domain.UpdateStatus(c.QueryParam("status")),
		Category:  domain.UpdateCategory(c.QueryParam("category")),
		SessionID: c.QueryParam("session_id"),
	}

	drafts, err := h.service.ListDrafts(ctx, filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"pending": drafts,
		"count":   len(drafts),
	})
}

// GetPendingSummary returns the derived pending counts.
// GET /v1/daily-updates/pending/summary
func (h *Handler) GetPendingSummary(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// CreateDraft creates a draft outside the conversational flow.
// POST /v1/daily-updates/pending
func (h *Handler) CreateDraft(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateDraftRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	draft, err := h.service.CreateDraft(ctx, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, draft)
}

// GetDraft returns one draft by id.
// GET /v1/daily-updates/pending/:update_id
func (h *Handler) GetDraft(c echo.Context) error {
	ctx := c.Request().Context()
	updateID := c.Param("update_id")

	draft, err := h.service.GetDraft(ctx, updateID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, draft)
}

// EditDraft patches a pending draft and returns it with a fresh snapshot.
// PATCH /v1/daily-updates/pending/:update_id
func (h *Handler) EditDraft(c echo.Context) error {
	ctx := c.Request().Context()
	updateID := c.Param("update_id")

	var req domain.EditDraftRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	draft, snapshot, err := h.service.ReviewEdit(ctx, updateID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"draft":    draft,
		"snapshot": snapshot,
	})
}

// DeleteDraft removes a draft. Deleting an unknown id still succeeds.
// DELETE /v1/daily-updates/pending/:update_id
func (h *Handler) DeleteDraft(c echo.Context) error {
	ctx := c.Request().Context()
	updateID := c.Param("update_id")

	snapshot, err := h.service.ReviewDelete(ctx, updateID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"snapshot": snapshot,
	})
}

// AcceptDraft commits one draft to its category's domain store.
// POST /v1/daily-updates/pending/:update_id/accept
func (h *Handler) AcceptDraft(c echo.Context) error {
	ctx := c.Request().Context()
	updateID := c.Param("update_id")

	resp, err := h.service.ReviewAccept(ctx, updateID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// RejectDraft marks one draft rejected.
// POST /v1/daily-updates/pending/:update_id/reject
func (h *Handler) RejectDraft(c echo.Context) error {
	ctx := c.Request().Context()
	updateID := c.Param("update_id")

	snapshot, err := h.service.ReviewReject(ctx, updateID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"snapshot": snapshot,
	})
}

// AcceptAll tries to accept every pending draft, optionally scoped to one
// session. Per-draft failures are reported in the outcomes, never as an HTTP
// error.
// POST /v1/daily-updates/pending/accept-all
func (h *Handler) AcceptAll(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.QueryParam("session_id")

	resp, err := h.service.ReviewAcceptAll(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
