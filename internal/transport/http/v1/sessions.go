package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/daypulse/capture/internal/domain"
)

// StartSession starts a new capture session, ending any prior active one.
// POST /v1/daily-updates/sessions
func (h *Handler) StartSession(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.service.StartSession(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

// EndSession ends a capture session. Ending twice is a no-op.
// POST /v1/daily-updates/sessions/:session_id/end
func (h *Handler) EndSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.service.EndSession(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// GetActiveSession returns the active session, or 204 when there is none.
// GET /v1/daily-updates/sessions/active
func (h *Handler) GetActiveSession(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := h.service.ActiveSession(ctx)
	if err != nil {
		return writeError(c, err)
	}
	if session == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, session)
}

// GetConversationState returns the transcript plus derived category coverage.
// GET /v1/daily-updates/sessions/:session_id/state
func (h *Handler) GetConversationState(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	state, err := h.service.ConversationState(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// Chat forwards one utterance into an active session. Parser failures come
// back as 200 with a fallback reply and zero drafts.
// POST /v1/daily-updates/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	resp, err := h.service.Chat(ctx, req.SessionID, req.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
