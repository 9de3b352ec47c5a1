// Package v1 provides the HTTP handlers for the capture API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/daypulse/capture/internal/domain"
	"github.com/daypulse/capture/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the capture routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Session lifecycle
	e.POST("/v1/daily-updates/sessions", h.StartSession)
	e.POST("/v1/daily-updates/sessions/:session_id/end", h.EndSession)
	e.GET("/v1/daily-updates/sessions/active", h.GetActiveSession)
	e.GET("/v1/daily-updates/sessions/:session_id/state", h.GetConversationState)

	// Conversational capture
	e.POST("/v1/daily-updates/chat", h.Chat)

	// Pending drafts and review
	e.GET("/v1/daily-updates/pending", h.ListPending)
	e.GET("/v1/daily-updates/pending/summary", h.GetPendingSummary)
	e.POST("/v1/daily-updates/pending", h.CreateDraft)
	e.POST("/v1/daily-updates/pending/accept-all", h.AcceptAll)
	e.GET("/v1/daily-updates/pending/:update_id", h.GetDraft)
	e.PATCH("/v1/daily-updates/pending/:update_id", h.EditDraft)
	e.DELETE("/v1/daily-updates/pending/:update_id", h.DeleteDraft)
	e.POST("/v1/daily-updates/pending/:update_id/accept", h.AcceptDraft)
	e.POST("/v1/daily-updates/pending/:update_id/reject", h.RejectDraft)

	// Diagnostics
	e.GET("/v1/events/history", h.GetEventHistory)
	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// writeError maps service errors to HTTP status codes in one place.
// ErrSessionEnded maps to 409 rather than 404: the session record still
// exists, it just refuses further messages.
func writeError(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   ve.Error(),
			"reasons": ve.Reasons,
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrSessionEnded):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case domain.IsExternal(err):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
