package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetEventHistory returns the bus diagnostics ring, oldest first.
// GET /v1/events/history
func (h *Handler) GetEventHistory(c echo.Context) error {
	events := h.service.Bus().History()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}
