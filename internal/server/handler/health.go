package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/outcomefi/marketd/internal/domain"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	clock  domain.SlotClock
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided slot clock and
// logger.
func NewHealthHandler(clock domain.SlotClock, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{clock: clock, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is
// alive, plus the engine's current slot.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"slot":      h.clock.CurrentSlot(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
