package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint. Beyond liveness it reports
// the run mode and, when wired, the size of the loaded tick dataset and the
// exchange filter snapshot, so an operator can tell at a glance what this
// instance is serving.
type HealthHandler struct {
	mode      string
	startedAt time.Time
	ticks     int
	symbols   int
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler for the given run mode.
func NewHealthHandler(mode string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		mode:      mode,
		startedAt: time.Now().UTC(),
		logger:    logger,
	}
}

// WithDataset records the number of historical ticks loaded for simulation.
func (h *HealthHandler) WithDataset(ticks int) *HealthHandler {
	h.ticks = ticks
	return h
}

// WithFilters records the number of symbols in the exchange filter snapshot.
func (h *HealthHandler) WithFilters(symbols int) *HealthHandler {
	h.symbols = symbols
	return h
}

// HealthCheck responds with the instance status.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"mode":      h.mode,
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.ticks > 0 {
		body["ticks"] = h.ticks
	}
	if h.symbols > 0 {
		body["symbols"] = h.symbols
	}
	writeJSON(w, http.StatusOK, body)
}
