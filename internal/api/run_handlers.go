package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fixwire/fixharvest/internal/progress"
)

// RunHandler exposes the read-only run snapshot endpoint.
type RunHandler struct {
	runs   *progress.RunStore
	logger *zap.Logger
}

// NewRunHandler wires the run store and logger.
func NewRunHandler(runs *progress.RunStore, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{runs: runs, logger: logger}
}

// LatestRun handles GET /api/run. It returns {"run": {...}} for the most
// recent run, 404 when no run has started yet, or 503 when the run store is
// not wired.
func (h *RunHandler) LatestRun(w http.ResponseWriter, _ *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store unavailable")
		return
	}
	state, ok := h.runs.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no runs recorded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": state})
}
