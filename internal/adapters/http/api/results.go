// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/tvemc/raceline/internal/domain/model"
)

// ResultsDependencies defines the interface for results queries.
type ResultsDependencies interface {
	// Results recomputes derived rows from current stored state.
	Results(ctx context.Context) ([]model.ResultRow, error)
}

// ResultsHandler handles results queries.
type ResultsHandler struct {
	deps ResultsDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleGetResults handles GET /results requests. Every call re-runs the
// aggregation engine over stored state; there is no cached output to
// invalidate.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rows, err := h.deps.Results(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
