// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tvemc/raceline/internal/domain/model"
)

// StatusDependencies defines the interface for runner status clears.
type StatusDependencies interface {
	// ClearStatus records a DNS or DNF clear for a runner.
	ClearStatus(ctx context.Context, bib int, clear, clearedBy, note string) error

	// StatusOverrides lists recorded clears for the event.
	StatusOverrides(ctx context.Context) ([]model.StatusOverride, error)
}

// StatusHandler handles DNS and DNF status clears.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

type clearStatusRequest struct {
	Bib       int    `json:"bib"`
	Clear     string `json:"clear"`
	ClearedBy string `json:"cleared_by"`
	Note      string `json:"note"`
}

// HandleClearStatus handles /status requests. POST records a clear, GET
// lists recorded clears.
func (h *StatusHandler) HandleClearStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_status"
	switch r.Method {
	case http.MethodGet:
		overrides, err := h.deps.StatusOverrides(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, overrides)
	case http.MethodPost:
		var req clearStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if req.Bib <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("bib must be positive")))
			return
		}
		clear := strings.ToUpper(strings.TrimSpace(req.Clear))
		if clear != "DNS" && clear != "DNF" {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("clear must be DNS or DNF")))
			return
		}
		if err := h.deps.ClearStatus(r.Context(), req.Bib, clear, req.ClearedBy, req.Note); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "cleared"})
	default:
		http.NotFound(w, r)
	}
}
