// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tvemc/raceline/internal/adapters/repository"
)

// StationDependencies defines the interface for station reassignment.
type StationDependencies interface {
	// ReassignStation moves a pass to another station; reassigning to the
	// current station is a data-level no-op.
	ReassignStation(ctx context.Context, passID uuid.UUID, stationCode string) error
}

// StationHandler handles pass station reassignment.
type StationHandler struct {
	deps StationDependencies
}

// NewStationHandler creates a new station handler.
func NewStationHandler(deps StationDependencies) *StationHandler {
	return &StationHandler{deps: deps}
}

type reassignRequest struct {
	PassID      string `json:"pass_id"`
	StationCode string `json:"station_code"`
}

// HandleReassign handles POST /passes/station requests.
func (h *StationHandler) HandleReassign(w http.ResponseWriter, r *http.Request) {
	const op = "api.reassign_station"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.StationCode) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	passID, err := uuid.Parse(req.PassID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.ReassignStation(r.Context(), passID, req.StationCode); err != nil {
		if errors.Is(err, repository.ErrPassNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}
