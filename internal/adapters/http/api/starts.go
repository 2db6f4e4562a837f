// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// StartDependencies defines the interface for start and distance settings.
type StartDependencies interface {
	// SetDistanceStart records the default start timestamp for a distance,
	// as a naive event-local string.
	SetDistanceStart(ctx context.Context, distanceCode, startTS string) error

	// SetRunnerStart records a per-runner start override.
	SetRunnerStart(ctx context.Context, bib int, startTS, reason, setBy string) error

	// SetDistanceMiles records the course length used for pace.
	SetDistanceMiles(ctx context.Context, distanceCode string, miles float64) error
}

// StartsHandler handles start time and distance configuration.
type StartsHandler struct {
	deps StartDependencies
}

// NewStartsHandler creates a new starts handler.
func NewStartsHandler(deps StartDependencies) *StartsHandler {
	return &StartsHandler{deps: deps}
}

type distanceStartRequest struct {
	DistanceCode string `json:"distance_code"`
	StartTS      string `json:"start_ts"`
}

type runnerStartRequest struct {
	Bib     int    `json:"bib"`
	StartTS string `json:"start_ts"`
	Reason  string `json:"reason"`
	SetBy   string `json:"set_by"`
}

type distanceMilesRequest struct {
	DistanceCode string  `json:"distance_code"`
	Miles        float64 `json:"miles"`
}

// HandleDistanceStart handles POST /starts/distance requests.
func (h *StartsHandler) HandleDistanceStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_distance_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req distanceStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.DistanceCode) == "" || strings.TrimSpace(req.StartTS) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.SetDistanceStart(r.Context(), req.DistanceCode, req.StartTS); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}

// HandleRunnerStart handles POST /starts/runner requests. A per-runner
// start takes precedence over the distance default.
func (h *StartsHandler) HandleRunnerStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_runner_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req runnerStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Bib <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("bib must be positive")))
		return
	}
	if strings.TrimSpace(req.StartTS) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing start_ts")))
		return
	}
	if err := h.deps.SetRunnerStart(r.Context(), req.Bib, req.StartTS, req.Reason, req.SetBy); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}

// HandleDistanceMiles handles POST /distances requests.
func (h *StartsHandler) HandleDistanceMiles(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_distance_miles"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req distanceMilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.DistanceCode) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.SetDistanceMiles(r.Context(), req.DistanceCode, req.Miles); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}
