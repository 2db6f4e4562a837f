// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tvemc/raceline/internal/domain/dedupe"
	"github.com/tvemc/raceline/internal/domain/model"
	"github.com/tvemc/raceline/pkg/metrics"
)

// PassDependencies defines the interface for pass submission.
type PassDependencies interface {
	dedupe.Deduper

	// SubmitPass enqueues a submission for routing and recording.
	// Returns false on backpressure.
	SubmitPass(ctx context.Context, s model.Submission) bool

	// EventCode is the race this process serves; submissions are scoped
	// to it.
	EventCode() string
}

// PassesHandler handles pass submissions.
type PassesHandler struct {
	deps PassDependencies
}

// NewPassesHandler creates a new passes handler.
func NewPassesHandler(deps PassDependencies) *PassesHandler {
	return &PassesHandler{deps: deps}
}

// HandlePostPass handles POST /passes requests.
func (h *PassesHandler) HandlePostPass(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_pass"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req passRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check: a retried scan is acknowledged, not re-recorded.
	if h.deps.SeenAndRecord(r.Context(), req.ClientRef) {
		metrics.RecordPassDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if ok := h.deps.SubmitPass(r.Context(), req.submission(h.deps.EventCode())); !ok {
		// Roll back the seen mark so the client can retry.
		h.deps.Unrecord(r.Context(), req.ClientRef)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
