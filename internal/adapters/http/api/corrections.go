// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tvemc/raceline/internal/domain/undo"
)

// CorrectionDependencies defines the interface for the correction window.
type CorrectionDependencies interface {
	LastCorrection() (undo.Correction, string, bool)
	UndoCorrection(ctx context.Context) error
	SwitchCorrection(ctx context.Context) error
	CloseCorrection()
}

// CorrectionHandler exposes the undo controller's surface.
type CorrectionHandler struct {
	deps CorrectionDependencies
}

// NewCorrectionHandler creates a new correction handler.
func NewCorrectionHandler(deps CorrectionDependencies) *CorrectionHandler {
	return &CorrectionHandler{deps: deps}
}

type correctionResponse struct {
	Active     bool             `json:"active"`
	Status     string           `json:"status,omitempty"`
	Correction *undo.Correction `json:"correction,omitempty"`
}

// HandleLast handles GET /corrections/last requests.
func (h *CorrectionHandler) HandleLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	cor, status, active := h.deps.LastCorrection()
	resp := correctionResponse{Active: active, Status: status}
	if active {
		resp.Correction = &cor
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleUndo handles POST /corrections/undo requests.
func (h *CorrectionHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	h.handleMove(w, r, "api.correction_undo", h.deps.UndoCorrection)
}

// HandleSwitch handles POST /corrections/switch requests.
func (h *CorrectionHandler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	h.handleMove(w, r, "api.correction_switch", h.deps.SwitchCorrection)
}

// HandleClose handles POST /corrections/close requests. Closing an idle
// window is a no-op.
func (h *CorrectionHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.CloseCorrection()
	writeJSON(w, http.StatusOK, ackResponse{Status: "closed"})
}

func (h *CorrectionHandler) handleMove(w http.ResponseWriter, r *http.Request, op string, move func(context.Context) error) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := move(r.Context()); err != nil {
		if errors.Is(err, undo.ErrNoCorrection) {
			writeError(w, http.StatusConflict, "no_correction", NewKind(op, ErrNoCorrection))
			return
		}
		// Write failure: surfaced to the operator, no retry, no rollback.
		writeError(w, http.StatusBadGateway, "update_failed", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}
