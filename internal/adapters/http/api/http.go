// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tvemc/raceline/internal/domain/dedupe"
	"github.com/tvemc/raceline/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper
	PassDependencies
	ResultsDependencies
	StationDependencies
	CorrectionDependencies
	StartDependencies
	StatusDependencies
}

// StatsProvider exposes service statistics for the /stats endpoint.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	passesHandler     *PassesHandler
	resultsHandler    *ResultsHandler
	stationHandler    *StationHandler
	correctionHandler *CorrectionHandler
	startsHandler     *StartsHandler
	statusHandler     *StatusHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		passesHandler:     NewPassesHandler(deps),
		resultsHandler:    NewResultsHandler(deps),
		stationHandler:    NewStationHandler(deps),
		correctionHandler: NewCorrectionHandler(deps),
		startsHandler:     NewStartsHandler(deps),
		statusHandler:     NewStatusHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/passes", MetricsMiddleware(s.passesHandler.HandlePostPass, "passes"))
	mux.HandleFunc("/passes/station", MetricsMiddleware(s.stationHandler.HandleReassign, "passes_station"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleGetResults, "results"))
	mux.HandleFunc("/corrections/last", MetricsMiddleware(s.correctionHandler.HandleLast, "corrections_last"))
	mux.HandleFunc("/corrections/undo", MetricsMiddleware(s.correctionHandler.HandleUndo, "corrections_undo"))
	mux.HandleFunc("/corrections/switch", MetricsMiddleware(s.correctionHandler.HandleSwitch, "corrections_switch"))
	mux.HandleFunc("/corrections/close", MetricsMiddleware(s.correctionHandler.HandleClose, "corrections_close"))
	mux.HandleFunc("/starts/distance", MetricsMiddleware(s.startsHandler.HandleDistanceStart, "starts_distance"))
	mux.HandleFunc("/starts/runner", MetricsMiddleware(s.startsHandler.HandleRunnerStart, "starts_runner"))
	mux.HandleFunc("/distances", MetricsMiddleware(s.startsHandler.HandleDistanceMiles, "distances"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleClearStatus, "status"))
}

// passRequest mirrors the submission schema for POST /passes.
type passRequest struct {
	ClientRef    string  `json:"client_ref"`
	Bib          int     `json:"bib"`
	DistanceCode string  `json:"distance_code"`
	StationCode  string  `json:"station_code"`
	PassType     string  `json:"pass_type"`
	Operator     string  `json:"operator"`
	Note         string  `json:"note"`
	Age          float64 `json:"age"`
	Gender       string  `json:"gender"`
}

func (p passRequest) validate() error {
	switch {
	case strings.TrimSpace(p.ClientRef) == "":
		return errors.New("missing client_ref")
	case p.Bib <= 0:
		return errors.New("bib must be positive")
	case strings.TrimSpace(p.DistanceCode) == "":
		return errors.New("missing distance_code")
	case strings.TrimSpace(p.StationCode) == "":
		return errors.New("missing station_code")
	}
	return nil
}

func (p passRequest) submission(eventCode string) model.Submission {
	return model.Submission{
		ClientRef:    p.ClientRef,
		EventCode:    eventCode,
		Bib:          p.Bib,
		DistanceCode: p.DistanceCode,
		StationCode:  p.StationCode,
		PassType:     p.PassType,
		Operator:     p.Operator,
		Note:         p.Note,
		Age:          p.Age,
		Gender:       p.Gender,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
