// Package model contains domain models passed between layers.
package model

import "github.com/google/uuid"

// Pass type codes recognized on input (case-insensitive, normalized upper).
const (
	PassIn     = "IN"
	PassOut    = "OUT"
	PassFinish = "FINISH"
	PassStart  = "START"
)

// Submission is a passage event as received from a station operator,
// before routing and persistence.
type Submission struct {
	ClientRef    string // idempotency key supplied by the scanning client
	EventCode    string
	Bib          int
	DistanceCode string
	StationCode  string // logical or physical code
	PassType     string
	Operator     string
	Note         string
	Age          float64
	Gender       string
}

// Pass is one stored runner-at-station observation. The station code may be
// corrected once within the undo window; everything else is immutable after
// insert except the note.
type Pass struct {
	PassID       uuid.UUID `json:"pass_id"`
	EventCode    string    `json:"event_code"`
	Bib          int       `json:"bib"`
	DistanceCode string    `json:"distance_code"`
	StationCode  string    `json:"station_code"`
	PassType     string    `json:"pass_type"`
	PassTS       string    `json:"pass_ts"` // UTC "YYYY-MM-DD HH:MM:SS" or RFC3339
	Operator     string    `json:"operator,omitempty"`
	Note         string    `json:"note,omitempty"`
	Age          float64   `json:"age,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Mismatch     bool      `json:"mismatch,omitempty"` // station not on this distance's course
}

// RunnerStart is an operator-set actual start for one bib. It takes
// precedence over the distance's scheduled start.
type RunnerStart struct {
	Bib     int    `json:"bib"`
	StartTS string `json:"start_ts_actual"` // event-local wall clock
	Reason  string `json:"reason,omitempty"`
	SetBy   string `json:"set_by,omitempty"`
}

// StatusOverride clears a DNS or DNF flag for a bib (race-day corrections).
type StatusOverride struct {
	Bib          int    `json:"bib"`
	ClearedDNSAt string `json:"cleared_dns_at,omitempty"`
	ClearedDNFAt string `json:"cleared_dnf_at,omitempty"`
	ClearedBy    string `json:"cleared_by,omitempty"`
	Note         string `json:"note,omitempty"`
}

// ResultRow is a Pass augmented with derived result fields. Blank derived
// fields mean the runner has not finished or could not be resolved.
type ResultRow struct {
	Pass

	FinishTime       string `json:"finish_time"`    // event-local display time
	FinishTSMillis   int64  `json:"finish_ts_ms"`   // 0 when unfinished
	ElapsedTotal     string `json:"elapsed_total"`  // HH:MM:SS
	AvgPace          string `json:"avg_pace"`       // M:SS per mile
	AgeGroup         string `json:"age_group"`      // always best-effort
	GenderPlace      string `json:"gender_place"`   // "N M" / "N F" / "N UNK"
	AGPlace          int    `json:"ag_place"`       // 0 when unplaced
	OverallPlace     int    `json:"overall_place"`  // 0 when unplaced
	AnomalousElapsed bool   `json:"anomalous_elapsed,omitempty"`
}
