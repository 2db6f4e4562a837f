// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, optional YAML file, and env vars.
// - External errors are wrapped via this package's sentinel kinds.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventCode identifies the race this process serves.
	EventCode string `koanf:"event_code"`

	// EventTimezone is the IANA name of the event's wall-clock zone, used
	// to interpret naive start-time strings and render finish times.
	EventTimezone string `koanf:"event_timezone"`

	// FinishStationCode marks the finish line in passage data.
	FinishStationCode string `koanf:"finish_station_code"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of routing workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// UndoWindowSeconds is how long a correction stays actionable.
	UndoWindowSeconds int `koanf:"undo_window_seconds"`

	// AdvanceRule selects which pass types advance an auto-routed group:
	// IN_ONLY (default) or IN_OUT.
	AdvanceRule string `koanf:"advance_rule"`

	// StationGroups maps a logical station code to its ordered physical
	// instances on the course loop.
	StationGroups map[string][]string `koanf:"station_groups"`

	// MinDwellMinutes maps group -> distance -> minimum minutes between
	// passes before the router may advance the instance sequence.
	MinDwellMinutes map[string]map[string]float64 `koanf:"min_dwell_minutes"`

	// CourseByStation maps a physical station to the distances it serves;
	// empty disables off-course flagging.
	CourseByStation map[string][]string `koanf:"course_by_station"`
}

// New creates a Config with defaults. The station group and dwell tables
// default to the Backbone Trail layout this system was first fielded on.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		EventCode:         "AZM-300-2026-0004",
		EventTimezone:     "America/Los_Angeles",
		FinishStationCode: "FINISH",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		UndoWindowSeconds: 15,
		AdvanceRule:       "IN_ONLY",
		StationGroups: map[string][]string{
			"CORRAL_AUTO": {"AS1", "AS8", "AS10"},
			"KANAN_AUTO":  {"AS2", "AS7"},
			"ZUMA_AUTO":   {"AS4", "AS6"},
		},
		MinDwellMinutes: map[string]map[string]float64{
			"CORRAL_AUTO": {"30K": 15, "26.2": 40, "50K": 60, "50M": 90, "100K": 120},
			"KANAN_AUTO":  {"50K": 60, "50M": 90, "100K": 90},
			"ZUMA_AUTO":   {"50M": 90, "100K": 90},
		},
		CourseByStation: map[string][]string{},
	}
}
