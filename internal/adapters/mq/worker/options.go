// Package worker processes queued pass submissions.
package worker

import (
	"time"

	"github.com/tvemc/raceline/pkg/logger"
)

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker's log name.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
			w.logger = logger.Get().Named(name)
		}
	}
}

// WithClock overrides the time source used for dwell-gate comparisons.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithCourseByStation sets the station -> distances table used to flag
// off-course passes. An empty table disables the check.
func WithCourseByStation(table map[string][]string) Option {
	return func(w *Worker) {
		w.courseByStation = table
	}
}
