// Package results derives finish status, elapsed time, pace, and placement
// from raw passage events.
package results

import (
	"time"

	"github.com/tvemc/raceline/internal/domain/timeutil"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithFinishStationCode sets the station code that marks a finish.
func WithFinishStationCode(code string) Option {
	return func(e *Engine) {
		if c := timeutil.SafeUpper(code); c != "" {
			e.finishStationCode = c
		}
	}
}

// WithEventLocation sets the event's wall-clock location, used to interpret
// naive start-time strings and to render finish display times.
func WithEventLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.eventLocation = loc
		}
	}
}
