// Package autopass resolves ambiguous logical station codes to concrete
// physical instances. A looped course can cross the same named aid station
// several times; the router walks the group's instance sequence using the
// runner's own history and a distance-aware minimum-dwell gate that keeps
// an accidental double-scan from advancing the runner too soon.
package autopass

import (
	"sort"
	"time"

	"github.com/tvemc/raceline/internal/domain/model"
	"github.com/tvemc/raceline/internal/domain/timeutil"
)

// AdvanceRule selects which pass types count toward advancing a runner to
// the next physical instance in a group.
type AdvanceRule string

const (
	// AdvanceInOnly counts only IN passes (the default).
	AdvanceInOnly AdvanceRule = "IN_ONLY"
	// AdvanceInOut counts IN and OUT passes.
	AdvanceInOut AdvanceRule = "IN_OUT"
)

// ParseAdvanceRule normalizes a configured rule string, defaulting to
// AdvanceInOnly for anything unrecognized.
func ParseAdvanceRule(s string) AdvanceRule {
	if timeutil.SafeUpper(s) == string(AdvanceInOut) {
		return AdvanceInOut
	}
	return AdvanceInOnly
}

const minutesPerMillisecond = 1.0 / 60000.0

// Resolver routes passes for a fixed set of station groups. It never
// mutates the history it is given; callers persist the corrected pass.
type Resolver struct {
	groups    map[string][]string
	minDwell  map[string]map[string]float64 // group -> distance -> minutes
	rule      AdvanceRule
	onGateHit func(group, distance string) // observation hook
}

// New creates a Resolver. Without options it carries no groups and resolves
// nothing.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		groups:   make(map[string][]string),
		minDwell: make(map[string]map[string]float64),
		rule:     AdvanceInOnly,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Groups returns the configured logical group codes and their instances.
func (r *Resolver) Groups() map[string][]string {
	out := make(map[string][]string, len(r.groups))
	for code, seq := range r.groups {
		out[code] = append([]string(nil), seq...)
	}
	return out
}

// Candidates returns the physical instance sequence for a logical code, or
// nil when the code is not a known group.
func (r *Resolver) Candidates(logicalCode string) []string {
	seq, ok := r.groups[timeutil.SafeUpper(logicalCode)]
	if !ok {
		return nil
	}
	return append([]string(nil), seq...)
}

// Resolve picks the physical instance for one passage attempt. It returns
// ok=false when logicalCode is not a known group; the caller then treats
// the code as already physical.
//
// The candidate index is the count of advance-worthy passes this bib has in
// the group, clamped at the last instance. If the most recent group passage
// is more recent than the group+distance dwell minimum, the candidate is
// pinned back to that passage's instance instead of advancing.
func (r *Resolver) Resolve(logicalCode, action, distanceCode string, history []model.Pass, bib int, now time.Time) (string, bool) {
	base := timeutil.SafeUpper(logicalCode)
	group, found := r.groups[base]
	if !found || len(group) == 0 {
		return "", false
	}

	hist := r.groupHistory(group, history, bib)

	advances := 0
	for _, p := range hist {
		if r.countsForAdvance(p.PassType) {
			advances++
		}
	}

	idx := advances
	if idx > len(group)-1 {
		idx = len(group) - 1
	}

	if len(hist) > 0 {
		last := hist[len(hist)-1]
		if lastAt, ok := timeutil.ParsePassUTC(last.PassTS); ok {
			minM := r.dwellMinutes(base, distanceCode)
			deltaMin := float64(now.Sub(lastAt).Milliseconds()) * minutesPerMillisecond
			if minM > 0 && deltaMin < minM {
				if lastIdx := indexOf(group, timeutil.SafeUpper(last.StationCode)); lastIdx >= 0 {
					idx = lastIdx
					if r.onGateHit != nil {
						r.onGateHit(base, timeutil.SafeUpper(distanceCode))
					}
				}
			}
		}
	}

	return group[idx], true
}

// groupHistory filters history to this bib's passes at the group's
// instances, sorted oldest first. Unparsable timestamps sort to the front.
func (r *Resolver) groupHistory(group []string, history []model.Pass, bib int) []model.Pass {
	var hist []model.Pass
	for _, p := range history {
		if p.Bib != bib {
			continue
		}
		if indexOf(group, timeutil.SafeUpper(p.StationCode)) < 0 {
			continue
		}
		hist = append(hist, p)
	}
	sort.SliceStable(hist, func(i, j int) bool {
		ti, _ := timeutil.ParsePassUTC(hist[i].PassTS)
		tj, _ := timeutil.ParsePassUTC(hist[j].PassTS)
		return ti.Before(tj)
	})
	return hist
}

func (r *Resolver) countsForAdvance(passType string) bool {
	a := timeutil.SafeUpper(passType)
	if r.rule == AdvanceInOut {
		return a == model.PassIn || a == model.PassOut
	}
	return a == model.PassIn
}

func (r *Resolver) dwellMinutes(group, distanceCode string) float64 {
	table, ok := r.minDwell[group]
	if !ok {
		return 0
	}
	return table[timeutil.SafeUpper(distanceCode)]
}

func indexOf(seq []string, code string) int {
	for i, s := range seq {
		if s == code {
			return i
		}
	}
	return -1
}
