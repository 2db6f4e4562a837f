// Package autopass resolves ambiguous logical station codes to concrete
// physical instances.
package autopass

import "github.com/tvemc/raceline/internal/domain/timeutil"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithGroups sets the logical-code to instance-sequence table. Codes are
// normalized upper-case; empty sequences are dropped.
func WithGroups(groups map[string][]string) Option {
	return func(r *Resolver) {
		r.groups = make(map[string][]string, len(groups))
		for code, seq := range groups {
			if len(seq) == 0 {
				continue
			}
			normalized := make([]string, len(seq))
			for i, s := range seq {
				normalized[i] = timeutil.SafeUpper(s)
			}
			r.groups[timeutil.SafeUpper(code)] = normalized
		}
	}
}

// WithMinDwellMinutes sets the group -> distance -> minimum-minutes gate
// table. Missing entries mean no gate.
func WithMinDwellMinutes(table map[string]map[string]float64) Option {
	return func(r *Resolver) {
		r.minDwell = make(map[string]map[string]float64, len(table))
		for group, byDistance := range table {
			inner := make(map[string]float64, len(byDistance))
			for dist, minutes := range byDistance {
				if minutes > 0 {
					inner[timeutil.SafeUpper(dist)] = minutes
				}
			}
			r.minDwell[timeutil.SafeUpper(group)] = inner
		}
	}
}

// WithAdvanceRule sets which pass types advance the instance sequence.
func WithAdvanceRule(rule AdvanceRule) Option {
	return func(r *Resolver) {
		if rule == AdvanceInOut {
			r.rule = AdvanceInOut
			return
		}
		r.rule = AdvanceInOnly
	}
}

// WithGateHitFunc installs a hook called whenever the dwell gate pins a
// pass back to its previous instance. Used for metrics.
func WithGateHitFunc(fn func(group, distance string)) Option {
	return func(r *Resolver) {
		r.onGateHit = fn
	}
}
