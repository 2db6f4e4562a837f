// Package timeutil provides the pure time and math helpers used by the
// results engine: duration and pace formatting, timestamp parsing, and
// age-group bucketing.
//
// Two parsers exist on purpose. Pass timestamps are stored in UTC and parse
// UTC-forced; start times are stored as event-local wall clock and parse
// with the event's location forced. Mixing them produces silently wrong
// elapsed times.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// NotAvailable is the sentinel rendered for unformattable values.
const NotAvailable = "N/A"

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
)

// Layouts accepted for naive timestamps, with and without the T separator.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Layouts accepted for timestamps that carry an explicit offset.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02 15:04:05-07:00",
}

// FormatHMS renders whole seconds as "HH:MM:SS". Non-finite input yields
// NotAvailable; negative input clamps to zero.
func FormatHMS(totalSeconds float64) string {
	if math.IsNaN(totalSeconds) || math.IsInf(totalSeconds, 0) {
		return NotAvailable
	}
	s := int64(math.Floor(math.Max(0, totalSeconds)))
	h := s / secondsPerHour
	m := (s % secondsPerHour) / secondsPerMinute
	sec := s % secondsPerMinute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// PaceMinPerMile renders an average pace as "M:SS" per mile. Returns
// NotAvailable when miles is not positive or seconds is non-finite.
// Minutes and seconds are re-derived from the rounded pace so a value like
// 59.6 pace-seconds carries into the next minute instead of rendering ":60".
func PaceMinPerMile(totalSeconds, miles float64) string {
	if miles <= 0 || math.IsNaN(miles) || math.IsNaN(totalSeconds) || math.IsInf(totalSeconds, 0) {
		return NotAvailable
	}
	paceSec := totalSeconds / miles
	rounded := int64(math.Floor(paceSec/secondsPerMinute)*secondsPerMinute + math.Round(math.Mod(paceSec, secondsPerMinute)))
	m := rounded / secondsPerMinute
	s := rounded % secondsPerMinute
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseEventLocal parses a start-time string. An explicit Z or ±HH:MM offset
// is honored as-is; a naive wall-clock string is interpreted in loc. Returns
// ok=false for empty or malformed input, never an error.
func ParseEventLocal(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	return parse(raw, loc)
}

// ParsePassUTC parses a passage timestamp. An explicit offset is honored;
// a naive string is interpreted as UTC.
func ParsePassUTC(raw string) (time.Time, bool) {
	return parse(raw, time.UTC)
}

func parse(raw string, naiveLoc *time.Location) (time.Time, bool) {
	str := strings.TrimSpace(raw)
	if str == "" {
		return time.Time{}, false
	}
	if hasExplicitOffset(str) {
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, str); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, str, naiveLoc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// hasExplicitOffset reports whether the string ends in Z or a ±HH:MM offset.
func hasExplicitOffset(s string) bool {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return true
	}
	if len(s) < 6 {
		return false
	}
	tail := s[len(s)-6:]
	if tail[0] != '+' && tail[0] != '-' {
		return false
	}
	return tail[3] == ':' && isDigit(tail[1]) && isDigit(tail[2]) && isDigit(tail[4]) && isDigit(tail[5])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// AgeGroup buckets an age into the ranking bands: "UNK" for unknown,
// "19under" below twenty, then 10-year bands like "40-49".
func AgeGroup(age float64) string {
	if math.IsNaN(age) || math.IsInf(age, 0) || age <= 0 {
		return "UNK"
	}
	if age < 20 {
		return "19under"
	}
	lo := int(math.Floor(age/10)) * 10
	return fmt.Sprintf("%d-%d", lo, lo+9)
}

// SafeUpper trims and upper-cases, treating any input as printable text.
func SafeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
