// Package repository defines the race-state store interface and errors.
// The store owns all persisted race data: passage events, scheduled and
// overridden start times, distance specs, and DNS/DNF status overrides.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tvemc/raceline/internal/domain/model"
)

// Store provides read/write access to race state. The results engine treats
// everything read from here as immutable input for one compute run.
type Store interface {
	// AppendPass records a passage event. A zero PassID is assigned a fresh
	// UUID and an empty PassTS is stamped with the current UTC time. The
	// stored pass is returned.
	AppendPass(ctx context.Context, p model.Pass) (model.Pass, error)

	// ListPasses returns all passes for an event in insertion order.
	ListPasses(ctx context.Context, eventCode string) ([]model.Pass, error)

	// ReassignStation moves a pass to another station. Reassigning to the
	// current station is a no-op. Returns ErrPassNotFound for unknown ids.
	ReassignStation(ctx context.Context, passID uuid.UUID, stationCode string) error

	// UpdateNote replaces a pass's note.
	UpdateNote(ctx context.Context, passID uuid.UUID, note string) error

	// SetDistanceStart upserts the scheduled wave start (event-local wall
	// clock) for a distance.
	SetDistanceStart(ctx context.Context, eventCode, distanceCode, startTS string) error

	// DistanceStarts returns distance code -> scheduled start.
	DistanceStarts(ctx context.Context, eventCode string) (map[string]string, error)

	// SetDistanceMiles upserts a distance's total miles. Miles must be
	// positive; pace math divides by it.
	SetDistanceMiles(ctx context.Context, eventCode, distanceCode string, miles float64) error

	// DistanceMiles returns distance code -> miles.
	DistanceMiles(ctx context.Context, eventCode string) (map[string]float64, error)

	// SetRunnerStart upserts a per-bib actual start override.
	SetRunnerStart(ctx context.Context, eventCode string, rs model.RunnerStart) error

	// RunnerStarts returns bib -> actual start override.
	RunnerStarts(ctx context.Context, eventCode string) (map[int]string, error)

	// ClearStatus records a DNS or DNF clear for a bib.
	ClearStatus(ctx context.Context, eventCode string, bib int, clear, clearedBy, note string) error

	// StatusOverrides returns all status overrides for an event.
	StatusOverrides(ctx context.Context, eventCode string) ([]model.StatusOverride, error)

	// CountPasses returns the number of stored passes across all events.
	CountPasses(ctx context.Context) int
}
