package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tvemc/raceline/internal/domain/model"
	"github.com/tvemc/raceline/internal/domain/timeutil"
)

// passTSLayout matches the wire format passes are stored in: naive UTC.
const passTSLayout = "2006-01-02 15:04:05"

// MemStore is an in-memory Store. One logical owner (the worker pool)
// writes passes; reads copy so callers never see later mutations.
type MemStore struct {
	mu  sync.RWMutex
	now func() time.Time

	passes  []model.Pass
	byID    map[uuid.UUID]int // index into passes
	starts  map[string]map[string]string  // event -> distance -> start ts
	miles   map[string]map[string]float64 // event -> distance -> miles
	runners map[string]map[int]string     // event -> bib -> start override
	status  map[string]map[int]*model.StatusOverride
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		now:     time.Now,
		byID:    make(map[uuid.UUID]int),
		starts:  make(map[string]map[string]string),
		miles:   make(map[string]map[string]float64),
		runners: make(map[string]map[int]string),
		status:  make(map[string]map[int]*model.StatusOverride),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemStore) AppendPass(_ context.Context, p model.Pass) (model.Pass, error) {
	if p.Bib <= 0 || p.DistanceCode == "" || p.StationCode == "" {
		return model.Pass{}, ErrMissingPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.PassID == uuid.Nil {
		p.PassID = uuid.New()
	}
	if p.PassTS == "" {
		p.PassTS = s.now().UTC().Format(passTSLayout)
	}
	p.StationCode = timeutil.SafeUpper(p.StationCode)
	p.PassType = timeutil.SafeUpper(p.PassType)
	p.DistanceCode = timeutil.SafeUpper(p.DistanceCode)

	s.byID[p.PassID] = len(s.passes)
	s.passes = append(s.passes, p)
	return p, nil
}

func (s *MemStore) ListPasses(_ context.Context, eventCode string) ([]model.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Pass, 0, len(s.passes))
	for _, p := range s.passes {
		if p.EventCode == eventCode {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemStore) ReassignStation(_ context.Context, passID uuid.UUID, stationCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[passID]
	if !ok {
		return ErrPassNotFound
	}
	code := timeutil.SafeUpper(stationCode)
	if s.passes[idx].StationCode == code {
		return nil // idempotent
	}
	s.passes[idx].StationCode = code
	return nil
}

func (s *MemStore) UpdateNote(_ context.Context, passID uuid.UUID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[passID]
	if !ok {
		return ErrPassNotFound
	}
	s.passes[idx].Note = note
	return nil
}

func (s *MemStore) SetDistanceStart(_ context.Context, eventCode, distanceCode, startTS string) error {
	if distanceCode == "" || startTS == "" {
		return ErrMissingPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.starts[eventCode] == nil {
		s.starts[eventCode] = make(map[string]string)
	}
	s.starts[eventCode][timeutil.SafeUpper(distanceCode)] = startTS
	return nil
}

func (s *MemStore) DistanceStarts(_ context.Context, eventCode string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.starts[eventCode]), nil
}

func (s *MemStore) SetDistanceMiles(_ context.Context, eventCode, distanceCode string, miles float64) error {
	if distanceCode == "" {
		return ErrMissingPayload
	}
	if miles <= 0 {
		return ErrInvalidMiles
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.miles[eventCode] == nil {
		s.miles[eventCode] = make(map[string]float64)
	}
	s.miles[eventCode][timeutil.SafeUpper(distanceCode)] = miles
	return nil
}

func (s *MemStore) DistanceMiles(_ context.Context, eventCode string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.miles[eventCode]), nil
}

func (s *MemStore) SetRunnerStart(_ context.Context, eventCode string, rs model.RunnerStart) error {
	if rs.Bib <= 0 || rs.StartTS == "" {
		return ErrMissingPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runners[eventCode] == nil {
		s.runners[eventCode] = make(map[int]string)
	}
	s.runners[eventCode][rs.Bib] = rs.StartTS
	return nil
}

func (s *MemStore) RunnerStarts(_ context.Context, eventCode string) (map[int]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.runners[eventCode]), nil
}

func (s *MemStore) ClearStatus(_ context.Context, eventCode string, bib int, clear, clearedBy, note string) error {
	if bib <= 0 {
		return ErrMissingPayload
	}
	kind := timeutil.SafeUpper(clear)
	if kind != "DNS" && kind != "DNF" {
		return ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status[eventCode] == nil {
		s.status[eventCode] = make(map[int]*model.StatusOverride)
	}
	ov := s.status[eventCode][bib]
	if ov == nil {
		ov = &model.StatusOverride{Bib: bib}
		s.status[eventCode][bib] = ov
	}
	stamp := s.now().UTC().Format(passTSLayout)
	if kind == "DNS" {
		ov.ClearedDNSAt = stamp
	} else {
		ov.ClearedDNFAt = stamp
	}
	ov.ClearedBy = clearedBy
	ov.Note = note
	return nil
}

func (s *MemStore) StatusOverrides(_ context.Context, eventCode string) ([]model.StatusOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byBib := s.status[eventCode]
	out := make([]model.StatusOverride, 0, len(byBib))
	for _, ov := range byBib {
		out = append(out, *ov)
	}
	return out, nil
}

func (s *MemStore) CountPasses(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passes)
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
