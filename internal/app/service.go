// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	passqueue "github.com/tvemc/raceline/internal/adapters/mq/queue"
	workerpool "github.com/tvemc/raceline/internal/adapters/mq/worker"
	"github.com/tvemc/raceline/internal/adapters/repository"
	"github.com/tvemc/raceline/internal/config"
	"github.com/tvemc/raceline/internal/domain/autopass"
	"github.com/tvemc/raceline/internal/domain/dedupe"
	"github.com/tvemc/raceline/internal/domain/model"
	"github.com/tvemc/raceline/internal/domain/results"
	"github.com/tvemc/raceline/internal/domain/timeutil"
	"github.com/tvemc/raceline/internal/domain/undo"
	"github.com/tvemc/raceline/pkg/logger"
	"github.com/tvemc/raceline/pkg/metrics"
)

// routerHandle wraps the station resolver behind a lock so a config reload
// can swap routing tables while workers keep resolving.
type routerHandle struct {
	mu sync.RWMutex
	r  *autopass.Resolver
}

func (h *routerHandle) Resolve(logicalCode, action, distanceCode string, history []model.Pass, bib int, now time.Time) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.r.Resolve(logicalCode, action, distanceCode, history, bib, now)
}

func (h *routerHandle) Candidates(logicalCode string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.r.Candidates(logicalCode)
}

func (h *routerHandle) swap(r *autopass.Resolver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.r = r
}

// Service implements the API dependencies for the race timing system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	queue      passqueue.Queue
	router     *routerHandle
	engine     *results.Engine
	undoCtrl   *undo.Controller
	workerPool *workerpool.Pool

	// Configuration
	eventCode         string
	eventLocation     *time.Location
	finishStationCode string
	workerCount       int
	queueSize         int
	dedupeSize        int
	undoWindow        time.Duration
	advanceRule       autopass.AdvanceRule
	stationGroups     map[string][]string
	minDwellMinutes   map[string]map[string]float64
	courseByStation   map[string][]string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEventCode sets the race this process serves.
func WithEventCode(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.eventCode = code
		}
	}
}

// WithEventLocation sets the event's wall-clock zone.
func WithEventLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.eventLocation = loc
		}
	}
}

// WithFinishStationCode sets the station code that marks the finish line.
func WithFinishStationCode(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.finishStationCode = timeutil.SafeUpper(code)
		}
	}
}

// WithWorkerCount sets the number of routing workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithUndoWindow sets how long a correction stays actionable.
func WithUndoWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.undoWindow = d
		}
	}
}

// WithAdvanceRule sets which pass types advance an auto-routed group.
func WithAdvanceRule(rule autopass.AdvanceRule) Option {
	return func(s *Service) {
		s.advanceRule = rule
	}
}

// WithStationGroups sets logical code -> ordered physical instances.
func WithStationGroups(groups map[string][]string) Option {
	return func(s *Service) {
		if groups != nil {
			s.stationGroups = groups
		}
	}
}

// WithMinDwellMinutes sets group -> distance -> minimum dwell minutes.
func WithMinDwellMinutes(table map[string]map[string]float64) Option {
	return func(s *Service) {
		if table != nil {
			s.minDwellMinutes = table
		}
	}
}

// WithCourseByStation sets station -> distances it serves for off-course
// flagging.
func WithCourseByStation(table map[string][]string) Option {
	return func(s *Service) {
		if table != nil {
			s.courseByStation = table
		}
	}
}

// WithStore replaces the default in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		eventCode:         "AZM-300-2026-0004",
		eventLocation:     time.UTC,
		finishStationCode: "FINISH",
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         10_000,
		dedupeSize:        50_000,
		undoWindow:        undo.DefaultWindow,
		advanceRule:       autopass.AdvanceInOnly,
		stationGroups:     map[string][]string{},
		minDwellMinutes:   map[string]map[string]float64{},
		courseByStation:   map[string][]string{},
		logger:            nil, // resolved at Start
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FromConfig maps loaded configuration onto service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithEventCode(cfg.EventCode),
		WithEventLocation(cfg.EventLocation()),
		WithFinishStationCode(cfg.FinishStationCode),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithUndoWindow(time.Duration(cfg.UndoWindowSeconds) * time.Second),
		WithAdvanceRule(autopass.ParseAdvanceRule(cfg.AdvanceRule)),
		WithStationGroups(cfg.StationGroups),
		WithMinDwellMinutes(cfg.MinDwellMinutes),
		WithCourseByStation(cfg.CourseByStation),
	}
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting race timing service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	s.deduper = dedupe.NewInMemory(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = passqueue.NewInMemoryQueue(
		passqueue.WithCapacity(s.queueSize),
	)
	s.router = &routerHandle{r: s.buildResolver()}
	s.engine = results.New(
		results.WithFinishStationCode(s.finishStationCode),
		results.WithEventLocation(s.eventLocation),
	)
	s.undoCtrl = undo.New(s.store, undo.WithWindow(s.undoWindow))

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.router, s.store, s.undoCtrl,
		workerpool.WithCourseByStation(s.courseByStation),
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "race timing service started",
		logger.String("eventCode", s.eventCode),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping race timing service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.undoCtrl != nil {
		s.undoCtrl.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "race timing service stopped")
}

// buildResolver assembles a station router from the current tables.
func (s *Service) buildResolver() *autopass.Resolver {
	return autopass.New(
		autopass.WithGroups(s.stationGroups),
		autopass.WithMinDwellMinutes(s.minDwellMinutes),
		autopass.WithAdvanceRule(s.advanceRule),
		autopass.WithGateHitFunc(metrics.RecordDwellGateHold),
	)
}

// UpdateRouting swaps the routing tables from a freshly loaded config.
// In-flight submissions resolve against whichever table they observe; the
// off-course table is fixed at startup and is not swapped here.
func (s *Service) UpdateRouting(cfg *config.Config) {
	s.mu.Lock()
	s.stationGroups = cfg.StationGroups
	s.minDwellMinutes = cfg.MinDwellMinutes
	s.advanceRule = autopass.ParseAdvanceRule(cfg.AdvanceRule)
	resolver := s.buildResolver()
	router := s.router
	s.mu.Unlock()

	if router != nil {
		router.swap(resolver)
	}
	s.logger.Info(context.Background(), "routing tables reloaded",
		logger.Int("groups", len(cfg.StationGroups)),
		logger.String("advanceRule", cfg.AdvanceRule),
	)
}

// SeenAndRecord atomically checks if a client ref was seen and records it
// if not. Returns true if the ref was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a client ref from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// EventCode returns the race this process serves.
func (s *Service) EventCode() string {
	return s.eventCode
}

// SubmitPass enqueues a submission for routing and recording. Returns false
// on backpressure.
func (s *Service) SubmitPass(ctx context.Context, sub model.Submission) bool {
	ok := s.queue.Enqueue(ctx, sub)
	if !ok {
		s.logger.Warn(ctx, "submission rejected, queue full",
			logger.String("clientRef", sub.ClientRef),
			logger.Int("bib", sub.Bib),
		)
	}
	return ok
}

// Results recomputes derived rows from current stored state.
func (s *Service) Results(ctx context.Context) ([]model.ResultRow, error) {
	start := time.Now()

	rows, err := s.store.ListPasses(ctx, s.eventCode)
	if err != nil {
		return nil, fmt.Errorf("listing passes: %w", err)
	}
	runnerStarts, err := s.store.RunnerStarts(ctx, s.eventCode)
	if err != nil {
		return nil, fmt.Errorf("listing runner starts: %w", err)
	}
	distanceStarts, err := s.store.DistanceStarts(ctx, s.eventCode)
	if err != nil {
		return nil, fmt.Errorf("listing distance starts: %w", err)
	}
	miles, err := s.store.DistanceMiles(ctx, s.eventCode)
	if err != nil {
		return nil, fmt.Errorf("listing distance miles: %w", err)
	}

	out := s.engine.Compute(rows, runnerStarts, distanceStarts, miles)

	metrics.RecordResultsCompute(float64(time.Since(start).Milliseconds()), len(out))
	metrics.UpdateStorePasses(s.store.CountPasses(ctx))
	return out, nil
}

// ReassignStation moves a pass to another station.
func (s *Service) ReassignStation(ctx context.Context, passID uuid.UUID, stationCode string) error {
	if err := s.store.ReassignStation(ctx, passID, stationCode); err != nil {
		return fmt.Errorf("reassigning pass %s: %w", passID, err)
	}
	return nil
}

// LastCorrection returns the active correction window state.
func (s *Service) LastCorrection() (undo.Correction, string, bool) {
	cor, active := s.undoCtrl.Current()
	return cor, s.undoCtrl.Status(), active
}

// UndoCorrection reverts the active correction to its pre-routing station.
func (s *Service) UndoCorrection(ctx context.Context) error {
	err := s.undoCtrl.Undo(ctx)
	switch {
	case err == nil:
		metrics.RecordCorrectionUndone()
	case !errors.Is(err, undo.ErrNoCorrection):
		metrics.RecordCorrectionFailure()
	}
	return err
}

// SwitchCorrection reassigns the active correction to the next candidate.
func (s *Service) SwitchCorrection(ctx context.Context) error {
	err := s.undoCtrl.SwitchNext(ctx)
	switch {
	case err == nil:
		metrics.RecordCorrectionSwitched()
	case !errors.Is(err, undo.ErrNoCorrection):
		metrics.RecordCorrectionFailure()
	}
	return err
}

// CloseCorrection hides the correction window.
func (s *Service) CloseCorrection() {
	s.undoCtrl.Close()
}

// SetDistanceStart records a distance's scheduled wave start. The string
// must parse as event-local wall clock.
func (s *Service) SetDistanceStart(ctx context.Context, distanceCode, startTS string) error {
	if _, ok := timeutil.ParseEventLocal(startTS, s.eventLocation); !ok {
		return fmt.Errorf("unparsable start time %q", startTS)
	}
	return s.store.SetDistanceStart(ctx, s.eventCode, distanceCode, startTS)
}

// SetRunnerStart records a per-bib actual start override.
func (s *Service) SetRunnerStart(ctx context.Context, bib int, startTS, reason, setBy string) error {
	if _, ok := timeutil.ParseEventLocal(startTS, s.eventLocation); !ok {
		return fmt.Errorf("unparsable start time %q", startTS)
	}
	return s.store.SetRunnerStart(ctx, s.eventCode, model.RunnerStart{
		Bib:     bib,
		StartTS: startTS,
		Reason:  reason,
		SetBy:   setBy,
	})
}

// SetDistanceMiles records the course length used for pace.
func (s *Service) SetDistanceMiles(ctx context.Context, distanceCode string, miles float64) error {
	return s.store.SetDistanceMiles(ctx, s.eventCode, distanceCode, miles)
}

// ClearStatus records a DNS or DNF clear for a runner.
func (s *Service) ClearStatus(ctx context.Context, bib int, clear, clearedBy, note string) error {
	return s.store.ClearStatus(ctx, s.eventCode, bib, strings.ToUpper(clear), clearedBy, note)
}

// StatusOverrides lists recorded DNS/DNF clears for the event.
func (s *Service) StatusOverrides(ctx context.Context) ([]model.StatusOverride, error) {
	return s.store.StatusOverrides(ctx, s.eventCode)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"eventCode":   s.eventCode,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		totalPasses := s.store.CountPasses(ctx)

		stats["queueLength"] = queueLen
		stats["totalPasses"] = totalPasses
		_, active := s.undoCtrl.Current()
		stats["correctionActive"] = active

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStorePasses(totalPasses)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
