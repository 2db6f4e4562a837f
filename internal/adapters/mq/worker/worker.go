// Package worker processes queued pass submissions: each submission is
// auto-routed against the runner's stored history, checked against the
// course layout, appended to the store, and — when rerouted — handed to the
// correction window.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/tvemc/raceline/internal/adapters/mq/queue"
	"github.com/tvemc/raceline/internal/domain/model"
	"github.com/tvemc/raceline/internal/domain/timeutil"
	"github.com/tvemc/raceline/internal/domain/undo"
	"github.com/tvemc/raceline/pkg/logger"
	"github.com/tvemc/raceline/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second

	offCourseWarning = "RUNNER OFF COURSE"
)

// Submission is what workers read off the queue.
type Submission = model.Submission

// Router resolves logical station codes to physical instances.
type Router interface {
	Resolve(logicalCode, action, distanceCode string, history []model.Pass, bib int, now time.Time) (string, bool)
	Candidates(logicalCode string) []string
}

// Recorder is the store subset workers write through.
type Recorder interface {
	AppendPass(ctx context.Context, p model.Pass) (model.Pass, error)
	ListPasses(ctx context.Context, eventCode string) ([]model.Pass, error)
}

// Notifier receives the correction window for a rerouted pass.
type Notifier interface {
	Show(cor undo.Correction)
}

// Worker consumes submissions until its context or queue is done.
type Worker struct {
	queue    Queue
	router   Router
	recorder Recorder
	notifier Notifier
	name     string
	now      func() time.Time

	// station -> distances it serves; empty disables off-course checks
	courseByStation map[string][]string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Submission
}

// New creates a worker with configuration options.
func New(q Queue, router Router, recorder Recorder, notifier Notifier, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		router:   router,
		recorder: recorder,
		notifier: notifier,
		name:     "worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	subs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-subs:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				metrics.RecordWorkerError()
				w.logger.Error(ctx, "submission processing failed",
					logger.String("clientRef", s.ClientRef),
					logger.Int("bib", s.Bib),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker, waiting briefly for the in-flight submission.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown timed out: %w", ctx.Err())
	}
}

// process routes and records one submission.
func (w *Worker) process(ctx context.Context, s Submission) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	logical := timeutil.SafeUpper(s.StationCode)
	station := logical
	rerouted := false

	history, err := w.recorder.ListPasses(ctx, s.EventCode)
	if err != nil {
		return fmt.Errorf("loading history for bib %d: %w", s.Bib, err)
	}
	if resolved, ok := w.router.Resolve(logical, s.PassType, s.DistanceCode, history, s.Bib, w.now()); ok {
		station = resolved
		rerouted = resolved != logical
	}

	pass := model.Pass{
		EventCode:    s.EventCode,
		Bib:          s.Bib,
		DistanceCode: s.DistanceCode,
		StationCode:  station,
		PassType:     s.PassType,
		Operator:     s.Operator,
		Note:         s.Note,
		Age:          s.Age,
		Gender:       s.Gender,
	}
	w.applyCourseCheck(&pass)

	stored, err := w.recorder.AppendPass(ctx, pass)
	if err != nil {
		return fmt.Errorf("recording pass for bib %d: %w", s.Bib, err)
	}
	metrics.RecordPassSubmitted()

	if rerouted {
		metrics.RecordPassRerouted()
		if w.notifier != nil {
			w.notifier.Show(undo.Correction{
				EventCode: s.EventCode,
				PassID:    stored.PassID,
				FromCode:  logical,
				ToCode:    station,
				Choices:   w.router.Candidates(logical),
			})
			metrics.RecordCorrectionShown()
		}
		w.logger.Info(ctx, "pass auto-routed",
			logger.Int("bib", s.Bib),
			logger.String("from", logical),
			logger.String("to", station),
		)
	}
	return nil
}

// applyCourseCheck flags a pass recorded at a station that does not serve
// the runner's distance, prefixing the warning into the note so it survives
// viewer reloads.
func (w *Worker) applyCourseCheck(p *model.Pass) {
	if len(w.courseByStation) == 0 {
		return
	}
	distances, known := w.courseByStation[timeutil.SafeUpper(p.StationCode)]
	if !known {
		return
	}
	dist := timeutil.SafeUpper(p.DistanceCode)
	for _, d := range distances {
		if timeutil.SafeUpper(d) == dist {
			return
		}
	}
	p.Mismatch = true
	metrics.RecordPassMismatch()
	if !strings.Contains(strings.ToUpper(p.Note), offCourseWarning) {
		p.Note = fmt.Sprintf("%s: %s at %s. %s", offCourseWarning, dist, p.StationCode, p.Note)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*Worker
}

// NewPool creates workerCount workers sharing one queue and collaborators.
func NewPool(workerCount int, q Queue, router Router, recorder Recorder, notifier Notifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{workers: make([]*Worker, workerCount)}
	for i := range p.workers {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = New(q, router, recorder, notifier, workerOpts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start runs all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each to finish.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}
