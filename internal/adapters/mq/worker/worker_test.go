package worker_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tvemc/raceline/internal/adapters/mq/queue"
	"github.com/tvemc/raceline/internal/adapters/mq/worker"
	"github.com/tvemc/raceline/internal/adapters/repository"
	"github.com/tvemc/raceline/internal/domain/autopass"
	"github.com/tvemc/raceline/internal/domain/model"
	"github.com/tvemc/raceline/internal/domain/undo"
	"github.com/tvemc/raceline/pkg/logger"
)

const testEvent = "AZM-300-2026-0004"

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// captureNotifier records corrections handed to the undo window.
type captureNotifier struct {
	mu   sync.Mutex
	cors []undo.Correction
}

func (n *captureNotifier) Show(cor undo.Correction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cors = append(n.cors, cor)
}

func (n *captureNotifier) all() []undo.Correction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]undo.Correction(nil), n.cors...)
}

func testRouter() *autopass.Resolver {
	return autopass.New(autopass.WithGroups(map[string][]string{
		"CORRAL_AUTO": {"AS1", "AS8", "AS10"},
	}))
}

// runOne pushes a submission through a single worker and waits for the
// store to hold want passes.
func runOne(t *testing.T, w *worker.Worker, q *queue.InMemoryQueue, store repository.Store, s model.Submission, want int) []model.Pass {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if !q.Enqueue(ctx, s) {
		t.Fatal("enqueue failed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		passes, err := store.ListPasses(ctx, testEvent)
		if err != nil {
			t.Fatalf("listing passes: %v", err)
		}
		if len(passes) >= want {
			return passes
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("store never reached %d passes", want)
	return nil
}

func TestWorkerRecordsPasses(t *testing.T) {
	Convey("Given a worker over a real store and router", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		notifier := &captureNotifier{}
		w := worker.New(q, testRouter(), store, notifier)

		Convey("When the station code is already physical", func() {
			passes := runOne(t, w, q, store, model.Submission{
				ClientRef:    "scan-1",
				EventCode:    testEvent,
				Bib:          101,
				DistanceCode: "50K",
				StationCode:  "as3",
				PassType:     "in",
			}, 1)

			Convey("Then the pass records at that station, upper-cased", func() {
				So(passes[0].StationCode, ShouldEqual, "AS3")
				So(passes[0].PassType, ShouldEqual, "IN")
				So(passes[0].Mismatch, ShouldBeFalse)
			})

			Convey("And no correction window opens", func() {
				So(len(notifier.all()), ShouldEqual, 0)
			})
		})

		Convey("When the station code is a logical group", func() {
			passes := runOne(t, w, q, store, model.Submission{
				ClientRef:    "scan-2",
				EventCode:    testEvent,
				Bib:          102,
				DistanceCode: "50K",
				StationCode:  "CORRAL_AUTO",
				PassType:     "IN",
			}, 1)

			Convey("Then the pass records at the resolved instance", func() {
				So(passes[0].StationCode, ShouldEqual, "AS1")
			})

			Convey("And the correction window opens with the candidates", func() {
				cors := notifier.all()
				So(len(cors), ShouldEqual, 1)
				So(cors[0].FromCode, ShouldEqual, "CORRAL_AUTO")
				So(cors[0].ToCode, ShouldEqual, "AS1")
				So(cors[0].Choices, ShouldResemble, []string{"AS1", "AS8", "AS10"})
				So(cors[0].PassID, ShouldEqual, passes[0].PassID)
			})
		})
	})
}

func TestWorkerOffCourseCheck(t *testing.T) {
	Convey("Given a worker with a course layout", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		w := worker.New(q, testRouter(), store, nil,
			worker.WithCourseByStation(map[string][]string{
				"AS3": {"50K", "50M"},
			}),
		)

		Convey("When a runner scans at a station off their course", func() {
			passes := runOne(t, w, q, store, model.Submission{
				ClientRef:    "scan-3",
				EventCode:    testEvent,
				Bib:          103,
				DistanceCode: "30K",
				StationCode:  "AS3",
				PassType:     "IN",
				Note:         "looked tired",
			}, 1)

			Convey("Then the pass is flagged and the note warns", func() {
				So(passes[0].Mismatch, ShouldBeTrue)
				So(passes[0].Note, ShouldStartWith, "RUNNER OFF COURSE")
				So(passes[0].Note, ShouldContainSubstring, "looked tired")
			})
		})

		Convey("When the station serves the runner's distance", func() {
			passes := runOne(t, w, q, store, model.Submission{
				ClientRef:    "scan-4",
				EventCode:    testEvent,
				Bib:          104,
				DistanceCode: "50K",
				StationCode:  "AS3",
				PassType:     "IN",
			}, 1)

			So(passes[0].Mismatch, ShouldBeFalse)
		})

		Convey("When the station is not in the layout at all", func() {
			passes := runOne(t, w, q, store, model.Submission{
				ClientRef:    "scan-5",
				EventCode:    testEvent,
				Bib:          105,
				DistanceCode: "30K",
				StationCode:  "AS9",
				PassType:     "IN",
			}, 1)

			Convey("Then no off-course judgment is made", func() {
				So(passes[0].Mismatch, ShouldBeFalse)
			})
		})
	})
}

func TestWorkerSequentialRouting(t *testing.T) {
	Convey("Given repeated logical scans for one runner", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		w := worker.New(q, testRouter(), store, nil)

		sub := model.Submission{
			EventCode:    testEvent,
			Bib:          106,
			DistanceCode: "100K",
			StationCode:  "CORRAL_AUTO",
			PassType:     "IN",
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		for i, want := 0, 1; i < 3; i, want = i+1, want+1 {
			So(q.Enqueue(ctx, sub), ShouldBeTrue)
			deadline := time.Now().Add(2 * time.Second)
			for {
				passes, _ := store.ListPasses(ctx, testEvent)
				if len(passes) >= want {
					break
				}
				if time.Now().After(deadline) {
					t.Fatalf("pass %d never recorded", want)
				}
				time.Sleep(5 * time.Millisecond)
			}
		}

		Convey("Then the instances advance through the group", func() {
			// No dwell table here, so each scan advances the sequence.
			passes, _ := store.ListPasses(ctx, testEvent)
			So(len(passes), ShouldEqual, 3)
			So(passes[0].StationCode, ShouldEqual, "AS1")
			So(passes[1].StationCode, ShouldEqual, "AS8")
			So(passes[2].StationCode, ShouldEqual, "AS10")
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		pool := worker.NewPool(4, q, testRouter(), store, nil)

		ctx := context.Background()
		pool.Start(ctx)

		Convey("When many submissions arrive", func() {
			for i := 0; i < 20; i++ {
				So(q.Enqueue(ctx, model.Submission{
					EventCode:    testEvent,
					Bib:          200 + i,
					DistanceCode: "50K",
					StationCode:  "AS3",
					PassType:     "IN",
				}), ShouldBeTrue)
			}

			deadline := time.Now().Add(3 * time.Second)
			for {
				if store.CountPasses(ctx) >= 20 {
					break
				}
				if time.Now().After(deadline) {
					t.Fatalf("pool recorded %d of 20 passes", store.CountPasses(ctx))
				}
				time.Sleep(10 * time.Millisecond)
			}

			Convey("Then all are recorded and the pool stops cleanly", func() {
				So(store.CountPasses(ctx), ShouldEqual, 20)
				pool.Stop()
			})
		})
	})
}
