package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/tvemc/raceline/internal/adapters/repository"
	"github.com/tvemc/raceline/internal/domain/model"
)

const testEvent = "AZM-300-2026-0004"

func TestAppendAndListPasses(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store with a fixed clock", t, func() {
		fixed := time.Date(2026, 1, 1, 15, 0, 0, 0, time.UTC)
		store := repository.NewMemStore(repository.WithClock(func() time.Time { return fixed }))

		Convey("When appending a pass without id or timestamp", func() {
			stored, err := store.AppendPass(ctx, model.Pass{
				EventCode:    testEvent,
				Bib:          101,
				DistanceCode: "50k",
				StationCode:  "as1",
				PassType:     "in",
			})

			Convey("Then the store fills them in and normalizes codes", func() {
				So(err, ShouldBeNil)
				So(stored.PassID, ShouldNotEqual, uuid.Nil)
				So(stored.PassTS, ShouldEqual, "2026-01-01 15:00:00")
				So(stored.StationCode, ShouldEqual, "AS1")
				So(stored.DistanceCode, ShouldEqual, "50K")
				So(stored.PassType, ShouldEqual, "IN")
			})

			Convey("And listing returns it in insertion order", func() {
				passes, err := store.ListPasses(ctx, testEvent)
				So(err, ShouldBeNil)
				So(len(passes), ShouldEqual, 1)
				So(passes[0].PassID, ShouldEqual, stored.PassID)
			})
		})

		Convey("When appending a pass with missing fields", func() {
			_, err := store.AppendPass(ctx, model.Pass{EventCode: testEvent, Bib: 0})
			So(err, ShouldEqual, repository.ErrMissingPayload)
		})

		Convey("When listing a different event", func() {
			_, err := store.AppendPass(ctx, model.Pass{
				EventCode: testEvent, Bib: 101, DistanceCode: "50K", StationCode: "AS1",
			})
			So(err, ShouldBeNil)

			passes, err := store.ListPasses(ctx, "OTHER-EVENT")
			So(err, ShouldBeNil)
			So(len(passes), ShouldEqual, 0)
		})
	})
}

func TestReassignStation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a stored pass", t, func() {
		store := repository.NewMemStore()
		stored, err := store.AppendPass(ctx, model.Pass{
			EventCode: testEvent, Bib: 101, DistanceCode: "50K", StationCode: "AS8",
		})
		So(err, ShouldBeNil)

		Convey("When reassigning to another station", func() {
			err := store.ReassignStation(ctx, stored.PassID, "as10")
			So(err, ShouldBeNil)

			passes, _ := store.ListPasses(ctx, testEvent)
			So(passes[0].StationCode, ShouldEqual, "AS10")
		})

		Convey("When reassigning to the same station", func() {
			So(store.ReassignStation(ctx, stored.PassID, "AS8"), ShouldBeNil)
		})

		Convey("When the pass id is unknown", func() {
			err := store.ReassignStation(ctx, uuid.New(), "AS10")
			So(err, ShouldEqual, repository.ErrPassNotFound)
		})
	})
}

func TestUpdateNote(t *testing.T) {
	ctx := context.Background()

	Convey("Given a stored pass", t, func() {
		store := repository.NewMemStore()
		stored, _ := store.AppendPass(ctx, model.Pass{
			EventCode: testEvent, Bib: 101, DistanceCode: "50K", StationCode: "AS1",
		})

		Convey("When updating its note", func() {
			So(store.UpdateNote(ctx, stored.PassID, "bib hard to read"), ShouldBeNil)

			passes, _ := store.ListPasses(ctx, testEvent)
			So(passes[0].Note, ShouldEqual, "bib hard to read")
		})

		Convey("When the pass id is unknown", func() {
			So(store.UpdateNote(ctx, uuid.New(), "x"), ShouldEqual, repository.ErrPassNotFound)
		})
	})
}

func TestDistanceSettings(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()

		Convey("When setting distance starts and miles", func() {
			So(store.SetDistanceStart(ctx, testEvent, "50k", "2026-01-01 06:00:00"), ShouldBeNil)
			So(store.SetDistanceMiles(ctx, testEvent, "50k", 31.0), ShouldBeNil)

			Convey("Then reads return normalized keys", func() {
				starts, err := store.DistanceStarts(ctx, testEvent)
				So(err, ShouldBeNil)
				So(starts["50K"], ShouldEqual, "2026-01-01 06:00:00")

				miles, err := store.DistanceMiles(ctx, testEvent)
				So(err, ShouldBeNil)
				So(miles["50K"], ShouldEqual, 31.0)
			})

			Convey("And mutating a read copy does not touch the store", func() {
				starts, _ := store.DistanceStarts(ctx, testEvent)
				starts["50K"] = "mutated"

				again, _ := store.DistanceStarts(ctx, testEvent)
				So(again["50K"], ShouldEqual, "2026-01-01 06:00:00")
			})
		})

		Convey("When miles is not positive", func() {
			So(store.SetDistanceMiles(ctx, testEvent, "50K", 0), ShouldEqual, repository.ErrInvalidMiles)
			So(store.SetDistanceMiles(ctx, testEvent, "50K", -5), ShouldEqual, repository.ErrInvalidMiles)
		})

		Convey("When required fields are missing", func() {
			So(store.SetDistanceStart(ctx, testEvent, "", "2026-01-01 06:00:00"), ShouldEqual, repository.ErrMissingPayload)
			So(store.SetDistanceStart(ctx, testEvent, "50K", ""), ShouldEqual, repository.ErrMissingPayload)
		})
	})
}

func TestRunnerStarts(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()

		Convey("When recording a runner start override", func() {
			err := store.SetRunnerStart(ctx, testEvent, model.RunnerStart{
				Bib:     101,
				StartTS: "2026-01-01 06:15:00",
				Reason:  "late wave",
				SetBy:   "td",
			})
			So(err, ShouldBeNil)

			starts, err := store.RunnerStarts(ctx, testEvent)
			So(err, ShouldBeNil)
			So(starts[101], ShouldEqual, "2026-01-01 06:15:00")
		})

		Convey("When the override is incomplete", func() {
			So(store.SetRunnerStart(ctx, testEvent, model.RunnerStart{Bib: 0, StartTS: "x"}),
				ShouldEqual, repository.ErrMissingPayload)
			So(store.SetRunnerStart(ctx, testEvent, model.RunnerStart{Bib: 101}),
				ShouldEqual, repository.ErrMissingPayload)
		})
	})
}

func TestClearStatus(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with a fixed clock", t, func() {
		fixed := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
		store := repository.NewMemStore(repository.WithClock(func() time.Time { return fixed }))

		Convey("When clearing DNS then DNF for the same bib", func() {
			So(store.ClearStatus(ctx, testEvent, 101, "dns", "td", "chip error"), ShouldBeNil)
			So(store.ClearStatus(ctx, testEvent, 101, "DNF", "td", "back on course"), ShouldBeNil)

			Convey("Then one override carries both stamps", func() {
				overrides, err := store.StatusOverrides(ctx, testEvent)
				So(err, ShouldBeNil)
				So(len(overrides), ShouldEqual, 1)
				So(overrides[0].Bib, ShouldEqual, 101)
				So(overrides[0].ClearedDNSAt, ShouldEqual, "2026-01-02 09:00:00")
				So(overrides[0].ClearedDNFAt, ShouldEqual, "2026-01-02 09:00:00")
				So(overrides[0].Note, ShouldEqual, "back on course")
			})
		})

		Convey("When the status kind is invalid", func() {
			So(store.ClearStatus(ctx, testEvent, 101, "DQ", "td", ""), ShouldEqual, repository.ErrInvalidStatus)
		})

		Convey("When the bib is invalid", func() {
			So(store.ClearStatus(ctx, testEvent, 0, "DNS", "td", ""), ShouldEqual, repository.ErrMissingPayload)
		})
	})
}

func TestCountPasses(t *testing.T) {
	ctx := context.Background()

	Convey("Given passes across two events", t, func() {
		store := repository.NewMemStore()
		_, _ = store.AppendPass(ctx, model.Pass{EventCode: testEvent, Bib: 1, DistanceCode: "50K", StationCode: "AS1"})
		_, _ = store.AppendPass(ctx, model.Pass{EventCode: "OTHER", Bib: 2, DistanceCode: "30K", StationCode: "AS1"})

		Convey("Then the count spans all events", func() {
			So(store.CountPasses(ctx), ShouldEqual, 2)
		})
	})
}
