package results_test

import (
	"reflect"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tvemc/raceline/internal/domain/model"
	"github.com/tvemc/raceline/internal/domain/results"
)

func losAngeles(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("loading test zone: %v", err)
	}
	return loc
}

func pass(bib int, dist, station, passType, ts string) model.Pass {
	return model.Pass{
		Bib:          bib,
		DistanceCode: dist,
		StationCode:  station,
		PassType:     passType,
		PassTS:       ts,
	}
}

func TestComputeFinishAndElapsed(t *testing.T) {
	Convey("Given a 50K runner with a start and a finish scan", t, func() {
		engine := results.New(results.WithEventLocation(losAngeles(t)))

		rows := []model.Pass{
			pass(101, "50K", "AS1", "IN", "2026-01-01 16:30:00"),
			pass(101, "50K", "FINISH", "FINISH", "2026-01-01 15:00:00"),
		}
		starts := map[string]string{"50K": "2026-01-01 06:00:00"}
		miles := map[string]float64{"50K": 31.0}

		out := engine.Compute(rows, nil, starts, miles)

		Convey("Then every input row comes back augmented", func() {
			So(len(out), ShouldEqual, 2)
		})

		Convey("Then elapsed spans start to finish across zones", func() {
			// 06:00 PST start is 14:00 UTC; finish scan at 15:00 UTC.
			finish := out[1]
			So(finish.ElapsedTotal, ShouldEqual, "01:00:00")
			So(finish.FinishTime, ShouldEqual, "2026-01-01 07:00:00")
			So(finish.OverallPlace, ShouldEqual, 1)
		})

		Convey("Then non-finish rows of a finisher share derived fields", func() {
			aid := out[0]
			So(aid.ElapsedTotal, ShouldEqual, "01:00:00")
			So(aid.OverallPlace, ShouldEqual, 1)
			So(aid.GenderPlace, ShouldBeBlank) // renders only on the finish row
		})

		Convey("Then the computation is idempotent", func() {
			again := engine.Compute(rows, nil, starts, miles)
			So(reflect.DeepEqual(out, again), ShouldBeTrue)
		})
	})
}

func TestComputeEarliestFinishWins(t *testing.T) {
	Convey("Given a runner with two finish scans", t, func() {
		engine := results.New()

		rows := []model.Pass{
			pass(7, "50K", "FINISH", "FINISH", "2026-01-01 12:00:00"),
			pass(7, "50K", "FINISH", "FINISH", "2026-01-01 11:00:00"),
		}
		starts := map[string]string{"50K": "2026-01-01 06:00:00"}
		miles := map[string]float64{"50K": 31.0}

		out := engine.Compute(rows, nil, starts, miles)

		Convey("Then the earlier scan drives elapsed time", func() {
			So(out[0].ElapsedTotal, ShouldEqual, "05:00:00")
			So(out[1].ElapsedTotal, ShouldEqual, "05:00:00")
		})
	})
}

func TestComputePlacements(t *testing.T) {
	Convey("Given a mixed field across two distances", t, func() {
		engine := results.New()

		rows := []model.Pass{
			// 50K: three finishers, two male one female.
			{Bib: 1, DistanceCode: "50K", StationCode: "FINISH", PassType: "FINISH", PassTS: "2026-01-01 11:00:00", Gender: "M", Age: 34},
			{Bib: 2, DistanceCode: "50K", StationCode: "FINISH", PassType: "FINISH", PassTS: "2026-01-01 11:30:00", Gender: "F", Age: 41},
			{Bib: 3, DistanceCode: "50K", StationCode: "FINISH", PassType: "FINISH", PassTS: "2026-01-01 12:00:00", Gender: "M", Age: 36},
			// 30K: one finisher, placed independently.
			{Bib: 4, DistanceCode: "30K", StationCode: "FINISH", PassType: "FINISH", PassTS: "2026-01-01 10:00:00", Gender: "F", Age: 28},
		}
		starts := map[string]string{"50K": "2026-01-01 06:00:00", "30K": "2026-01-01 07:00:00"}
		miles := map[string]float64{"50K": 31.0, "30K": 18.6}

		out := engine.Compute(rows, nil, starts, miles)
		byBib := make(map[int]model.ResultRow)
		for _, r := range out {
			byBib[r.Bib] = r
		}

		Convey("Then overall places partition each distance 1..N", func() {
			So(byBib[1].OverallPlace, ShouldEqual, 1)
			So(byBib[2].OverallPlace, ShouldEqual, 2)
			So(byBib[3].OverallPlace, ShouldEqual, 3)
			So(byBib[4].OverallPlace, ShouldEqual, 1)
		})

		Convey("Then gender places count within distance and gender", func() {
			So(byBib[1].GenderPlace, ShouldEqual, "1 M")
			So(byBib[2].GenderPlace, ShouldEqual, "1 F")
			So(byBib[3].GenderPlace, ShouldEqual, "2 M")
			So(byBib[4].GenderPlace, ShouldEqual, "1 F")
		})

		Convey("Then age-group places rank within distance, gender, and band", func() {
			So(byBib[1].AgeGroup, ShouldEqual, "30-39")
			So(byBib[1].AGPlace, ShouldEqual, 1)
			So(byBib[3].AgeGroup, ShouldEqual, "30-39")
			So(byBib[3].AGPlace, ShouldEqual, 2)
			So(byBib[2].AGPlace, ShouldEqual, 1)
		})
	})
}

func TestComputeStartPrecedence(t *testing.T) {
	Convey("Given a runner with a per-bib start override", t, func() {
		engine := results.New()

		rows := []model.Pass{
			pass(9, "50K", "FINISH", "FINISH", "2026-01-01 12:00:00"),
		}
		distStarts := map[string]string{"50K": "2026-01-01 06:00:00"}
		runnerStarts := map[int]string{9: "2026-01-01 07:00:00"}
		miles := map[string]float64{"50K": 31.0}

		out := engine.Compute(rows, runnerStarts, distStarts, miles)

		Convey("Then the override beats the distance default", func() {
			So(out[0].ElapsedTotal, ShouldEqual, "05:00:00")
		})
	})
}

func TestComputeNonFinishers(t *testing.T) {
	Convey("Given runners who cannot be placed", t, func() {
		engine := results.New()

		Convey("When a runner never reaches the finish", func() {
			rows := []model.Pass{
				{Bib: 5, DistanceCode: "50K", StationCode: "AS2", PassType: "IN", PassTS: "2026-01-01 09:00:00", Age: 52},
			}
			out := engine.Compute(rows,
				nil,
				map[string]string{"50K": "2026-01-01 06:00:00"},
				map[string]float64{"50K": 31.0})

			Convey("Then placement fields stay blank but age group renders", func() {
				So(out[0].OverallPlace, ShouldEqual, 0)
				So(out[0].ElapsedTotal, ShouldBeBlank)
				So(out[0].AvgPace, ShouldBeBlank)
				So(out[0].AgeGroup, ShouldEqual, "50-59")
			})
		})

		Convey("When the distance has no configured miles", func() {
			rows := []model.Pass{
				pass(6, "50K", "FINISH", "FINISH", "2026-01-01 12:00:00"),
			}
			out := engine.Compute(rows,
				nil,
				map[string]string{"50K": "2026-01-01 06:00:00"},
				map[string]float64{})

			Convey("Then the runner is excluded from placement", func() {
				So(out[0].OverallPlace, ShouldEqual, 0)
			})
		})

		Convey("When the finish precedes the resolved start", func() {
			rows := []model.Pass{
				pass(8, "50K", "FINISH", "FINISH", "2026-01-01 05:00:00"),
			}
			out := engine.Compute(rows,
				nil,
				map[string]string{"50K": "2026-01-01 06:00:00"},
				map[string]float64{"50K": 31.0})

			Convey("Then the row is flagged anomalous and left unplaced", func() {
				So(out[0].AnomalousElapsed, ShouldBeTrue)
				So(out[0].OverallPlace, ShouldEqual, 0)
				So(out[0].ElapsedTotal, ShouldBeBlank)
			})
		})

		Convey("When a row has no parsable timestamp", func() {
			rows := []model.Pass{
				pass(10, "50K", "AS1", "IN", "not a time"),
			}
			out := engine.Compute(rows, nil, nil, nil)

			Convey("Then the row passes through untouched", func() {
				So(len(out), ShouldEqual, 1)
				So(out[0].OverallPlace, ShouldEqual, 0)
			})
		})
	})
}

func TestComputeFinishDetection(t *testing.T) {
	Convey("Given finish tagging that varies in field data", t, func() {
		engine := results.New()
		starts := map[string]string{"50K": "2026-01-01 06:00:00"}
		miles := map[string]float64{"50K": 31.0}

		Convey("When the scan is typed FIN at a non-finish station", func() {
			rows := []model.Pass{
				pass(11, "50K", "AS9", "FIN", "2026-01-01 12:00:00"),
			}
			out := engine.Compute(rows, nil, starts, miles)
			So(out[0].ElapsedTotal, ShouldEqual, "06:00:00")
		})

		Convey("When only the station marks the finish", func() {
			rows := []model.Pass{
				pass(12, "50K", "FINISH", "IN", "2026-01-01 12:00:00"),
			}
			out := engine.Compute(rows, nil, starts, miles)
			So(out[0].ElapsedTotal, ShouldEqual, "06:00:00")
			// Not a FINISH-typed row, so no gender place renders.
			So(out[0].GenderPlace, ShouldBeBlank)
		})
	})
}
