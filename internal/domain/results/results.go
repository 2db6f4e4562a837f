// Package results derives finish status, elapsed time, pace, and placement
// from raw passage events. Compute is a pure function over its inputs: it is
// re-run on every refresh and carries no state between calls, so identical
// input always yields identical output.
package results

import (
	"fmt"
	"sort"
	"time"

	"github.com/tvemc/raceline/internal/domain/model"
	"github.com/tvemc/raceline/internal/domain/timeutil"
)

const (
	defaultFinishStationCode = "FINISH"
	finishDisplayLayout      = "2006-01-02 15:04:05"
	unknownGender            = "UNK"
)

// Engine computes derived result rows. It holds only configuration; all
// race data arrives per Compute call.
type Engine struct {
	finishStationCode string
	eventLocation     *time.Location
}

// New creates an Engine. The default finish code is "FINISH" and the
// default event location is UTC.
func New(opts ...Option) *Engine {
	e := &Engine{
		finishStationCode: defaultFinishStationCode,
		eventLocation:     time.UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// runnerState is the per-bib aggregate built in a single pass over the rows.
type runnerState struct {
	bib         int
	distance    string
	age         float64
	gender      string
	lastAt      time.Time
	lastStation string
	finishedAt  time.Time
	finished    bool

	// resolved per run
	startAt    time.Time
	startOK    bool
	miles      float64
	elapsedSec float64
	avgPace    string
	elapsedHMS string
	ageGroup   string
	genderNorm string
	anomalous  bool
}

// Compute augments every input row with derived finish, elapsed, pace, and
// placement fields.
//
// Start-time precedence per bib: runnerStartByBib override first, then
// startByDistance for the runner's current distance. Start strings are
// event-local wall clock; pass timestamps are UTC. Placement is computed per
// distance over runners with a resolved finish, start, and positive miles;
// everyone else keeps blank placement but a best-effort age group. A finish
// earlier than the resolved start is flagged anomalous and excluded from
// elapsed, pace, and all rankings.
func (e *Engine) Compute(
	rows []model.Pass,
	runnerStartByBib map[int]string,
	startByDistance map[string]string,
	milesByDistance map[string]float64,
) []model.ResultRow {
	runners := make(map[int]*runnerState)
	var bibOrder []int // first-appearance order keeps ties deterministic

	for _, r := range rows {
		if r.Bib <= 0 {
			continue
		}
		at, ok := timeutil.ParsePassUTC(r.PassTS)
		if !ok {
			continue
		}

		station := timeutil.SafeUpper(r.StationCode)
		passType := timeutil.SafeUpper(r.PassType)

		st, seen := runners[r.Bib]
		if !seen {
			st = &runnerState{
				bib:         r.Bib,
				age:         r.Age,
				gender:      r.Gender,
				lastAt:      at,
				lastStation: station,
			}
			runners[r.Bib] = st
			bibOrder = append(bibOrder, r.Bib)
		}

		if d := timeutil.SafeUpper(r.DistanceCode); d != "" {
			st.distance = d
		}
		if at.After(st.lastAt) {
			st.lastAt = at
			st.lastStation = station
		}

		// Stations and pass-type tagging are not always in sync in field
		// data, so finish detection checks both.
		isFinish := station == e.finishStationCode || passType == model.PassFinish || passType == "FIN"
		if isFinish && (!st.finished || at.Before(st.finishedAt)) {
			st.finishedAt = at
			st.finished = true
		}
	}

	finishersByDistance := make(map[string][]*runnerState)
	for _, bib := range bibOrder {
		st := runners[bib]
		if st.distance == "" {
			continue
		}

		startStr, ok := runnerStartByBib[st.bib]
		if !ok || startStr == "" {
			startStr = startByDistance[st.distance]
		}
		st.startAt, st.startOK = timeutil.ParseEventLocal(startStr, e.eventLocation)
		st.miles = milesByDistance[st.distance]

		if !st.finished || !st.startOK || st.miles <= 0 {
			continue
		}

		st.elapsedSec = st.finishedAt.Sub(st.startAt).Seconds()
		if st.elapsedSec < 0 {
			st.anomalous = true
			continue
		}

		st.avgPace = timeutil.PaceMinPerMile(st.elapsedSec, st.miles)
		st.elapsedHMS = timeutil.FormatHMS(st.elapsedSec)
		st.ageGroup = timeutil.AgeGroup(st.age)
		st.genderNorm = timeutil.SafeUpper(st.gender)
		if st.genderNorm == "" {
			st.genderNorm = unknownGender
		}
		finishersByDistance[st.distance] = append(finishersByDistance[st.distance], st)
	}

	overallPlace := make(map[int]int)
	agPlace := make(map[int]int)
	genderPlace := make(map[int]string)

	for dist, list := range finishersByDistance {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].finishedAt.Before(list[j].finishedAt)
		})

		for i, st := range list {
			overallPlace[st.bib] = i + 1
		}

		gCount := make(map[string]int)
		for _, st := range list {
			gCount[st.genderNorm]++
			genderPlace[st.bib] = fmt.Sprintf("%d %s", gCount[st.genderNorm], st.genderNorm)
		}

		buckets := make(map[string][]*runnerState)
		for _, st := range list {
			k := dist + "|" + st.genderNorm + "|" + st.ageGroup
			buckets[k] = append(buckets[k], st)
		}
		for _, bucket := range buckets {
			sort.SliceStable(bucket, func(i, j int) bool {
				return bucket[i].finishedAt.Before(bucket[j].finishedAt)
			})
			for i, st := range bucket {
				agPlace[st.bib] = i + 1
			}
		}
	}

	out := make([]model.ResultRow, 0, len(rows))
	for _, r := range rows {
		row := model.ResultRow{Pass: r}
		st, ok := runners[r.Bib]
		if !ok {
			// No aggregate (bad bib or no parsable timestamps); pass through.
			out = append(out, row)
			continue
		}

		if st.finished && st.startOK && st.miles > 0 && !st.anomalous {
			row.FinishTime = st.finishedAt.In(e.eventLocation).Format(finishDisplayLayout)
			row.FinishTSMillis = st.finishedAt.UnixMilli()
			row.ElapsedTotal = st.elapsedHMS
			row.AvgPace = st.avgPace
			row.AgeGroup = st.ageGroup
			// Gender place renders only on the finish row itself.
			if timeutil.SafeUpper(r.PassType) == model.PassFinish {
				row.GenderPlace = genderPlace[st.bib]
			}
			row.AGPlace = agPlace[st.bib]
			row.OverallPlace = overallPlace[st.bib]
		} else {
			row.AgeGroup = timeutil.AgeGroup(st.age)
			row.AnomalousElapsed = st.anomalous
		}

		out = append(out, row)
	}
	return out
}
