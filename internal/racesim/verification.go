package racesim

import (
	"context"
	"fmt"
	"sort"

	"github.com/tvemc/raceline/pkg/logger"
)

// verifyResults checks the derived rows against what the simulator submitted:
// every runner should have a finish row, and overall places within a distance
// should form an unbroken 1..N sequence.
func verifyResults(ctx context.Context, config *Config, runners []simRunner, rows []ResultRow, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying results", logger.Int("rows", len(rows)))

	if len(rows) == 0 {
		return fmt.Errorf("no result rows to verify")
	}

	// Finish rows only; placements render there.
	finishByBib := make(map[int]ResultRow)
	for _, r := range rows {
		if r.PassType == "FINISH" && r.OverallPlace > 0 {
			finishByBib[r.Bib] = r
		}
	}
	stats.Finishers = len(finishByBib)

	missing := 0
	for _, runner := range runners {
		if _, ok := finishByBib[runner.bib]; !ok {
			missing++
			if config.Verbose {
				log.Warn(ctx, "runner has no placed finish row",
					logger.Int("bib", runner.bib),
					logger.String("distance", runner.distance.code))
			}
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d runners have no placed finish row", missing, len(runners))
	}

	if err := verifyPlacementSequences(finishByBib); err != nil {
		return err
	}

	displayPodium(ctx, finishByBib, config.Verbose)

	log.Info(ctx, "result verification completed")
	return nil
}

// verifyPlacementSequences checks that places per distance partition 1..N.
func verifyPlacementSequences(finishByBib map[int]ResultRow) error {
	placesByDistance := make(map[string][]int)
	for _, r := range finishByBib {
		placesByDistance[r.DistanceCode] = append(placesByDistance[r.DistanceCode], r.OverallPlace)
	}

	for dist, places := range placesByDistance {
		sort.Ints(places)
		for i, p := range places {
			if p != i+1 {
				return fmt.Errorf("distance %s: expected place %d, found %d", dist, i+1, p)
			}
		}
	}
	return nil
}

// displayPodium logs the top three finishers of each distance.
func displayPodium(ctx context.Context, finishByBib map[int]ResultRow, verbose bool) {
	byDistance := make(map[string][]ResultRow)
	for _, r := range finishByBib {
		byDistance[r.DistanceCode] = append(byDistance[r.DistanceCode], r)
	}

	log := logger.Get()
	for dist, list := range byDistance {
		sort.Slice(list, func(i, j int) bool {
			return list[i].OverallPlace < list[j].OverallPlace
		})
		podium := 3
		if len(list) < podium {
			podium = len(list)
		}
		for i := 0; i < podium; i++ {
			r := list[i]
			log.Info(ctx, "podium finisher",
				logger.String("distance", dist),
				logger.Int("place", r.OverallPlace),
				logger.Int("bib", r.Bib),
				logger.String("elapsed", r.ElapsedTotal),
				logger.String("pace", r.AvgPace),
				logger.String("genderPlace", r.GenderPlace))
		}
		if verbose {
			log.Info(ctx, "distance field size",
				logger.String("distance", dist),
				logger.Int("finishers", len(list)))
		}
	}
}
