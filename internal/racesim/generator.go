package racesim

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"github.com/tvemc/raceline/pkg/logger"
)

// distanceSpec describes one simulated course distance.
type distanceSpec struct {
	code   string
	miles  float64
	course []string // IN stations hit before the finish, in order
}

// The simulated field runs a looped trail course where several distances
// cross the same corral crossing, which exercises the auto-router.
var simDistances = []distanceSpec{
	{code: "30K", miles: 18.6, course: []string{"AS1", "CORRAL_AUTO"}},
	{code: "50K", miles: 31.0, course: []string{"AS1", "AS2", "CORRAL_AUTO"}},
	{code: "50M", miles: 50.0, course: []string{"AS1", "AS2", "AS4", "CORRAL_AUTO"}},
	{code: "100K", miles: 62.1, course: []string{"AS1", "AS2", "AS4", "KANAN_AUTO"}},
}

var simGenders = []string{"M", "F", "X"}

// simRunner is one generated participant.
type simRunner struct {
	bib      int
	distance distanceSpec
	age      float64
	gender   string
}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateRunners builds the simulated field. Bibs are sequential from 101
// so the output is easy to eyeball against results.
func generateRunners(ctx context.Context, config *Config, stats *Stats) []simRunner {
	logger.Get().Info(ctx, "generating simulated field", logger.Int("numRunners", config.NumRunners))

	runners := make([]simRunner, config.NumRunners)
	for i := range runners {
		runners[i] = simRunner{
			bib:      101 + i,
			distance: simDistances[randomInt(len(simDistances))],
			age:      float64(18 + randomInt(58)),
			gender:   simGenders[randomInt(len(simGenders))],
		}
	}
	stats.RunnersGenerated = len(runners)
	return runners
}

// generatePasses expands each runner into their course scans plus a finish.
// Pass timestamps are assigned server-side on receipt, so the submission
// order is the race order: everyone's aid-station scans first, then the
// finish scans in bib order.
func generatePasses(ctx context.Context, runners []simRunner, stats *Stats) []PassSubmission {
	var passes []PassSubmission

	for _, r := range runners {
		for _, station := range r.distance.course {
			passes = append(passes, PassSubmission{
				ClientRef:    uuid.New().String(),
				Bib:          r.bib,
				DistanceCode: r.distance.code,
				StationCode:  station,
				PassType:     "IN",
				Operator:     "sim",
				Age:          r.age,
				Gender:       r.gender,
			})
		}
	}
	for _, r := range runners {
		passes = append(passes, PassSubmission{
			ClientRef:    uuid.New().String(),
			Bib:          r.bib,
			DistanceCode: r.distance.code,
			StationCode:  "FINISH",
			PassType:     "FINISH",
			Operator:     "sim",
			Age:          r.age,
			Gender:       r.gender,
		})
	}

	stats.PassesGenerated = len(passes)
	logger.Get().Info(ctx, "generated passes", logger.Int("passes", len(passes)))
	return passes
}
