package sched

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
)

// Slice of the batch reserved for Thompson picks over seen arms, and for
// surrogate-scored unseen arms. The rest is the random exploration floor
// plus whatever either source could not fill.
const (
	seenFraction      = 0.6
	surrogateFraction = 0.3
)

// BatchParams describes one batch-proposal request.
type BatchParams struct {
	Origins     []string
	Dests       []string
	Dates       []string // outbound dates, YYYY-MM-DD
	TripLengths []int    // allowed trip lengths in days

	Q               int     // max batch size
	RandomFloorFrac float64 // guaranteed random-exploration fraction
	BeamK           int     // factors kept per block in the beam
}

// ProposeBatch composes up to Q unique arms for the next sweep from three
// sources, in priority order: Thompson Sampling over seen arms, the additive
// surrogate's beam over unseen arms, and a uniform random floor. It never
// fails: empty pools simply mean the affected source contributes nothing.
func (a *Archive) ProposeBatch(p BatchParams, rng *rand.Rand) []Arm {
	if p.Q <= 0 {
		return nil
	}

	var picked []Arm
	taken := map[string]struct{}{}
	add := func(arm Arm) bool {
		key := arm.Key()
		if _, ok := taken[key]; ok {
			return false
		}
		taken[key] = struct{}{}
		picked = append(picked, arm)
		return true
	}

	// 1) Thompson over seen arms.
	qSeen := int(float64(p.Q) * seenFraction)
	thompson := 0
	for _, arm := range a.ThompsonRank(rng) {
		if thompson >= qSeen {
			break
		}
		if add(arm) {
			thompson++
		}
	}

	// 2) Surrogate beam over unseen arms.
	qSur := int(float64(p.Q) * surrogateFraction)
	surrogate := 0
	if qSur > 0 {
		eff := a.FitSurrogate()
		for _, arm := range a.BeamCompose(eff, p.Origins, p.Dests, p.Dates, p.TripLengths, p.BeamK, qSur) {
			if add(arm) {
				surrogate++
			}
		}
	}

	// 3) Random floor, retried to tolerate duplicate draws. Without any
	// allowed trip length a zero-day trip keeps exploration alive.
	qRand := int(math.Ceil(p.RandomFloorFrac * float64(p.Q)))
	random := 0
	if qRand > 0 && len(p.Origins) > 0 && len(p.Dests) > 0 && len(p.Dates) > 0 {
		lengths := p.TripLengths
		if len(lengths) == 0 {
			lengths = []int{0}
		}
		for tries := 0; random < qRand && tries < qRand*20; tries++ {
			dd := p.Dates[rng.IntN(len(p.Dates))]
			arm := Arm{
				Origin: p.Origins[rng.IntN(len(p.Origins))],
				Dest:   p.Dests[rng.IntN(len(p.Dests))],
				Depart: dd,
				Return: returnDate(dd, lengths[rng.IntN(len(lengths))]),
			}
			if add(arm) {
				random++
			}
		}
	}

	if len(picked) > p.Q {
		picked = picked[:p.Q]
	}

	zap.L().Debug("sched: batch composed",
		zap.Int("thompson", thompson),
		zap.Int("surrogate", surrogate),
		zap.Int("random", random),
		zap.Int("total", len(picked)),
	)
	return picked
}
