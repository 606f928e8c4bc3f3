// Package sched implements the adaptive probe scheduler: a discounted
// per-arm statistics archive, Thompson Sampling over seen arms, an additive
// surrogate for unseen arms, and batch composition with a random floor.
package sched

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	// DefaultGamma is the per-day exponential forgetting factor.
	DefaultGamma = 0.98

	// varianceFloor keeps posterior sampling well-defined.
	varianceFloor = 1e-6

	dayFormat = "2006-01-02"
)

// Arm identifies one candidate itinerary.
type Arm struct {
	Origin string `json:"origin"`
	Dest   string `json:"dest"`
	Depart string `json:"depart"` // YYYY-MM-DD
	Return string `json:"return"` // YYYY-MM-DD
}

// Key returns the stable archive key for the arm. "|" cannot appear in IATA
// codes or ISO dates, so the join is unambiguous.
func (a Arm) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", a.Origin, a.Dest, a.Depart, a.Return)
}

func (a Arm) String() string {
	return fmt.Sprintf("%s->%s %s..%s", a.Origin, a.Dest, a.Depart, a.Return)
}

// ParseKey splits an archive key back into an Arm.
func ParseKey(key string) (Arm, error) {
	parts := strings.Split(key, "|")
	if len(parts) != 4 {
		return Arm{}, eris.Errorf("sched: malformed arm key %q", key)
	}
	return Arm{Origin: parts[0], Dest: parts[1], Depart: parts[2], Return: parts[3]}, nil
}

// ArmStats holds discounted running statistics for one arm.
type ArmStats struct {
	Mean          float64 `json:"mean"`
	Variance      float64 `json:"variance"`
	Weight        float64 `json:"weight"`
	LastUpdateDay string  `json:"last_update_day"`
}

// Archive is the persisted scheduler state. Gamma is the daily decay factor,
// LastBootstrapTS the watermark for incremental replay of the record log.
type Archive struct {
	Gamma           float64              `json:"gamma"`
	LastBootstrapTS string               `json:"last_bootstrap_ts,omitempty"`
	Stats           map[string]*ArmStats `json:"stats"`
}

// NewArchive returns an empty archive with the default decay factor.
func NewArchive() *Archive {
	return &Archive{Gamma: DefaultGamma, Stats: map[string]*ArmStats{}}
}

// normalize repairs structural damage after an untrusted load so that every
// method can assume a usable archive.
func (a *Archive) normalize() {
	if !(a.Gamma > 0 && a.Gamma < 1) {
		a.Gamma = DefaultGamma
	}
	if a.Stats == nil {
		a.Stats = map[string]*ArmStats{}
	}
	for key, s := range a.Stats {
		if s == nil {
			delete(a.Stats, key)
		}
	}
}

// Decay applies day-wise exponential forgetting: every arm last updated
// before today has mean, variance, and weight multiplied by
// gamma^elapsedDays. Calling it twice on the same day is a no-op. Entries
// whose last update day does not parse are stamped with today and left
// otherwise untouched.
func (a *Archive) Decay(today string) {
	tToday, err := time.Parse(dayFormat, today)
	if err != nil {
		return
	}
	for _, s := range a.Stats {
		if s.LastUpdateDay == "" {
			s.LastUpdateDay = today
			continue
		}
		tLast, err := time.Parse(dayFormat, s.LastUpdateDay)
		if err != nil {
			s.LastUpdateDay = today
			continue
		}
		days := int(tToday.Sub(tLast).Hours() / 24)
		if days <= 0 {
			continue
		}
		factor := powInt(a.Gamma, days)
		s.Mean *= factor
		s.Variance *= factor
		s.Weight *= factor
		s.LastUpdateDay = today
	}
}

// AddObservation blends one observed price into the arm's discounted
// statistics. Decay for the given day is applied first so same-day updates
// blend without forgetting. A new arm starts at mean=price, variance=1,
// weight=1.
func (a *Archive) AddObservation(key string, price float64, day string) {
	a.Decay(day)

	s, ok := a.Stats[key]
	if !ok {
		a.Stats[key] = &ArmStats{Mean: price, Variance: 1.0, Weight: 1.0, LastUpdateDay: day}
		return
	}

	// EWMA with step 1-gamma; variance tracked around the evolving mean.
	alpha := 1.0 - a.Gamma
	mean := a.Gamma*s.Mean + alpha*price
	variance := a.Gamma*s.Variance + alpha*(price-mean)*(price-mean)
	if variance < varianceFloor {
		variance = varianceFloor
	}
	s.Mean = mean
	s.Variance = variance
	s.Weight = a.Gamma*s.Weight + 1.0
	s.LastUpdateDay = day
}

// AddFailure ingests a synthetic observation for a probe that returned no
// qualifying result: penaltyFactor times the best known global price, or 1.0
// when no global best exists yet. Repeated failures drift the arm toward
// deprioritization without excluding it.
func (a *Archive) AddFailure(key string, globalBest float64, penaltyFactor float64, day string) {
	y := 1.0
	if globalBest > 0 {
		y = globalBest * penaltyFactor
	}
	a.AddObservation(key, y, day)
}

// powInt computes base^n for small non-negative n without going through
// math.Pow's log/exp path, keeping decay exactly reproducible.
func powInt(base float64, n int) float64 {
	f := 1.0
	for i := 0; i < n; i++ {
		f *= base
	}
	return f
}
