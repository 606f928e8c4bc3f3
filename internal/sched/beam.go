package sched

import (
	"container/heap"
	"sort"
	"time"
)

// scoredArm pairs a candidate with its composite surrogate score.
type scoredArm struct {
	score float64
	arm   Arm
}

// worstFirst is a bounded max-heap: the worst (highest-score) candidate sits
// at the root so it can be evicted when a better one arrives.
type worstFirst []scoredArm

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return h[i].score > h[j].score }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(scoredArm)) }
func (h *worstFirst) Pop() any          { old := *h; n := len(old); it := old[n-1]; *h = old[:n-1]; return it }

// returnDate adds a trip length in days to an outbound date. Unparseable
// dates fall through unchanged, mirroring how pool entries are treated as
// opaque labels elsewhere.
func returnDate(depart string, days int) string {
	t, err := time.Parse(dayFormat, depart)
	if err != nil {
		return depart
	}
	return t.AddDate(0, 0, days).Format(dayFormat)
}

// representativeLengths picks the shortest and median allowed trip lengths,
// enough spread to diversify the beam without multiplying the cross product.
func representativeLengths(lengths []int) []int {
	if len(lengths) == 0 {
		return nil
	}
	uniq := map[int]struct{}{}
	for _, l := range lengths {
		uniq[l] = struct{}{}
	}
	sorted := make([]int, 0, len(uniq))
	for l := range uniq {
		sorted = append(sorted, l)
	}
	sort.Ints(sorted)
	if len(sorted) == 1 {
		return sorted
	}
	mid := sorted[len(sorted)/2]
	if mid == sorted[0] {
		return []int{sorted[0]}
	}
	return []int{sorted[0], mid}
}

// topFactors ranks a candidate pool by fitted score ascending and keeps the
// first k. An unfitted block falls back to raw pool order.
func topFactors(scores map[string]float64, pool []string, k int) []string {
	if k > len(pool) {
		k = len(pool)
	}
	if k <= 0 {
		return nil
	}
	if len(scores) == 0 {
		return pool[:k]
	}
	ranked := append([]string(nil), pool...)
	sort.SliceStable(ranked, func(i, j int) bool { return scores[ranked[i]] < scores[ranked[j]] })
	return ranked[:k]
}

// BeamCompose enumerates the cross product of the top-beamK origins,
// destinations, and outbound dates with representative trip lengths, scores
// each unseen combination additively, and returns up to limit candidates
// with the lowest composite scores. Already-archived keys are skipped: the
// Thompson selector owns those. The heap is bounded to limit so memory
// stays flat even when the cross product is large.
func (a *Archive) BeamCompose(eff Effects, origins, dests, dates []string, lengths []int, beamK, limit int) []Arm {
	if limit <= 0 {
		return nil
	}
	durs := representativeLengths(lengths)
	if len(durs) == 0 {
		return nil
	}

	topOrigins := topFactors(eff.Origin, origins, beamK)
	topDests := topFactors(eff.Dest, dests, beamK)
	topDates := topFactors(eff.Date, dates, beamK)

	best := &worstFirst{}
	seen := map[string]struct{}{}

	for _, o := range topOrigins {
		for _, d := range topDests {
			for _, dd := range topDates {
				score := eff.Score(o, d, dd)
				for _, dur := range durs {
					arm := Arm{Origin: o, Dest: d, Depart: dd, Return: returnDate(dd, dur)}
					key := arm.Key()
					if _, ok := a.Stats[key]; ok {
						continue
					}
					if _, ok := seen[key]; ok {
						continue
					}
					seen[key] = struct{}{}
					heap.Push(best, scoredArm{score: score, arm: arm})
					if best.Len() > limit {
						heap.Pop(best)
					}
				}
			}
		}
	}

	out := make([]Arm, best.Len())
	for i := best.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(best).(scoredArm).arm
	}
	return out
}
