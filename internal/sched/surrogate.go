package sched

import "sort"

// ridgeLambda stabilizes the additive fit when observations are few or
// factors are collinear.
const ridgeLambda = 1e-3

// Effects holds the fitted additive score components. Lower means cheaper.
// Categories with no observations are absent and score 0 wherever looked up.
type Effects struct {
	Origin map[string]float64
	Dest   map[string]float64
	Date   map[string]float64
}

// Score returns the composite additive estimate for an arm's factors.
// Missing factors contribute 0 (neutral).
func (e Effects) Score(origin, dest, date string) float64 {
	return e.Origin[origin] + e.Dest[dest] + e.Date[date]
}

// Empty reports whether nothing has been fitted.
func (e Effects) Empty() bool {
	return len(e.Origin) == 0 && len(e.Dest) == 0 && len(e.Date) == 0
}

// FitSurrogate decomposes the archived discounted means into per-origin,
// per-destination, and per-date additive effects by weighted ridge
// regression: each archived arm is one sample with its mean as target and
// its weight as sample weight, over three disjoint indicator blocks. The
// normal equations are solved by Cholesky factorization, falling back to a
// Householder-QR least-squares solve if the system is not positive
// definite.
func (a *Archive) FitSurrogate() Effects {
	eff := Effects{
		Origin: map[string]float64{},
		Dest:   map[string]float64{},
		Date:   map[string]float64{},
	}
	if len(a.Stats) == 0 {
		return eff
	}

	type sample struct {
		origin, dest, date string
		y, w               float64
	}
	var samples []sample
	originSet := map[string]struct{}{}
	destSet := map[string]struct{}{}
	dateSet := map[string]struct{}{}

	for key, s := range a.Stats {
		arm, err := ParseKey(key)
		if err != nil {
			continue
		}
		w := s.Weight
		if w < 0 {
			w = 0
		}
		samples = append(samples, sample{arm.Origin, arm.Dest, arm.Depart, s.Mean, w})
		originSet[arm.Origin] = struct{}{}
		destSet[arm.Dest] = struct{}{}
		dateSet[arm.Depart] = struct{}{}
	}
	if len(samples) == 0 {
		return eff
	}

	origins := sortedKeys(originSet)
	dests := sortedKeys(destSet)
	dates := sortedKeys(dateSet)

	originIdx := indexOf(origins)
	destIdx := indexOf(dests)
	dateIdx := indexOf(dates)

	p := len(origins) + len(dests) + len(dates)

	// Accumulate A = X'WX + lambda*I and b = X'Wy directly: each sample row
	// has exactly one indicator per block, so only 3x3 entries per sample.
	A := make([][]float64, p)
	for i := range A {
		A[i] = make([]float64, p)
		A[i][i] = ridgeLambda
	}
	b := make([]float64, p)

	for _, s := range samples {
		idx := [3]int{
			originIdx[s.origin],
			len(origins) + destIdx[s.dest],
			len(origins) + len(dests) + dateIdx[s.date],
		}
		for _, i := range idx {
			b[i] += s.w * s.y
			for _, j := range idx {
				A[i][j] += s.w
			}
		}
	}

	coef, ok := choleskySolve(A, b)
	if !ok {
		coef = qrSolve(A, b)
	}

	for o, i := range originIdx {
		eff.Origin[o] = coef[i]
	}
	for d, i := range destIdx {
		eff.Dest[d] = coef[len(origins)+i]
	}
	for t, i := range dateIdx {
		eff.Date[t] = coef[len(origins)+len(dests)+i]
	}
	return eff
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(items []string) map[string]int {
	idx := make(map[string]int, len(items))
	for i, it := range items {
		idx[it] = i
	}
	return idx
}
