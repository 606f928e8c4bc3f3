package sched

import "math"

// choleskySolve solves A x = b for symmetric positive definite A. Returns
// ok=false when a non-positive pivot shows the matrix is not (numerically)
// positive definite.
func choleskySolve(A [][]float64, b []float64) ([]float64, bool) {
	n := len(A)
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, false
				}
				L[i][i] = math.Sqrt(sum)
			} else {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	// Forward substitution: L y = b.
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= L[i][k] * y[k]
		}
		y[i] = sum / L[i][i]
	}

	// Back substitution: L' x = y.
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= L[k][i] * x[k]
		}
		x[i] = sum / L[i][i]
	}
	return x, true
}

// qrSolve computes a least-squares solution of A x = b via Householder QR.
// Rank-deficient columns (tiny diagonal of R) get a zero coefficient, which
// keeps the solve total even when the system is singular.
func qrSolve(A [][]float64, b []float64) []float64 {
	n := len(A)
	// Work on copies; the factorization overwrites both.
	R := make([][]float64, n)
	for i := range R {
		R[i] = append([]float64(nil), A[i]...)
	}
	qtb := append([]float64(nil), b...)

	for k := 0; k < n; k++ {
		// Householder vector for column k.
		var norm float64
		for i := k; i < n; i++ {
			norm += R[i][k] * R[i][k]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		if R[k][k] > 0 {
			norm = -norm
		}
		v := make([]float64, n)
		for i := k; i < n; i++ {
			v[i] = R[i][k]
		}
		v[k] -= norm
		var vnorm2 float64
		for i := k; i < n; i++ {
			vnorm2 += v[i] * v[i]
		}
		if vnorm2 == 0 {
			continue
		}

		// Apply the reflector to R and to b.
		for j := k; j < n; j++ {
			var dot float64
			for i := k; i < n; i++ {
				dot += v[i] * R[i][j]
			}
			f := 2 * dot / vnorm2
			for i := k; i < n; i++ {
				R[i][j] -= f * v[i]
			}
		}
		var dot float64
		for i := k; i < n; i++ {
			dot += v[i] * qtb[i]
		}
		f := 2 * dot / vnorm2
		for i := k; i < n; i++ {
			qtb[i] -= f * v[i]
		}
	}

	// Back substitution on R x = Q'b.
	const tiny = 1e-12
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		if math.Abs(R[i][i]) < tiny {
			x[i] = 0
			continue
		}
		sum := qtb[i]
		for k := i + 1; k < n; k++ {
			sum -= R[i][k] * x[k]
		}
		x[i] = sum / R[i][i]
	}
	return x
}
