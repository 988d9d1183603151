package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// HalfLifeDecay converts a half-life (in observations) into the per-step
// EWMA decay factor lambda = 0.5^(1/halfLife), so that a weight is halved
// every halfLife steps into the past.
func HalfLifeDecay(halfLife float64) float64 {
	return math.Pow(0.5, 1.0/halfLife)
}

// EWMAStd computes the exponentially-weighted standard deviation of a
// dense (no missing values) series, most recent observation last, using
// weights w_k = lambda^k for the k-th most recent observation,
// normalized to sum to one. The series mean is itself the EWMA mean, not
// the plain arithmetic mean.
func EWMAStd(x []float64, halfLife float64) float64 {
	if len(x) == 0 {
		return 0
	}
	lambda := HalfLifeDecay(halfLife)

	n := len(x)
	weights := make([]float64, n)
	var wSum float64
	for i := 0; i < n; i++ {
		age := n - 1 - i // 0 for most recent observation
		w := math.Pow(lambda, float64(age))
		weights[i] = w
		wSum += w
	}

	var mean float64
	for i, v := range x {
		mean += weights[i] / wSum * v
	}

	var variance float64
	for i, v := range x {
		d := v - mean
		variance += weights[i] / wSum * d * d
	}
	return math.Sqrt(variance)
}

// EWMACovariance computes the exponentially-weighted factor covariance
// matrix of a dense T-by-K panel (T dated rows, K factors, most recent row
// last, no missing values — callers must have already dropped any date
// with a missing factor return before calling this). Rows are weighted by
// w_t = lambda^(T-1-t), normalized to sum to one.
func EWMACovariance(panel *mat.Dense, halfLife float64) (*mat.Dense, error) {
	t, k := panel.Dims()
	if t == 0 {
		return nil, fmt.Errorf("ewma covariance: empty panel")
	}
	lambda := HalfLifeDecay(halfLife)

	weights := make([]float64, t)
	var wSum float64
	for row := 0; row < t; row++ {
		age := t - 1 - row
		w := math.Pow(lambda, float64(age))
		weights[row] = w
		wSum += w
	}

	mean := make([]float64, k)
	for col := 0; col < k; col++ {
		var m float64
		for row := 0; row < t; row++ {
			m += weights[row] / wSum * panel.At(row, col)
		}
		mean[col] = m
	}

	cov := mat.NewDense(k, k, nil)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			var c float64
			for row := 0; row < t; row++ {
				c += weights[row] / wSum * (panel.At(row, a) - mean[a]) * (panel.At(row, b) - mean[b])
			}
			cov.Set(a, b, c)
			cov.Set(b, a, c)
		}
	}
	return cov, nil
}
