// Package regression implements the Cross-Sectional Regressor (C5): for
// each TradingDay's cross section, a weighted least squares solve for
// that day's factor returns.
package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Row is one security's contribution to a single day's regression: its
// factor exposures (in the caller's fixed factor order, nil entries
// meaning missing), its same-day return, and its market capitalization
// (used to build the WLS weight).
type Row struct {
	Security   string
	Exposures  []*float64
	Return     *float64
	MarketCap  *float64
}

// Result is one day's regression outcome.
type Result struct {
	// FactorReturns is the solved f vector, in the caller's factor order.
	// Zero-valued (not nil) when the day was insufficient.
	FactorReturns []float64
	// Residuals maps security -> residual, for securities that entered the
	// regression. Empty when the day was insufficient.
	Residuals map[string]float64
	// Insufficient is true when fewer than minRows valid rows remained
	// after dropping rows with missing data, or when the system stayed
	// unsolvable even after ridge regularization.
	Insufficient bool
	// UsedRidge is true when the XtWX matrix required ridge regularization
	// to be solvable.
	UsedRidge bool
}

const minMarketCapFloor = 1e8

// Regress computes one day's factor returns by weighted least squares:
//
//	f = (XtWX)^-1 XtWy,  W_ii = sqrt(max(market_cap_i, 1e8))
//
// A factor column that is missing in every row (growth and leverage, which
// the exposure builder always leaves missing) is skipped: it enters the
// solve as a zero column, so its factor return comes out as 0. Rows with a
// missing return or a missing value in any other column are dropped.
// If fewer than minRows remain, it returns the zero vector with no
// residuals and Insufficient=true. If XtWX is singular or non-finite, it
// falls back to ridge regularization XtWX + ridgeLambda*I.
func Regress(rows []Row, numFactors int, ridgeLambda float64, minRows int) Result {
	present := make([]bool, numFactors)
	for _, r := range rows {
		for j, x := range r.Exposures {
			if j < numFactors && x != nil {
				present[j] = true
			}
		}
	}

	var valid []Row
	for _, r := range rows {
		if r.Return == nil || len(r.Exposures) != numFactors {
			continue
		}
		complete := true
		for j, x := range r.Exposures {
			if x == nil && present[j] {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		valid = append(valid, r)
	}

	if len(valid) < minRows {
		return Result{FactorReturns: make([]float64, numFactors), Insufficient: true}
	}

	n := len(valid)
	xData := make([]float64, n*numFactors)
	yData := make([]float64, n)
	weights := make([]float64, n)
	for i, r := range valid {
		for j, x := range r.Exposures {
			if x != nil {
				xData[i*numFactors+j] = *x
			}
		}
		yData[i] = *r.Return

		mv := minMarketCapFloor
		if r.MarketCap != nil && *r.MarketCap > minMarketCapFloor {
			mv = *r.MarketCap
		}
		weights[i] = math.Sqrt(mv)
	}

	X := mat.NewDense(n, numFactors, xData)
	y := mat.NewVecDense(n, yData)
	W := mat.NewDiagDense(n, weights)

	var XtW mat.Dense
	XtW.Mul(X.T(), W)

	var XtWX mat.Dense
	XtWX.Mul(&XtW, X)

	var XtWy mat.VecDense
	XtWy.MulVec(&XtW, y)

	usedRidge := false
	if !isSolvable(&XtWX, numFactors) {
		addRidge(&XtWX, numFactors, ridgeLambda)
		usedRidge = true
	}

	var f mat.VecDense
	if err := f.SolveVec(&XtWX, &XtWy); err != nil {
		if !usedRidge {
			addRidge(&XtWX, numFactors, ridgeLambda)
			usedRidge = true
			err = f.SolveVec(&XtWX, &XtWy)
		}
		if err != nil {
			// Still singular even after ridge regularization: emit zeros
			// and no residuals rather than fail the whole build.
			return Result{FactorReturns: make([]float64, numFactors), Insufficient: true, UsedRidge: usedRidge}
		}
	}

	factorReturns := make([]float64, numFactors)
	for j := 0; j < numFactors; j++ {
		factorReturns[j] = f.AtVec(j)
	}

	residuals := make(map[string]float64, n)
	for i, r := range valid {
		var pred float64
		for j := 0; j < numFactors; j++ {
			pred += X.At(i, j) * factorReturns[j]
		}
		residuals[r.Security] = yData[i] - pred
	}

	return Result{FactorReturns: factorReturns, Residuals: residuals, UsedRidge: usedRidge}
}

// isSolvable reports whether the determinant of a square matrix is
// non-zero and finite.
func isSolvable(m *mat.Dense, k int) bool {
	det := mat.Det(m)
	if math.IsNaN(det) || math.IsInf(det, 0) || det == 0 {
		return false
	}
	return true
}

func addRidge(m *mat.Dense, k int, lambda float64) {
	for i := 0; i < k; i++ {
		m.Set(i, i, m.At(i, i)+lambda)
	}
}
