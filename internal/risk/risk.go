// Package risk implements the Risk Estimator (C6): the EWMA factor
// covariance matrix with a positive-definiteness repair, and per-security
// specific risk from regression residuals.
package risk

import (
	"fmt"
	"math"

	"github.com/aristath/barramodel/internal/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// EstimatorConfig carries the tunables named in the specification's
// configuration table that this component consumes.
type EstimatorConfig struct {
	HalfLife             float64
	SpecificRiskWindow   int
	SpecificRiskFloor    float64
	SpecificRiskCap      float64
}

// Estimator computes the factor-risk model for one estimation date. It
// holds no state across calls.
type Estimator struct {
	cfg EstimatorConfig
}

// NewEstimator builds an Estimator with the given configuration.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	return &Estimator{cfg: cfg}
}

// Model is the published output of one risk estimation.
type Model struct {
	// FactorCovariance is the 40x40 symmetric positive definite EWMA
	// covariance matrix.
	FactorCovariance *mat.Dense
	// FactorVolatility is the per-factor annualized volatility, derived
	// from the diagonal of the non-EWMA sample covariance.
	FactorVolatility []float64
	// SpecificRisk maps security -> idiosyncratic volatility, clipped to
	// [SpecificRiskFloor, SpecificRiskCap]. Securities with no residual
	// history are absent, never defaulted.
	SpecificRisk map[string]float64
	// EigenvalueLifted is true when Step A's positive-definiteness repair
	// was applied.
	EigenvalueLifted bool
}

// EstimateFactorRisk runs Step A of the risk model: the EWMA factor
// covariance with an eigenvalue floor repair, plus the reporting
// volatility vector. factorReturns is T rows (dates, ascending) by K
// factor columns; rows with any missing value must already be dropped by
// the caller.
func (e *Estimator) EstimateFactorRisk(factorReturns *mat.Dense) (*mat.Dense, []float64, bool, error) {
	t, k := factorReturns.Dims()
	if t == 0 {
		return nil, nil, false, fmt.Errorf("estimate factor risk: no dated factor returns available")
	}

	cov, err := stats.EWMACovariance(factorReturns, e.cfg.HalfLife)
	if err != nil {
		return nil, nil, false, fmt.Errorf("estimate factor risk: %w", err)
	}

	lifted := liftToPositiveDefinite(cov, k)

	volatility := make([]float64, k)
	for col := 0; col < k; col++ {
		column := mat.Col(nil, col, factorReturns)
		volatility[col] = math.Sqrt(252) * stat.StdDev(column, nil)
	}

	return cov, volatility, lifted, nil
}

// liftToPositiveDefinite applies F <- F + (|mu|+1e-6)*I whenever the
// smallest eigenvalue mu of the symmetric matrix F is <= 0. Reports
// whether the lift was applied.
func liftToPositiveDefinite(cov *mat.Dense, k int) bool {
	sym := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			v := cov.At(i, j)
			sym.SetSym(i, j, v)
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(sym, false)
	if !ok {
		// Factorization failure is itself evidence of an ill-conditioned
		// matrix; treat the smallest eigenvalue as non-positive and lift.
		applyLift(cov, k, 0)
		return true
	}

	values := eig.Values(nil)
	minEig := values[0]
	for _, v := range values {
		if v < minEig {
			minEig = v
		}
	}

	if minEig > 0 {
		return false
	}
	applyLift(cov, k, minEig)
	return true
}

// applyLift adds (|minEig|+1e-6) to the diagonal. minEig is never positive
// here, so the sum is formed as (F_ii - minEig) + 1e-6: a diagonal entry
// equal to minEig then lands on exactly 1e-6 instead of a rounding error
// below it.
func applyLift(cov *mat.Dense, k int, minEig float64) {
	for i := 0; i < k; i++ {
		cov.Set(i, i, (cov.At(i, i)-minEig)+1e-6)
	}
}

// EstimateSpecificRisk runs Step B: per-security idiosyncratic volatility
// from each security's residual series (most recent observation last).
// Securities with no residuals are absent from the result.
func (e *Estimator) EstimateSpecificRisk(residualsBySecurity map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(residualsBySecurity))
	for security, residuals := range residualsBySecurity {
		if len(residuals) == 0 {
			continue
		}

		var raw float64
		if len(residuals) >= e.cfg.SpecificRiskWindow {
			raw = stats.EWMAStd(residuals, e.cfg.HalfLife)
		} else {
			raw = stat.StdDev(residuals, nil)
		}

		out[security] = clip(raw, e.cfg.SpecificRiskFloor, e.cfg.SpecificRiskCap)
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
