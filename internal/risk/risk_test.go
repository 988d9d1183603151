package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// Scenario C — covariance lift: a synthetic covariance matrix with
// eigenvalues [1.0, 0.5, -0.01] must end up with its smallest eigenvalue
// at or above 1e-6 after the repair.
func TestLiftToPositiveDefiniteRepairsNonPositiveEigenvalue(t *testing.T) {
	cov := mat.NewDense(3, 3, []float64{
		1.0, 0, 0,
		0, 0.5, 0,
		0, 0, -0.01,
	})

	lifted := liftToPositiveDefinite(cov, 3)
	require.True(t, lifted)

	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, cov.At(i, j))
		}
	}
	var eig mat.EigenSym
	ok := eig.Factorize(sym, false)
	require.True(t, ok)
	values := eig.Values(nil)
	minEig := values[0]
	for _, v := range values {
		if v < minEig {
			minEig = v
		}
	}
	assert.GreaterOrEqual(t, minEig, 1e-6)
}

func TestLiftToPositiveDefiniteNoOpWhenAlreadyPositive(t *testing.T) {
	cov := mat.NewDense(2, 2, []float64{
		2.0, 0.1,
		0.1, 1.5,
	})
	lifted := liftToPositiveDefinite(cov, 2)
	assert.False(t, lifted)
	assert.InDelta(t, 2.0, cov.At(0, 0), 1e-12)
}

func TestEstimateFactorRiskProducesSymmetricMatrix(t *testing.T) {
	e := NewEstimator(EstimatorConfig{HalfLife: 90, SpecificRiskWindow: 252, SpecificRiskFloor: 0.01, SpecificRiskCap: 0.10})

	data := []float64{
		0.01, 0.02,
		-0.01, 0.01,
		0.02, -0.015,
		0.005, 0.005,
		-0.002, 0.012,
	}
	panel := mat.NewDense(5, 2, data)

	cov, vol, _, err := e.EstimateFactorRisk(panel)
	require.NoError(t, err)
	require.Len(t, vol, 2)
	assert.InDelta(t, cov.At(0, 1), cov.At(1, 0), 1e-9)
}

func TestEstimateSpecificRiskClipsToBounds(t *testing.T) {
	e := NewEstimator(EstimatorConfig{HalfLife: 90, SpecificRiskWindow: 5, SpecificRiskFloor: 0.01, SpecificRiskCap: 0.10})

	longSeries := make([]float64, 10)
	for i := range longSeries {
		longSeries[i] = 0.001 * float64(i%3)
	}
	shortSeries := []float64{0.2, -0.2, 0.3}

	result := e.EstimateSpecificRisk(map[string][]float64{
		"LONG":  longSeries,
		"SHORT": shortSeries,
	})

	require.Contains(t, result, "LONG")
	require.Contains(t, result, "SHORT")
	assert.GreaterOrEqual(t, result["LONG"], 0.01)
	assert.LessOrEqual(t, result["LONG"], 0.10)
	assert.LessOrEqual(t, result["SHORT"], 0.10) // a wild 3-point series clipped to the cap
}

func TestEstimateSpecificRiskOmitsSecuritiesWithNoResiduals(t *testing.T) {
	e := NewEstimator(EstimatorConfig{HalfLife: 90, SpecificRiskWindow: 252, SpecificRiskFloor: 0.01, SpecificRiskCap: 0.10})
	result := e.EstimateSpecificRisk(map[string][]float64{
		"EMPTY": {},
	})
	assert.NotContains(t, result, "EMPTY")
}
