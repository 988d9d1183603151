package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestHalfLifeDecay(t *testing.T) {
	lambda := HalfLifeDecay(90)
	// lambda^90 should equal 0.5 by construction
	assert.InDelta(t, 0.5, math.Pow(lambda, 90), 1e-9)
}

func TestEWMAStdConstantSeriesIsZero(t *testing.T) {
	x := []float64{1, 1, 1, 1, 1}
	s := EWMAStd(x, 90)
	assert.InDelta(t, 0.0, s, 1e-12)
}

func TestEWMAStdWeightsRecentMore(t *testing.T) {
	// a short burst of volatility at the end should move the ewma std more
	// than the same burst at the start, for a short half-life.
	tail := []float64{0, 0, 0, 0, 0, 0, 0, 0, 10, -10}
	head := []float64{10, -10, 0, 0, 0, 0, 0, 0, 0, 0}

	sTail := EWMAStd(tail, 3)
	sHead := EWMAStd(head, 3)
	assert.Greater(t, sTail, sHead)
}

func TestEWMACovarianceSymmetricPositiveDiagonal(t *testing.T) {
	data := []float64{
		1.0, 2.0,
		1.1, 2.3,
		0.9, 1.8,
		1.2, 2.1,
		1.05, 1.95,
	}
	panel := mat.NewDense(5, 2, data)

	cov, err := EWMACovariance(panel, 90)
	require.NoError(t, err)

	r, c := cov.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.InDelta(t, cov.At(0, 1), cov.At(1, 0), 1e-12)
	assert.GreaterOrEqual(t, cov.At(0, 0), 0.0)
	assert.GreaterOrEqual(t, cov.At(1, 1), 0.0)
}

func TestEWMACovarianceEmptyPanelErrors(t *testing.T) {
	panel := mat.NewDense(0, 2, nil)
	_, err := EWMACovariance(panel, 90)
	assert.Error(t, err)
}
