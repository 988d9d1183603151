package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestRollingMean(t *testing.T) {
	x := []*float64{ptr(1), ptr(2), ptr(3), ptr(4), ptr(5)}
	out := RollingMean(x, 3, 2)

	require.Nil(t, out[0]) // no full window yet
	require.Nil(t, out[1]) // no full window yet
	require.NotNil(t, out[2])
	assert.InDelta(t, 2.0, *out[2], 1e-9) // mean of [1,2,3]
	require.NotNil(t, out[4])
	assert.InDelta(t, 4.0, *out[4], 1e-9) // mean of [3,4,5]
}

func TestRollingMeanSkipsMissing(t *testing.T) {
	x := []*float64{ptr(1), nil, ptr(3), ptr(4)}
	out := RollingMean(x, 3, 2)
	// full window at i=2 is [1, nil, 3] -> 2 valid obs -> mean 2.0
	require.NotNil(t, out[2])
	assert.InDelta(t, 2.0, *out[2], 1e-9)
}

func TestRollingMeanRequiresFullWindowRegardlessOfMinValid(t *testing.T) {
	// exactly as many observations as the window: only the last index has a
	// full window, even though earlier indices already clear minValid.
	x := []*float64{ptr(1), ptr(2), ptr(3)}
	out := RollingMean(x, 3, 1)
	assert.Nil(t, out[0])
	assert.Nil(t, out[1])
	require.NotNil(t, out[2])
}

func TestRollingStdInsufficientWindow(t *testing.T) {
	x := []*float64{ptr(1), ptr(2)}
	out := RollingStd(x, 5, 3)
	assert.Nil(t, out[0])
	assert.Nil(t, out[1])
}

func TestRollingBetaKnownSeries(t *testing.T) {
	// stock return is exactly 2x the benchmark return every day -> beta 2.
	bench := []*float64{
		ptr(0.01), ptr(-0.02), ptr(0.015), ptr(0.005), ptr(-0.01),
		ptr(0.012), ptr(-0.007),
	}
	stock := make([]*float64, len(bench))
	for i, b := range bench {
		stock[i] = ptr(*b * 2)
	}

	out := RollingBeta(stock, bench, 5, 0.8)
	require.NotNil(t, out[5]) // window covers indices [0,5), a full 5 days
	assert.InDelta(t, 2.0, *out[5], 1e-6)
	assert.Nil(t, out[4]) // no full preceding window yet
}

func TestRollingBetaClipsExtremes(t *testing.T) {
	bench := []*float64{
		ptr(0.001), ptr(-0.002), ptr(0.0015), ptr(0.0005), ptr(-0.001), ptr(0.0012),
	}
	stock := make([]*float64, len(bench))
	for i, b := range bench {
		stock[i] = ptr(*b * 10) // beta ~10, must clip to 3
	}
	out := RollingBeta(stock, bench, 5, 0.8)
	require.NotNil(t, out[5])
	assert.LessOrEqual(t, *out[5], 3.0)
}

func TestRollingBetaInsufficientCoverage(t *testing.T) {
	bench := []*float64{ptr(0.01), nil, nil, nil, ptr(-0.01), ptr(0.02)}
	stock := []*float64{ptr(0.02), nil, nil, nil, ptr(-0.02), ptr(0.04)}
	out := RollingBeta(stock, bench, 5, 0.8)
	assert.Nil(t, out[5]) // only 2/5 valid in the preceding window, below 0.8
}

func TestWinsorizeClampsTails(t *testing.T) {
	x := []*float64{ptr(-100), ptr(1), ptr(2), ptr(3), ptr(4), ptr(5), ptr(100)}
	out := Winsorize(x, 0.10, 0.90)

	require.NotNil(t, out[0])
	require.NotNil(t, out[6])
	assert.Less(t, *out[0], -1.0) // clamped up from -100, but still below the rest
	assert.Less(t, *out[6], 100.0)
	assert.Greater(t, *out[6], 4.0)
}

func TestWinsorizeDropsNonFinite(t *testing.T) {
	x := []*float64{ptr(1), ptr(2), nil, ptr(3)}
	out := Winsorize(x, 0.0, 1.0)
	assert.Nil(t, out[2])
	assert.NotNil(t, out[0])
}
