package factors

import (
	"testing"
	"time"

	"github.com/aristath/barramodel/internal/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func defaultConfig() BuilderConfig {
	return BuilderConfig{
		BetaWindow:           252,
		BetaMinValidFraction: 0.8,
		MomentumShort:        21,
		MomentumLong:         252,
		VolatilityWindow:     252,
		VolatilityMinValid:   126,
		LiquidityWindows: []LiquidityWindow{
			{Window: 21, MinValid: 10, Weight: 0.35},
			{Window: 63, MinValid: 42, Weight: 0.35},
			{Window: 252, MinValid: 126, Weight: 0.30},
		},
		WinsorizeLowerQuantile: 0.01,
		WinsorizeUpperQuantile: 0.99,
	}
}

func syntheticHistory(n int) []panel.PriceObservation {
	out := make([]panel.PriceObservation, n)
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 10.0
	for i := 0; i < n; i++ {
		price *= 1.0005
		mv := 1e9 + float64(i)*1e5
		turnover := 0.01 + 0.001*float64(i%5)
		ptb := 2.0
		pe := 15.0
		out[i] = panel.PriceObservation{
			Date:             base.AddDate(0, 0, i),
			Close:            fp(price),
			TotalMarketValue: fp(mv),
			TurnoverRate:     fp(turnover),
			PriceToBook:      fp(ptb),
			TrailingPE:       fp(pe),
		}
	}
	return out
}

func TestBuildExcludesShortHistory(t *testing.T) {
	b := NewBuilder(defaultConfig())
	history := syntheticHistory(100)
	out := b.Build("000001.SZ", history, IndustryBanking, nil)
	assert.Nil(t, out)
}

func TestBuildExactly252ObservationsYieldsOneMomentumAndVolatilityRow(t *testing.T) {
	b := NewBuilder(defaultConfig())
	history := syntheticHistory(252)
	out := b.Build("000001.SZ", history, IndustryBanking, nil)
	require.Len(t, out, 252)

	momentumCount, volCount := 0, 0
	for _, e := range out {
		if e.Momentum != nil {
			momentumCount++
		}
		if e.Volatility != nil {
			volCount++
		}
	}
	assert.Equal(t, 1, momentumCount)
	assert.Equal(t, 1, volCount)
	require.NotNil(t, out[251].Momentum)
	require.NotNil(t, out[251].Volatility)
}

func TestBuildIndustryOneHotSumsToOne(t *testing.T) {
	tag := IndustryComputers
	oneHot := tag.OneHot()
	var sum float64
	for _, v := range oneHot {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestBuildSizeMissingForZeroMarketValue(t *testing.T) {
	b := NewBuilder(defaultConfig())
	history := syntheticHistory(252)
	zero := 0.0
	history[251].TotalMarketValue = &zero
	out := b.Build("000001.SZ", history, IndustryBanking, nil)
	require.Len(t, out, 252)
	assert.Nil(t, out[251].Size)
	assert.Nil(t, out[251].NonLinearSize)
}

func TestBuildBetaDefaultsToOneWithNoBenchmark(t *testing.T) {
	b := NewBuilder(defaultConfig())
	history := syntheticHistory(260)
	out := b.Build("000001.SZ", history, IndustryBanking, nil)
	require.NotEmpty(t, out)
	for _, e := range out {
		require.NotNil(t, e.Beta)
		assert.InDelta(t, 1.0, *e.Beta, 1e-12)
	}
}

func TestBuildWinsorizationBoundsEachColumn(t *testing.T) {
	b := NewBuilder(defaultConfig())
	history := syntheticHistory(300)
	// inject a single extreme market-value outlier to be clamped.
	history[299].TotalMarketValue = fp(1e20)
	out := b.Build("000001.SZ", history, IndustryBanking, nil)
	require.Len(t, out, 300)

	var sizes []float64
	for _, e := range out {
		if e.Size != nil {
			sizes = append(sizes, *e.Size)
		}
	}
	require.NotEmpty(t, sizes)
	max := sizes[0]
	for _, s := range sizes {
		if s > max {
			max = s
		}
	}
	// the extreme outlier's raw ln(1e20) ~= 46 must have been clamped well
	// below that by the 99th-percentile winsorization bound.
	assert.Less(t, max, 30.0)
}

func TestBuildGrowthAndLeverageAlwaysMissing(t *testing.T) {
	b := NewBuilder(defaultConfig())
	history := syntheticHistory(252)
	out := b.Build("000001.SZ", history, IndustryBanking, nil)
	for _, e := range out {
		assert.Nil(t, e.Growth)
		assert.Nil(t, e.Leverage)
	}
}

func TestIndustryTagStringRoundTrip(t *testing.T) {
	for i := 0; i < NumIndustries; i++ {
		tag := IndustryTag(i)
		parsed := ParseIndustryTag(tag.String())
		assert.Equal(t, tag, parsed)
	}
}

func TestParseIndustryTagFallsBackToComprehensive(t *testing.T) {
	assert.Equal(t, IndustryComprehensive, ParseIndustryTag("not_a_real_tag"))
}
