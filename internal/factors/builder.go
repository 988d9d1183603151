package factors

import (
	"math"
	"sort"

	"github.com/aristath/barramodel/internal/panel"
	"github.com/aristath/barramodel/internal/stats"
)

// LiquidityWindow configures one leg of the blended liquidity factor.
type LiquidityWindow struct {
	Window   int
	MinValid int
	Weight   float64
}

// BuilderConfig carries every tunable named in the style-factor table plus
// the winsorization quantiles applied to each security's own history.
type BuilderConfig struct {
	BetaWindow             int
	BetaMinValidFraction   float64
	MomentumShort          int
	MomentumLong           int
	VolatilityWindow       int
	VolatilityMinValid     int
	LiquidityWindows       []LiquidityWindow
	WinsorizeLowerQuantile float64
	WinsorizeUpperQuantile float64
}

// Builder computes the exposure time series for one security at a time
// (C3). It is stateless and safe to share across worker goroutines: all
// mutable state lives in the arguments and return value of Build.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder constructs a Builder with the given configuration.
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build computes the full exposure series for a security, given its price
// history, its resolved industry tag, and the benchmark series (already
// available from the pre-warmed panel cache). Securities with fewer
// observations than the longest rolling window (the largest of
// MomentumLong, BetaWindow and VolatilityWindow) are excluded entirely,
// returning a nil slice.
func (b *Builder) Build(security string, history []panel.PriceObservation, industry IndustryTag, benchmark []panel.BenchmarkObservation) []Exposure {
	longest := b.cfg.MomentumLong
	if b.cfg.BetaWindow > longest {
		longest = b.cfg.BetaWindow
	}
	if b.cfg.VolatilityWindow > longest {
		longest = b.cfg.VolatilityWindow
	}
	if len(history) < longest {
		return nil
	}

	n := len(history)
	logReturn := make([]*float64, n)
	for i := 1; i < n; i++ {
		logReturn[i] = panel.LogReturn(history[i-1], history[i])
	}

	benchReturn := alignBenchmarkReturns(history, benchmark)

	size := make([]*float64, n)
	nonLinearSize := make([]*float64, n)
	bookToPrice := make([]*float64, n)
	earningsYield := make([]*float64, n)
	for i, obs := range history {
		if obs.TotalMarketValue != nil && *obs.TotalMarketValue > 0 {
			s := math.Log(*obs.TotalMarketValue)
			size[i] = &s
			nls := s * s * s
			nonLinearSize[i] = &nls
		}
		if obs.PriceToBook != nil && *obs.PriceToBook > 0 {
			v := 1.0 / *obs.PriceToBook
			bookToPrice[i] = &v
		}
		if obs.TrailingPE != nil && *obs.TrailingPE > 0 {
			v := 1.0 / *obs.TrailingPE
			earningsYield[i] = &v
		}
	}

	var beta []*float64
	if len(benchmark) == 0 {
		beta = make([]*float64, n)
		for i := range beta {
			one := 1.0
			beta[i] = &one
		}
	} else {
		beta = stats.RollingBeta(logReturn, benchReturn, b.cfg.BetaWindow, b.cfg.BetaMinValidFraction)
	}

	volatility := stats.RollingStd(logReturn, b.cfg.VolatilityWindow, b.cfg.VolatilityMinValid)
	momentum := b.momentum(history)
	liquidity := b.liquidity(history)

	exposures := make([]Exposure, n)
	for i, obs := range history {
		exposures[i] = Exposure{
			Security:      security,
			Date:          obs.Date,
			Size:          size[i],
			Beta:          beta[i],
			Momentum:      momentum[i],
			Volatility:    volatility[i],
			NonLinearSize: nonLinearSize[i],
			BookToPrice:   bookToPrice[i],
			Liquidity:     liquidity[i],
			EarningsYield: earningsYield[i],
			Growth:        nil,
			Leverage:      nil,
			Industry:      industry,
		}
	}

	b.winsorizeColumns(exposures)
	return exposures
}

// momentum computes the close at the start of the momentumShort-session
// window ending at t over the close at the start of the momentumLong-session
// window ending at t, minus 1 (a w-session window ending at index i starts
// at index i-w+1, as in the rolling statistics). Missing wherever either
// close is unavailable or history is shorter than a full long window.
func (b *Builder) momentum(history []panel.PriceObservation) []*float64 {
	n := len(history)
	out := make([]*float64, n)
	for i := b.cfg.MomentumLong - 1; i < n; i++ {
		shortObs := history[i-b.cfg.MomentumShort+1]
		longObs := history[i-b.cfg.MomentumLong+1]
		if shortObs.Close == nil || longObs.Close == nil || *longObs.Close == 0 {
			continue
		}
		m := *shortObs.Close / *longObs.Close - 1
		out[i] = &m
	}
	return out
}

// liquidity blends rolling mean turnover across the configured windows.
func (b *Builder) liquidity(history []panel.PriceObservation) []*float64 {
	n := len(history)
	turnover := make([]*float64, n)
	for i, obs := range history {
		turnover[i] = obs.TurnoverRate
	}

	legs := make([][]*float64, len(b.cfg.LiquidityWindows))
	for li, w := range b.cfg.LiquidityWindows {
		legs[li] = stats.RollingMean(turnover, w.Window, w.MinValid)
	}

	out := make([]*float64, n)
	for i := 0; i < n; i++ {
		var sum, weightSum float64
		complete := true
		for li, w := range b.cfg.LiquidityWindows {
			v := legs[li][i]
			if v == nil {
				complete = false
				break
			}
			sum += w.Weight * *v
			weightSum += w.Weight
		}
		if !complete || weightSum == 0 {
			continue
		}
		val := sum / weightSum
		out[i] = &val
	}
	return out
}

// winsorizeColumns applies per-column winsorization over each security's
// own full history, in place, replacing each Exposure's style values.
func (b *Builder) winsorizeColumns(exposures []Exposure) {
	n := len(exposures)
	if n == 0 {
		return
	}
	numStyle := len(StyleFactorNames)
	columns := make([][]*float64, numStyle)
	for col := 0; col < numStyle; col++ {
		columns[col] = make([]*float64, n)
	}
	for i, e := range exposures {
		vals := e.StyleValues()
		for col := 0; col < numStyle; col++ {
			columns[col][i] = vals[col]
		}
	}
	for col := 0; col < numStyle; col++ {
		columns[col] = stats.Winsorize(columns[col], b.cfg.WinsorizeLowerQuantile, b.cfg.WinsorizeUpperQuantile)
	}
	for i := range exposures {
		vals := make([]*float64, numStyle)
		for col := 0; col < numStyle; col++ {
			vals[col] = columns[col][i]
		}
		exposures[i].SetStyleValues(vals)
	}
}

// alignBenchmarkReturns produces a benchmark log-return series indexed
// identically to history, by joining on trade date. Dates absent from the
// benchmark series resolve to missing.
func alignBenchmarkReturns(history []panel.PriceObservation, benchmark []panel.BenchmarkObservation) []*float64 {
	n := len(history)
	out := make([]*float64, n)
	if len(benchmark) == 0 {
		return out
	}

	byDate := make(map[int64]panel.BenchmarkObservation, len(benchmark))
	for _, b := range benchmark {
		byDate[b.Date.Unix()] = b
	}

	sorted := append([]panel.BenchmarkObservation(nil), benchmark...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	prevByDate := make(map[int64]panel.BenchmarkObservation, len(sorted))
	for i := 1; i < len(sorted); i++ {
		prevByDate[sorted[i].Date.Unix()] = sorted[i-1]
	}

	for i, obs := range history {
		curr, ok := byDate[obs.Date.Unix()]
		if !ok || curr.Close == nil {
			continue
		}
		prev, ok := prevByDate[obs.Date.Unix()]
		if !ok || prev.Close == nil || *prev.Close <= 0 || *curr.Close <= 0 {
			continue
		}
		r := math.Log(*curr.Close) - math.Log(*prev.Close)
		out[i] = &r
	}
	return out
}
