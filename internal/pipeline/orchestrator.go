// Package pipeline implements the Pipeline Orchestrator (C7): wiring the
// Panel Store, Exposure Builder, Panel Transposer, Cross-Sectional
// Regressor, Risk Estimator, and Artifact Sink/Validator into the two
// execution modes named by the specification — full build and
// incremental append.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/barramodel/internal/artifacts"
	"github.com/aristath/barramodel/internal/config"
	"github.com/aristath/barramodel/internal/factors"
	"github.com/aristath/barramodel/internal/factors/transpose"
	"github.com/aristath/barramodel/internal/panel"
	"github.com/aristath/barramodel/internal/risk"
	"github.com/aristath/barramodel/internal/risk/regression"
	"github.com/aristath/barramodel/internal/work"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Orchestrator runs a full build or an incremental append against a
// configured Panel Store and Artifact Sink. It holds no state between
// Run calls other than its collaborators — at-most-one-writer-per-key is
// guaranteed by always building each artifact fully in the main
// goroutine from worker-produced results, never from concurrent writers.
type Orchestrator struct {
	cfg       *config.Config
	store     panel.Store
	sink      *artifacts.Sink
	validator *artifacts.Validator
	builder   *factors.Builder
	estimator *risk.Estimator
	pool      *work.Pool
	log       zerolog.Logger
}

// New wires an Orchestrator from a loaded configuration and a Panel
// Store.
func New(cfg *config.Config, store panel.Store, log zerolog.Logger) *Orchestrator {
	builderCfg := factors.BuilderConfig{
		BetaWindow:             cfg.BetaWindow,
		BetaMinValidFraction:   cfg.BetaMinValidFrac,
		MomentumShort:          cfg.MomentumShort,
		MomentumLong:           cfg.MomentumLong,
		VolatilityWindow:       cfg.VolatilityWindow,
		VolatilityMinValid:     cfg.VolatilityMinValid,
		WinsorizeLowerQuantile: cfg.WinsorizeLowerQuantile,
		WinsorizeUpperQuantile: cfg.WinsorizeUpperQuantile,
	}
	for _, w := range cfg.LiquidityWindows {
		builderCfg.LiquidityWindows = append(builderCfg.LiquidityWindows, factors.LiquidityWindow{
			Window: w.Window, MinValid: w.MinValid, Weight: w.Weight,
		})
	}

	estimatorCfg := risk.EstimatorConfig{
		HalfLife:           cfg.HalfLife,
		SpecificRiskWindow: cfg.EstimationWindow,
		SpecificRiskFloor:  cfg.SpecificRiskFloor,
		SpecificRiskCap:    cfg.SpecificRiskCap,
	}

	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		sink:      artifacts.NewSink(cfg.ArtifactDir),
		validator: artifacts.NewValidator(),
		builder:   factors.NewBuilder(builderCfg),
		estimator: risk.NewEstimator(estimatorCfg),
		pool:      work.NewPool(cfg.DegreeOfParallelism),
		log:       log.With().Str("component", "pipeline_orchestrator").Logger(),
	}
}

// Report summarizes one orchestrator run for the caller (CLI, scheduler).
type Report struct {
	Mode          string // "full_build" or "incremental_append"
	SecuritiesIn  int
	DaysPublished int
	Issues        artifacts.IssueList
}

// Status reports "clean", "with warnings", or "aborted" following the
// error-taxonomy propagation policy (§7): only a non-nil error here means
// "aborted"; everything else resolves through Issues.
func (r Report) Status() string {
	return r.Issues.Status()
}

// buildExposures runs C3 across every security in parallel, using the
// pre-warmed cache so no worker touches the Panel Store directly.
func (o *Orchestrator) buildExposures(ctx context.Context, cache *panel.Cache, securities []string) map[string][]factors.Exposure {
	benchmark := cache.BenchmarkHistory()
	results := work.Map(ctx, o.pool, securities, func(ctx context.Context, security string) []factors.Exposure {
		history := cache.PriceHistory(security)
		industry := factors.ParseIndustryTag(cache.Industry(security))
		return o.builder.Build(security, history, industry, benchmark)
	})

	out := make(map[string][]factors.Exposure, len(securities))
	for i, security := range securities {
		if results[i] != nil {
			out[security] = results[i]
		}
	}
	return out
}

// regressCrossSection runs C5 for a single cross section. It is called
// inline from transpose.Stream's emit callback rather than fanned out
// across a pre-collected slice: C4 only ever holds one CrossSection at a
// time, so regressing it before the next one is produced keeps the
// streaming memory bound intact end to end rather than reintroducing an
// O(dates) buffer one layer up.
func (o *Orchestrator) regressCrossSection(cs transpose.CrossSection, lookup dailyLookup) dayResult {
	rows := make([]regression.Row, 0, len(cs.Rows))
	for _, e := range cs.Rows {
		var ret, mv *float64
		if obs, ok := lookup[e.Security][cs.Date.Unix()]; ok {
			ret = obs.PctChange
			mv = obs.TotalMarketValue
		}
		rows = append(rows, regression.Row{
			Security:  e.Security,
			Exposures: e.FullVector(),
			Return:    ret,
			MarketCap: mv,
		})
	}
	result := regression.Regress(rows, len(artifacts.FactorColumns()), o.cfg.RidgeLambda, o.cfg.MinimumStocksForRegression)
	return dayResult{date: cs.Date, result: result}
}

// dayResult pairs one trading day with its regression outcome.
type dayResult struct {
	date   time.Time
	result regression.Result
}

// dailyLookup is a per-security, per-date index into that security's
// price history, built once in the main goroutine before the cross
// sections are streamed, so C5 never touches the Panel Store.
type dailyLookup map[string]map[int64]panel.PriceObservation

func buildDailyLookup(cache *panel.Cache, securities []string) dailyLookup {
	out := make(dailyLookup, len(securities))
	for _, security := range securities {
		history := cache.PriceHistory(security)
		byDate := make(map[int64]panel.PriceObservation, len(history))
		for _, obs := range history {
			byDate[obs.Date.Unix()] = obs
		}
		out[security] = byDate
	}
	return out
}

// estimateAndPublishRisk runs C6 over every day's regression result (Step
// A drops days marked insufficient, since a zero factor-return vector
// would otherwise bias the covariance estimate), runs Step B over the
// accumulated residuals, and publishes the specific-risk file and the
// risk-parameters document. It returns the accumulated validation issues.
func (o *Orchestrator) estimateAndPublishRisk(dayResults []dayResult, numSecurities int) (artifacts.IssueList, error) {
	var issues artifacts.IssueList

	numFactors := len(artifacts.FactorColumns())
	var denseRows [][]float64
	residualsBySecurity := make(map[string][]float64)

	for _, dr := range dayResults {
		if !dr.result.Insufficient {
			denseRows = append(denseRows, dr.result.FactorReturns)
		}
		for security, residual := range dr.result.Residuals {
			residualsBySecurity[security] = append(residualsBySecurity[security], residual)
		}
	}

	var cov *mat.Dense
	var volatility []float64
	var estimationDate string
	if len(dayResults) > 0 {
		estimationDate = dayResults[len(dayResults)-1].date.Format("2006-01-02")
	}

	if len(denseRows) > 0 {
		flat := make([]float64, 0, len(denseRows)*numFactors)
		for _, row := range denseRows {
			flat = append(flat, row...)
		}
		panelMatrix := mat.NewDense(len(denseRows), numFactors, flat)

		var err error
		cov, volatility, _, err = o.estimator.EstimateFactorRisk(panelMatrix)
		if err != nil {
			return nil, fmt.Errorf("estimate factor risk: %w", err)
		}
		issues = append(issues, o.validator.ValidateCovariance(cov)...)
	}

	specificRisk := o.estimator.EstimateSpecificRisk(residualsBySecurity)
	issues = append(issues, o.validator.ValidateSpecificRisk(specificRisk, o.cfg.SpecificRiskFloor, o.cfg.SpecificRiskCap)...)

	if err := o.sink.WriteSpecificRisk(specificRisk); err != nil {
		return nil, fmt.Errorf("publish specific risk: %w", err)
	}

	if cov != nil {
		doc := buildRiskParametersDocument(estimationDate, o.cfg, cov, volatility, specificRisk, numSecurities)
		if err := o.sink.WriteRiskParameters(doc); err != nil {
			return nil, fmt.Errorf("publish risk parameters: %w", err)
		}
	}

	return issues, nil
}

func buildRiskParametersDocument(estimationDate string, cfg *config.Config, cov *mat.Dense, volatility []float64, specificRisk map[string]float64, numSecurities int) artifacts.RiskParameters {
	names := artifacts.FactorColumns()
	covMap := make(map[string]map[string]float64, len(names))
	for i, a := range names {
		row := make(map[string]float64, len(names))
		for j, b := range names {
			row[b] = cov.At(i, j)
		}
		covMap[a] = row
	}
	volMap := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(volatility) {
			volMap[name] = volatility[i]
		}
	}

	return artifacts.RiskParameters{
		EstimationDate:   estimationDate,
		EstimationWindow: cfg.EstimationWindow,
		HalfLife:         cfg.HalfLife,
		NumFactors:       len(names),
		NumStocks:        numSecurities,
		FactorCovariance: covMap,
		FactorVolatility: volMap,
		SpecificRisk:     specificRisk,
	}
}

func factorReturnRowsFromResults(dayResults []dayResult) []artifacts.FactorReturnRow {
	out := make([]artifacts.FactorReturnRow, 0, len(dayResults))
	for _, dr := range dayResults {
		out = append(out, artifacts.FactorReturnRow{Date: dr.date, Factors: dr.result.FactorReturns})
	}
	return out
}
