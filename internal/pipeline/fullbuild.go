package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/barramodel/internal/artifacts"
	"github.com/aristath/barramodel/internal/factors/transpose"
	"github.com/aristath/barramodel/internal/panel"
)

// FullBuild runs the complete pipeline from a cold Panel Store:
//  1. enumerate every security with a price history
//  2. build factor exposures for each security in parallel (C3)
//  3. stream per-security exposures into dated cross sections one date at
//     a time, publishing and regressing each as it is produced (C4, C5)
//  4. estimate and publish factor covariance, factor volatility, and
//     specific risk (C6)
//  5. validate every published artifact, persist a validation report and
//     the incremental cursor marker, and return the accumulated issues
//     (C8)
func (o *Orchestrator) FullBuild(ctx context.Context) (Report, error) {
	securities, err := o.store.Securities(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("enumerate securities: %w", err)
	}

	cache := panel.NewCache(o.store, o.log)
	if err := cache.Warm(ctx, securities); err != nil {
		return Report{}, fmt.Errorf("warm panel cache: %w", err)
	}

	bySecurity := o.buildExposures(ctx, cache, securities)
	lookup := buildDailyLookup(cache, securities)

	var issues artifacts.IssueList
	var dayResults []dayResult
	err = transpose.Stream(bySecurity, func(cs transpose.CrossSection) error {
		if err := o.sink.WriteCrossSection(cs); err != nil {
			return fmt.Errorf("publish cross section %s: %w", cs.Date.Format("2006-01-02"), err)
		}
		issues = append(issues, o.validator.ValidateCrossSection(cs)...)

		dr := o.regressCrossSection(cs, lookup)
		row := artifacts.FactorReturnRow{Date: dr.date, Factors: dr.result.FactorReturns}
		issues = append(issues, o.validator.ValidateFactorReturnRow(row)...)
		dayResults = append(dayResults, dr)
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	for security, rows := range bySecurity {
		if err := o.sink.WriteExposures(security, rows); err != nil {
			return Report{}, fmt.Errorf("publish exposures for %s: %w", security, err)
		}
	}

	tradingDays, err := o.store.TradingDays(ctx, time.Time{})
	if err != nil {
		return Report{}, fmt.Errorf("query trading days: %w", err)
	}
	issues = append(issues, o.validator.ValidateCompleteness(len(dayResults), len(tradingDays), o.cfg.CompletenessTolerance)...)

	if err := o.sink.WriteFactorReturnSeries(factorReturnRowsFromResults(dayResults)); err != nil {
		return Report{}, fmt.Errorf("publish factor return series: %w", err)
	}

	riskIssues, err := o.estimateAndPublishRisk(dayResults, len(securities))
	if err != nil {
		return Report{}, err
	}
	issues = append(issues, riskIssues...)

	if len(dayResults) > 0 {
		if err := o.sink.WriteCursor(dayResults[len(dayResults)-1].date); err != nil {
			return Report{}, fmt.Errorf("publish cursor: %w", err)
		}
	}

	report := Report{
		Mode:          "full_build",
		SecuritiesIn:  len(securities),
		DaysPublished: len(dayResults),
		Issues:        issues,
	}
	if err := o.sink.WriteValidationReport(artifacts.ValidationReport{
		RunMode: report.Mode,
		Status:  report.Status(),
		Issues:  issues,
	}); err != nil {
		return Report{}, fmt.Errorf("publish validation report: %w", err)
	}

	o.log.Info().
		Int("securities", len(securities)).
		Int("days", len(dayResults)).
		Str("status", issues.Status()).
		Msg("full build complete")

	return report, nil
}
