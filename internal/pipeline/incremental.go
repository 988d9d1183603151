package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/barramodel/internal/artifacts"
	"github.com/aristath/barramodel/internal/factors/transpose"
	"github.com/aristath/barramodel/internal/panel"
	"github.com/aristath/barramodel/internal/risk/regression"
)

// IncrementalAppend extends a previously published run with any trading
// days opened since the last publish:
//  1. find the cursor (the latest published trading day, read from the
//     persisted cursor marker so a restart never has to re-scan the whole
//     artifact directory, or the zero time if nothing has been published
//     yet)
//  2. ask the Panel Store for trading days strictly after the cursor; a
//     zero-length result is not an error, it means nothing to do
//  3. rebuild every security's exposures over its full history (factor
//     builders are not incrementally computable: rolling windows need
//     lookback beyond the new days) but only publish and regress the new
//     days, streamed and discarded one date at a time as in FullBuild
//  4. append the new days' factor returns to the published series
//  5. re-run C6 unconditionally over the full accumulated history, since
//     factor covariance and specific risk are estimated over a rolling
//     window and must reflect the newly observed days
func (o *Orchestrator) IncrementalAppend(ctx context.Context) (Report, error) {
	cursor, err := o.latestPublishedDate()
	if err != nil {
		return Report{}, fmt.Errorf("determine incremental cursor: %w", err)
	}

	newDays, err := o.store.TradingDays(ctx, cursor)
	if err != nil {
		return Report{}, fmt.Errorf("query new trading days: %w", err)
	}
	if len(newDays) == 0 {
		o.log.Info().Time("cursor", cursor).Msg("incremental append: no new trading days")
		return Report{Mode: "incremental_append"}, nil
	}
	newDaySet := make(map[int64]bool, len(newDays))
	for _, d := range newDays {
		newDaySet[d.Unix()] = true
	}

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
	var newDayResults []dayResult
	err = transpose.Stream(bySecurity, func(cs transpose.CrossSection) error {
		if !newDaySet[cs.Date.Unix()] {
			return nil
		}
		if err := o.sink.WriteCrossSection(cs); err != nil {
			return fmt.Errorf("publish cross section %s: %w", cs.Date.Format("2006-01-02"), err)
		}
		issues = append(issues, o.validator.ValidateCrossSection(cs)...)

		dr := o.regressCrossSection(cs, lookup)
		row := artifacts.FactorReturnRow{Date: dr.date, Factors: dr.result.FactorReturns}
		issues = append(issues, o.validator.ValidateFactorReturnRow(row)...)
		newDayResults = append(newDayResults, dr)
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

	issues = append(issues, o.validator.ValidateCompleteness(len(newDayResults), len(newDays), o.cfg.CompletenessTolerance)...)

	existing, err := o.sink.ReadFactorReturnSeries()
	if err != nil {
		return Report{}, fmt.Errorf("read published factor return series: %w", err)
	}
	merged := append(existing, factorReturnRowsFromResults(newDayResults)...)
	if err := o.sink.WriteFactorReturnSeries(merged); err != nil {
		return Report{}, fmt.Errorf("publish factor return series: %w", err)
	}

	allDayResults := make([]dayResult, 0, len(merged))
	for _, row := range merged {
		allDayResults = append(allDayResults, dayResult{date: row.Date, result: resultFromRow(row)})
	}

	riskIssues, err := o.estimateAndPublishRisk(allDayResults, len(securities))
	if err != nil {
		return Report{}, err
	}
	issues = append(issues, riskIssues...)

	if len(newDayResults) > 0 {
		if err := o.sink.WriteCursor(newDayResults[len(newDayResults)-1].date); err != nil {
			return Report{}, fmt.Errorf("publish cursor: %w", err)
		}
	}

	report := Report{
		Mode:          "incremental_append",
		SecuritiesIn:  len(securities),
		DaysPublished: len(newDayResults),
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
		Int("new_days", len(newDayResults)).
		Str("status", issues.Status()).
		Msg("incremental append complete")

	return report, nil
}

// latestPublishedDate returns the cursor for an incremental run. It reads
// the persisted cursor.json marker first; if none exists yet (first
// incremental run, or data published before the cursor marker was
// introduced) it falls back to scanning the published factor-return series
// for its latest date, and the zero time if nothing has been published at
// all.
func (o *Orchestrator) latestPublishedDate() (time.Time, error) {
	if date, ok, err := o.sink.ReadCursor(); err != nil {
		return time.Time{}, err
	} else if ok {
		return date, nil
	}

	rows, err := o.sink.ReadFactorReturnSeries()
	if err != nil {
		return time.Time{}, err
	}
	if len(rows) == 0 {
		return time.Time{}, nil
	}
	latest := rows[0].Date
	for _, r := range rows[1:] {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest, nil
}

// resultFromRow reconstructs a minimal regression.Result from an already
// published factor-return row, since C6 needs to re-run over the full
// accumulated history and residuals are not retained across runs.
// An all-zero row is flagged Insufficient: an insufficient day is published
// as the zero vector, and flagging it keeps it out of Step A here just as
// FullBuild keeps it out.
func resultFromRow(row artifacts.FactorReturnRow) regression.Result {
	insufficient := true
	for _, v := range row.Factors {
		if v != 0 {
			insufficient = false
			break
		}
	}
	return regression.Result{FactorReturns: row.Factors, Insufficient: insufficient}
}
