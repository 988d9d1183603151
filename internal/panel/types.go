// Package panel implements the read-only Panel Store (C1): lookups into
// price, valuation, industry, and trade-calendar data keyed by security and
// date. The panel is an external collaborator — it is never mutated by the
// pipeline — modeled here as a thin query layer over the sqlite database in
// internal/store.
package panel

import (
	"math"
	"time"
)

// PriceObservation is one (security, date) row of daily market data. Prices
// and ratios may be missing (nil); a zero or negative denominator must be
// treated by callers as missing, never as a valid zero/negative factor
// value.
type PriceObservation struct {
	Date             time.Time
	Close            *float64
	PctChange        *float64
	TurnoverRate     *float64
	TotalMarketValue *float64
	PriceToBook      *float64
	TrailingPE       *float64
}

// LogReturn derives the log return between this observation and the
// previous one. Returns nil when either close is missing or non-positive.
func LogReturn(prev, curr PriceObservation) *float64 {
	if prev.Close == nil || curr.Close == nil {
		return nil
	}
	if *prev.Close <= 0 || *curr.Close <= 0 {
		return nil
	}
	r := math.Log(*curr.Close) - math.Log(*prev.Close)
	return &r
}

// BenchmarkObservation is one (date) row of the market-wide benchmark
// index, used for the beta factor.
type BenchmarkObservation struct {
	Date  time.Time
	Close *float64
}
