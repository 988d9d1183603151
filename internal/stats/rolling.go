// Package stats implements the Rolling Stats Kernel (C2): pure, stateless
// functions over finite numeric sequences. Every function here is
// deterministic and independent of iteration order, as required by the
// specification — none of them hold state across calls.
//
// Missing values are represented as a nil *float64, matching the
// convention used by internal/panel, so a rolling window can tell "no
// observation" apart from "observation was zero."
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RollingMean emits the sample mean over a trailing window of exactly
// `window` observations ending at each index, once the index has enough
// history for a full window, provided at least minValid of those
// observations are non-missing; otherwise the output at that index is
// missing. Indices without a full `window`-length lookback are always
// missing, even if enough non-missing values happen to be available.
func RollingMean(x []*float64, window, minValid int) []*float64 {
	out := make([]*float64, len(x))
	for i := range x {
		lo := i - window + 1
		if lo < 0 {
			continue
		}
		vals := nonMissing(x[lo : i+1])
		if len(vals) < minValid {
			continue
		}
		m := meanOf(vals)
		out[i] = &m
	}
	return out
}

// RollingStd emits the sample standard deviation over a trailing window of
// exactly `window` observations ending at each index, under the same
// full-window and minValid rules as RollingMean.
func RollingStd(x []*float64, window, minValid int) []*float64 {
	out := make([]*float64, len(x))
	for i := range x {
		lo := i - window + 1
		if lo < 0 {
			continue
		}
		vals := nonMissing(x[lo : i+1])
		if len(vals) < minValid {
			continue
		}
		if len(vals) < 2 {
			zero := 0.0
			out[i] = &zero
			continue
		}
		s := stat.StdDev(vals, nil)
		out[i] = &s
	}
	return out
}

// RollingBeta emits cov(stockRet, benchRet)/var(benchRet) over the `window`
// trading days strictly preceding each index (the window never includes
// the current day, matching a predictive lookback), for the two
// date-aligned return series (index i of stockRet and benchRet must refer
// to the same date). An index without a full preceding window is missing.
// A window position is also missing when the benchmark variance is zero,
// or when the fraction of jointly-valid observations in the window is
// below minValidFraction. Results are clipped to [-2, 3].
func RollingBeta(stockRet, benchRet []*float64, window int, minValidFraction float64) []*float64 {
	n := len(stockRet)
	out := make([]*float64, n)
	for i := 0; i < n; i++ {
		lo := i - window
		if lo < 0 {
			continue // not enough preceding history for a full window
		}

		var sVals, bVals []float64
		for j := lo; j < i; j++ {
			if stockRet[j] == nil || benchRet[j] == nil {
				continue
			}
			sVals = append(sVals, *stockRet[j])
			bVals = append(bVals, *benchRet[j])
		}

		if float64(len(sVals)) < float64(window)*minValidFraction {
			continue
		}

		varBench := stat.Variance(bVals, nil)
		if varBench <= 0 {
			continue
		}
		covSB := stat.Covariance(sVals, bVals, nil)
		beta := covSB / varBench
		beta = clip(beta, -2, 3)
		out[i] = &beta
	}
	return out
}

// Winsorize replaces non-finite values with missing, then clamps every
// remaining value to [quantile(lowerQ), quantile(upperQ)] of the
// non-missing population, where a quantile q of n sorted values is
// linearly interpolated at position q*(n-1) between the neighbouring order
// statistics. The quantile bounds are computed once over the
// whole input — per the specification, winsorization is applied per
// column across the full history of a security, not in a rolling window.
func Winsorize(x []*float64, lowerQ, upperQ float64) []*float64 {
	cleaned := make([]*float64, len(x))
	var vals []float64
	for i, v := range x {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		val := *v
		cleaned[i] = &val
		vals = append(vals, val)
	}
	if len(vals) == 0 {
		return cleaned
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	quantile := func(q float64) float64 {
		pos := q * float64(len(sorted)-1)
		lo, hi := int(math.Floor(pos)), int(math.Ceil(pos))
		return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
	}
	lowerBound := quantile(lowerQ)
	upperBound := quantile(upperQ)

	out := make([]*float64, len(cleaned))
	for i, v := range cleaned {
		if v == nil {
			continue
		}
		clamped := clip(*v, lowerBound, upperBound)
		out[i] = &clamped
	}
	return out
}

func nonMissing(x []*float64) []float64 {
	var out []float64
	for _, v := range x {
		if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			out = append(out, *v)
		}
	}
	return out
}

func meanOf(x []float64) float64 {
	return stat.Mean(x, nil)
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
