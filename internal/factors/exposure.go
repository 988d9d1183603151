// Package factors implements the Exposure Builder (C3) and, in its
// transpose subpackage, the Panel Transposer (C4): turning a security's
// price/valuation history into a dated series of style-factor and
// industry-dummy exposures.
package factors

import "time"

// StyleFactorNames is the fixed column order of the 10 style factors, as
// they appear in every downstream artifact.
var StyleFactorNames = []string{
	"size", "beta", "momentum", "volatility", "non_linear_size",
	"book_to_price", "liquidity", "earnings_yield", "growth", "leverage",
}

// Exposure is one (security, date) row of factor exposures. Style factors
// may be missing (nil); Industry is always set (falling back to
// IndustryComprehensive). growth and leverage are always missing in this
// implementation — the panel carries no fundamentals wide enough to
// compute them — but the columns stay present so downstream components
// uniformly skip missing columns rather than special-casing two factors.
type Exposure struct {
	Security string
	Date     time.Time

	Size          *float64
	Beta          *float64
	Momentum      *float64
	Volatility    *float64
	NonLinearSize *float64
	BookToPrice   *float64
	Liquidity     *float64
	EarningsYield *float64
	Growth        *float64
	Leverage      *float64

	Industry IndustryTag
}

// StyleValues returns the 10 style factors in StyleFactorNames order, for
// code that needs a uniform slice view (winsorization, matrix assembly).
func (e Exposure) StyleValues() []*float64 {
	return []*float64{
		e.Size, e.Beta, e.Momentum, e.Volatility, e.NonLinearSize,
		e.BookToPrice, e.Liquidity, e.EarningsYield, e.Growth, e.Leverage,
	}
}

// SetStyleValues writes back the 10 style factors in StyleFactorNames
// order; used after a column-wise winsorization pass replaces each
// factor's series in place.
func (e *Exposure) SetStyleValues(v []*float64) {
	e.Size, e.Beta, e.Momentum, e.Volatility, e.NonLinearSize,
		e.BookToPrice, e.Liquidity, e.EarningsYield, e.Growth, e.Leverage =
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8], v[9]
}

// FullVector returns the complete 40-column factor row (10 style factors
// followed by the 30 industry dummies), matching the artifact column
// order (FactorColumns in internal/artifacts). Industry dummies are never
// missing.
func (e Exposure) FullVector() []*float64 {
	out := make([]*float64, 0, 40)
	out = append(out, e.StyleValues()...)
	oneHot := e.Industry.OneHot()
	for _, v := range oneHot {
		val := v
		out = append(out, &val)
	}
	return out
}
