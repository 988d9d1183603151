package artifacts

import (
	"fmt"
	"math"

	"github.com/aristath/barramodel/internal/factors/transpose"
	"gonum.org/v1/gonum/mat"
)

// Validator runs the post-publish validation contracts (§4.8): completeness,
// row invariants, covariance invariants, and specific-risk invariants. Every
// violation accumulates into an IssueList; nothing here ever rolls back a
// publish.
type Validator struct{}

// NewValidator builds a Validator. It holds no state.
func NewValidator() *Validator { return &Validator{} }

// ValidateCompleteness checks that the count of published per-date files
// equals the count of trading days in the configured window, within a
// small tolerance for holidays at the edges of the window.
func (v *Validator) ValidateCompleteness(publishedDates, expectedDates int, tolerance int) IssueList {
	var issues IssueList
	diff := expectedDates - publishedDates
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: "completeness",
			Message: fmt.Sprintf("published %d per-date files, expected %d (tolerance %d)",
				publishedDates, expectedDates, tolerance),
		})
	}
	return issues
}

// ValidateCrossSection checks that every row's industry dummies sum to 1.
// Style factor values are not checked here; non-finite values are checked
// on factor-return rows by ValidateFactorReturnRow.
func (v *Validator) ValidateCrossSection(cs transpose.CrossSection) IssueList {
	var issues IssueList
	for _, row := range cs.Rows {
		oneHot := row.Industry.OneHot()
		var sum float64
		for _, d := range oneHot {
			sum += d
		}
		if math.Abs(sum-1.0) > 1e-9 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "row_invariant",
				Message: fmt.Sprintf("%s on %s: industry dummies sum to %.12f, expected 1",
					row.Security, row.Date.Format(dateLayout), sum),
			})
		}
	}
	return issues
}

// ValidateFactorReturnRow checks that a published factor-return row
// contains no non-finite values.
func (v *Validator) ValidateFactorReturnRow(row FactorReturnRow) IssueList {
	var issues IssueList
	for i, val := range row.Factors {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "row_invariant",
				Message: fmt.Sprintf("factor return on %s, column %d is non-finite",
					row.Date.Format(dateLayout), i),
			})
		}
	}
	return issues
}

// ValidateCovariance checks that the factor-covariance matrix is symmetric
// (to within 1e-12) and has a smallest eigenvalue strictly greater than 0.
func (v *Validator) ValidateCovariance(cov *mat.Dense) IssueList {
	var issues IssueList
	r, c := cov.Dims()
	if r != c {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Category: "covariance_invariant",
			Message:  fmt.Sprintf("factor covariance is not square: %dx%d", r, c),
		})
		return issues
	}

	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			if math.Abs(cov.At(i, j)-cov.At(j, i)) > 1e-12 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Category: "covariance_invariant",
					Message:  fmt.Sprintf("factor covariance not symmetric at (%d,%d)", i, j),
				})
			}
		}
	}

	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, cov.At(i, j))
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Category: "covariance_invariant",
			Message:  "factor covariance eigendecomposition failed",
		})
		return issues
	}
	values := eig.Values(nil)
	minEig := values[0]
	for _, val := range values {
		if val < minEig {
			minEig = val
		}
	}
	if minEig <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Category: "covariance_invariant",
			Message:  fmt.Sprintf("smallest eigenvalue %.12g is not strictly positive", minEig),
		})
	}
	return issues
}

// ValidateSpecificRisk checks that every published specific-risk value
// falls within [floor, cap] (by default [0.01, 0.10]).
func (v *Validator) ValidateSpecificRisk(bySecurity map[string]float64, floor, cap float64) IssueList {
	var issues IssueList
	for security, val := range bySecurity {
		if val < floor || val > cap {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: "specific_risk_invariant",
				Message:  fmt.Sprintf("%s: specific risk %.6f outside [%.2f, %.2f]", security, val, floor, cap),
			})
		}
	}
	return issues
}
