package artifacts

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/barramodel/internal/factors"
	"github.com/aristath/barramodel/internal/factors/transpose"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestValidateCrossSectionIndustrySumInvariant(t *testing.T) {
	v := NewValidator()
	d := time.Now()
	cs := transpose.CrossSection{
		Date: d,
		Rows: []factors.Exposure{
			{Security: "A", Date: d, Industry: factors.IndustryBanking},
			{Security: "B", Date: d, Industry: factors.IndustryComputers},
		},
	}
	issues := v.ValidateCrossSection(cs)
	assert.Empty(t, issues)
}

func TestValidateFactorReturnRowFlagsNonFinite(t *testing.T) {
	v := NewValidator()
	row := FactorReturnRow{Date: time.Now(), Factors: []float64{0.01, math.NaN()}}
	issues := v.ValidateFactorReturnRow(row)
	assert.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestValidateCovarianceSymmetricPositiveDefinite(t *testing.T) {
	v := NewValidator()
	cov := mat.NewDense(2, 2, []float64{2, 0.1, 0.1, 1.5})
	issues := v.ValidateCovariance(cov)
	assert.Empty(t, issues)
}

func TestValidateCovarianceFlagsAsymmetry(t *testing.T) {
	v := NewValidator()
	cov := mat.NewDense(2, 2, []float64{2, 0.5, 0.1, 1.5})
	issues := v.ValidateCovariance(cov)
	assert.NotEmpty(t, issues)
}

func TestValidateCovarianceFlagsNonPositiveDefinite(t *testing.T) {
	v := NewValidator()
	cov := mat.NewDense(2, 2, []float64{1, 0, 0, -0.01})
	issues := v.ValidateCovariance(cov)
	assert.NotEmpty(t, issues)
}

func TestValidateSpecificRiskBounds(t *testing.T) {
	v := NewValidator()
	issues := v.ValidateSpecificRisk(map[string]float64{
		"A": 0.05,
		"B": 0.5,
	}, 0.01, 0.10)
	assert.Len(t, issues, 1)
}

func TestValidateCompletenessWithinTolerance(t *testing.T) {
	v := NewValidator()
	issues := v.ValidateCompleteness(118, 120, 2)
	assert.Empty(t, issues)
}

func TestValidateCompletenessExceedsTolerance(t *testing.T) {
	v := NewValidator()
	issues := v.ValidateCompleteness(100, 120, 2)
	assert.NotEmpty(t, issues)
}
