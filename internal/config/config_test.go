package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	for _, key := range []string{
		"BARRA_DATA_DIR", "BARRA_ARTIFACT_DIR", "LOG_LEVEL", "BARRA_PARALLELISM",
		"BARRA_ESTIMATION_WINDOW", "BARRA_HALF_LIFE", "BARRA_MIN_STOCKS",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	cfg, err := Load(filepath.Join(dir, "data"))
	require.NoError(t, err)

	assert.Equal(t, 252, cfg.EstimationWindow)
	assert.InDelta(t, 90.0, cfg.HalfLife, 1e-9)
	assert.Equal(t, 252, cfg.BetaWindow)
	assert.Equal(t, 21, cfg.MomentumShort)
	assert.Equal(t, 252, cfg.MomentumLong)
	assert.Equal(t, 50, cfg.MinimumStocksForRegression)
	assert.InDelta(t, 0.01, cfg.RidgeLambda, 1e-9)
	assert.Len(t, cfg.LiquidityWindows, 3)
}

func TestLoadDataDirOverrideTakesPriorityOverEnv(t *testing.T) {
	envDir := t.TempDir()
	overrideDir := t.TempDir()
	t.Setenv("BARRA_DATA_DIR", envDir)

	cfg, err := Load(overrideDir)
	require.NoError(t, err)

	absOverride, err := filepath.Abs(overrideDir)
	require.NoError(t, err)
	assert.Equal(t, absOverride, cfg.DataDir)
}

func TestValidateRejectsInvalidWinsorizationQuantiles(t *testing.T) {
	cfg := validConfig()
	cfg.WinsorizeLowerQuantile = 0.5
	cfg.WinsorizeUpperQuantile = 0.5
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveEstimationWindow(t *testing.T) {
	cfg := validConfig()
	cfg.EstimationWindow = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedSpecificRiskBounds(t *testing.T) {
	cfg := validConfig()
	cfg.SpecificRiskFloor = 0.10
	cfg.SpecificRiskCap = 0.05
	assert.Error(t, cfg.Validate())
}

func TestValidateDefaultsNonPositiveParallelism(t *testing.T) {
	cfg := validConfig()
	cfg.DegreeOfParallelism = -1
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.DegreeOfParallelism)
}

func validConfig() *Config {
	return &Config{
		EstimationWindow:           252,
		HalfLife:                   90,
		WinsorizeLowerQuantile:     0.01,
		WinsorizeUpperQuantile:     0.99,
		MinimumStocksForRegression: 50,
		SpecificRiskFloor:          0.01,
		SpecificRiskCap:            0.10,
		DegreeOfParallelism:        8,
	}
}
