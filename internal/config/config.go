// Package config provides configuration management for the risk model
// pipeline.
//
// Configuration is loaded from environment variables (with an optional
// .env file via godotenv) with documented defaults for every numeric
// parameter the pipeline needs. There is no settings database in this
// module — unlike the teacher application, the risk model is a batch
// pipeline with no runtime-editable credentials, so a single load at
// startup is sufficient.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// LiquidityWindow is one (window, weight) pair of the liquidity factor's
// weighted-turnover blend.
type LiquidityWindow struct {
	Window   int
	MinValid int
	Weight   float64
}

// Config holds every tunable parameter named in the external interfaces
// section of the specification, plus the ambient paths and logging level.
type Config struct {
	DataDir     string // base directory for the sqlite panel store
	ArtifactDir string // base directory for published artifacts
	LogLevel    string // debug, info, warn, error

	DegreeOfParallelism int

	EstimationWindow int     // longest rolling window (sessions), default 252
	HalfLife         float64 // EWMA half-life in sessions, default 90

	BetaWindow        int
	BetaMinValidFrac  float64
	MomentumShort     int
	MomentumLong      int
	VolatilityWindow  int
	VolatilityMinValid int

	LiquidityWindows []LiquidityWindow

	WinsorizeLowerQuantile float64
	WinsorizeUpperQuantile float64

	MinimumStocksForRegression int
	RidgeLambda                float64

	SpecificRiskFloor float64
	SpecificRiskCap   float64

	// CompletenessTolerance is how many trading days a run's published
	// cross-section count may differ from the calendar's expected count
	// before the completeness check raises a warning (holidays at the
	// edges of a window can shift one count without the other).
	CompletenessTolerance int

	// CronSchedule drives the incremental-append fast path when the
	// pipeline is run as a long-lived process (cmd/barramodel -mode=serve).
	// Empty disables the scheduler; the pipeline can still be invoked
	// once and exit.
	CronSchedule string
}

// Load reads configuration from environment variables, applying the
// defaults from the specification's "Configuration recognized by the
// orchestrator" table. dataDirOverride, if non-empty, takes priority over
// BARRA_DATA_DIR (mirroring the teacher's CLI-flag-beats-env-var
// precedence).
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	var dataDir string
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("BARRA_DATA_DIR", "./data")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	artifactDir := getEnv("BARRA_ARTIFACT_DIR", filepath.Join(absDataDir, "artifacts"))
	absArtifactDir, err := filepath.Abs(artifactDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact directory path: %w", err)
	}
	if err := os.MkdirAll(absArtifactDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		ArtifactDir:         absArtifactDir,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DegreeOfParallelism: getEnvAsInt("BARRA_PARALLELISM", 8),

		EstimationWindow: getEnvAsInt("BARRA_ESTIMATION_WINDOW", 252),
		HalfLife:         getEnvAsFloat("BARRA_HALF_LIFE", 90),

		BetaWindow:         getEnvAsInt("BARRA_BETA_WINDOW", 252),
		BetaMinValidFrac:   getEnvAsFloat("BARRA_BETA_MIN_VALID_FRACTION", 0.8),
		MomentumShort:      getEnvAsInt("BARRA_MOMENTUM_SHORT", 21),
		MomentumLong:       getEnvAsInt("BARRA_MOMENTUM_LONG", 252),
		VolatilityWindow:   getEnvAsInt("BARRA_VOLATILITY_WINDOW", 252),
		VolatilityMinValid: getEnvAsInt("BARRA_VOLATILITY_MIN_VALID", 126),

		LiquidityWindows: []LiquidityWindow{
			{Window: 21, MinValid: 10, Weight: 0.35},
			{Window: 63, MinValid: 42, Weight: 0.35},
			{Window: 252, MinValid: 126, Weight: 0.30},
		},

		WinsorizeLowerQuantile: getEnvAsFloat("BARRA_WINSOR_LOWER_Q", 0.01),
		WinsorizeUpperQuantile: getEnvAsFloat("BARRA_WINSOR_UPPER_Q", 0.99),

		MinimumStocksForRegression: getEnvAsInt("BARRA_MIN_STOCKS", 50),
		RidgeLambda:                getEnvAsFloat("BARRA_RIDGE_LAMBDA", 0.01),

		SpecificRiskFloor: getEnvAsFloat("BARRA_SPECIFIC_RISK_FLOOR", 0.01),
		SpecificRiskCap:   getEnvAsFloat("BARRA_SPECIFIC_RISK_CAP", 0.10),

		CompletenessTolerance: getEnvAsInt("BARRA_COMPLETENESS_TOLERANCE", 0),

		CronSchedule: getEnv("BARRA_CRON_SCHEDULE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks internally-consistent configuration invariants. It does
// not validate filesystem permissions; those surface naturally as fatal
// I/O errors when the pipeline writes its first artifact.
func (c *Config) Validate() error {
	if c.EstimationWindow <= 0 {
		return fmt.Errorf("estimation window must be positive, got %d", c.EstimationWindow)
	}
	if c.HalfLife <= 0 {
		return fmt.Errorf("half life must be positive, got %f", c.HalfLife)
	}
	if c.WinsorizeLowerQuantile < 0 || c.WinsorizeUpperQuantile > 1 || c.WinsorizeLowerQuantile >= c.WinsorizeUpperQuantile {
		return fmt.Errorf("invalid winsorization quantiles [%f, %f]", c.WinsorizeLowerQuantile, c.WinsorizeUpperQuantile)
	}
	if c.MinimumStocksForRegression <= 0 {
		return fmt.Errorf("minimum stocks for regression must be positive, got %d", c.MinimumStocksForRegression)
	}
	if c.SpecificRiskFloor <= 0 || c.SpecificRiskCap <= c.SpecificRiskFloor {
		return fmt.Errorf("invalid specific risk bounds [%f, %f]", c.SpecificRiskFloor, c.SpecificRiskCap)
	}
	if c.DegreeOfParallelism <= 0 {
		c.DegreeOfParallelism = 8
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
