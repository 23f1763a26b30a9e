// Package config provides configuration management for the engine tunables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the engine tunables. Every field has a sensible default so a
// zero-configuration run behaves like the documented engine.
type Config struct {
	// LogLevel is the zerolog level name ("debug", "info", ...).
	LogLevel string
	// ModelDBPath is the SQLite model store path. Empty selects the
	// in-memory repository.
	ModelDBPath string

	// DriftThreshold is the minimum absolute weight drift that triggers a
	// rebalance trade.
	DriftThreshold float64
	// FactorDriftThreshold is the minimum absolute factor drift considered
	// significant.
	FactorDriftThreshold float64
	// MinTradeAmount is the smallest trade worth emitting, in dollars.
	MinTradeAmount float64
	// MaxTrades caps the number of trades per generation pass. Zero means
	// unlimited.
	MaxTrades int
	// FactorAdjustmentScale scales factor drift into trade sizing. Tunable
	// rather than fixed; 2.0 reproduces the historical behavior.
	FactorAdjustmentScale float64
	// CashReserve is the fraction of an initial investment held back as
	// cash when building an account.
	CashReserve float64
	// CapitalGainsRate is the flat rate used to estimate tax impact on
	// tax-aware sells outside loss harvesting.
	CapitalGainsRate float64
	// MaxFactorTradesPerFactor caps how many securities are selected per
	// drifted factor.
	MaxFactorTradesPerFactor int
	// HarvestMinPositionValue is the smallest position worth harvesting.
	HarvestMinPositionValue float64
	// HarvestMaxDailyFraction caps the total value harvested in one run as a
	// fraction of account value.
	HarvestMaxDailyFraction float64
}

// Default returns the engine defaults without touching the environment.
func Default() *Config {
	return &Config{
		LogLevel:                 "info",
		DriftThreshold:           0.02,
		FactorDriftThreshold:     0.1,
		MinTradeAmount:           100.0,
		MaxTrades:                0,
		FactorAdjustmentScale:    2.0,
		CashReserve:              0.02,
		CapitalGainsRate:         0.20,
		MaxFactorTradesPerFactor: 10,
		HarvestMinPositionValue:  5000.0,
		HarvestMaxDailyFraction:  0.10,
	}
}

// Load reads configuration from environment variables, with a .env file as
// fallback.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()
	cfg.LogLevel = getEnv("LOOM_LOG_LEVEL", cfg.LogLevel)
	cfg.ModelDBPath = getEnv("LOOM_MODEL_DB", cfg.ModelDBPath)
	cfg.DriftThreshold = getEnvAsFloat("LOOM_DRIFT_THRESHOLD", cfg.DriftThreshold)
	cfg.FactorDriftThreshold = getEnvAsFloat("LOOM_FACTOR_DRIFT_THRESHOLD", cfg.FactorDriftThreshold)
	cfg.MinTradeAmount = getEnvAsFloat("LOOM_MIN_TRADE_AMOUNT", cfg.MinTradeAmount)
	cfg.MaxTrades = getEnvAsInt("LOOM_MAX_TRADES", cfg.MaxTrades)
	cfg.FactorAdjustmentScale = getEnvAsFloat("LOOM_FACTOR_ADJUSTMENT_SCALE", cfg.FactorAdjustmentScale)
	cfg.CashReserve = getEnvAsFloat("LOOM_CASH_RESERVE", cfg.CashReserve)
	cfg.CapitalGainsRate = getEnvAsFloat("LOOM_CAPITAL_GAINS_RATE", cfg.CapitalGainsRate)
	cfg.MaxFactorTradesPerFactor = getEnvAsInt("LOOM_MAX_FACTOR_TRADES", cfg.MaxFactorTradesPerFactor)
	cfg.HarvestMinPositionValue = getEnvAsFloat("LOOM_HARVEST_MIN_POSITION", cfg.HarvestMinPositionValue)
	cfg.HarvestMaxDailyFraction = getEnvAsFloat("LOOM_HARVEST_MAX_DAILY_FRACTION", cfg.HarvestMaxDailyFraction)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the tunables are in range.
func (c *Config) Validate() error {
	if c.DriftThreshold < 0 || c.DriftThreshold > 1 {
		return fmt.Errorf("drift threshold must be in [0, 1], got %v", c.DriftThreshold)
	}
	if c.FactorDriftThreshold < 0 {
		return fmt.Errorf("factor drift threshold must be non-negative, got %v", c.FactorDriftThreshold)
	}
	if c.MinTradeAmount < 0 {
		return fmt.Errorf("min trade amount must be non-negative, got %v", c.MinTradeAmount)
	}
	if c.MaxTrades < 0 {
		return fmt.Errorf("max trades must be non-negative, got %v", c.MaxTrades)
	}
	if c.CashReserve < 0 || c.CashReserve >= 1 {
		return fmt.Errorf("cash reserve must be in [0, 1), got %v", c.CashReserve)
	}
	if c.CapitalGainsRate < 0 || c.CapitalGainsRate >= 1 {
		return fmt.Errorf("capital gains rate must be in [0, 1), got %v", c.CapitalGainsRate)
	}
	if c.HarvestMaxDailyFraction < 0 || c.HarvestMaxDailyFraction > 1 {
		return fmt.Errorf("harvest max daily fraction must be in [0, 1], got %v", c.HarvestMaxDailyFraction)
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
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
