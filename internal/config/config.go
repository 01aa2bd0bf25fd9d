// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/cpu"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	LogPretty bool

	RiskFreeRate    float64 // Annual rate used by Sharpe, Sortino and alpha
	ConfidenceLevel float64 // VaR/CVaR confidence, e.g. 0.95

	MaxMonteCarloSimulations     int
	DefaultMonteCarloSimulations int
	MaxMonteCarloHorizonDays     int
	MonteCarloSeed               uint64 // 0 draws a random seed per run

	RollingWindow  int
	FrontierPoints int
	Workers        int // Goroutine limit for frontier, simulation and session fan-out
}

// Load reads configuration from environment variables. Values from the
// given .env files (or ./.env when none are given) fill in variables that
// are not already set. A missing default .env is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg := &Config{
		LogLevel:                     getEnv("LOG_LEVEL", "info"),
		LogPretty:                    getEnvAsBool("LOG_PRETTY", false),
		RiskFreeRate:                 getEnvAsFloat("RISK_FREE_RATE", 0.065),
		ConfidenceLevel:              getEnvAsFloat("CONFIDENCE_LEVEL", 0.95),
		MaxMonteCarloSimulations:     getEnvAsInt("MAX_MONTE_CARLO_SIMULATIONS", 10000),
		DefaultMonteCarloSimulations: getEnvAsInt("DEFAULT_MONTE_CARLO_SIMULATIONS", 1000),
		MaxMonteCarloHorizonDays:     getEnvAsInt("MAX_MONTE_CARLO_HORIZON_DAYS", 2520),
		MonteCarloSeed:               getEnvAsUint64("MONTE_CARLO_SEED", 0),
		RollingWindow:                getEnvAsInt("ROLLING_WINDOW", 60),
		FrontierPoints:               getEnvAsInt("FRONTIER_POINTS", 50),
		Workers:                      getEnvAsInt("ANALYTICS_WORKERS", defaultWorkers()),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every setting is within range
func (c *Config) Validate() error {
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("CONFIDENCE_LEVEL must be in (0, 1), got %v", c.ConfidenceLevel)
	}
	if c.MaxMonteCarloSimulations < 1 {
		return fmt.Errorf("MAX_MONTE_CARLO_SIMULATIONS must be positive, got %d", c.MaxMonteCarloSimulations)
	}
	if c.DefaultMonteCarloSimulations < 1 || c.DefaultMonteCarloSimulations > c.MaxMonteCarloSimulations {
		return fmt.Errorf("DEFAULT_MONTE_CARLO_SIMULATIONS must be in [1, %d], got %d",
			c.MaxMonteCarloSimulations, c.DefaultMonteCarloSimulations)
	}
	if c.MaxMonteCarloHorizonDays < 1 {
		return fmt.Errorf("MAX_MONTE_CARLO_HORIZON_DAYS must be positive, got %d", c.MaxMonteCarloHorizonDays)
	}
	if c.RollingWindow < 2 {
		return fmt.Errorf("ROLLING_WINDOW must be at least 2, got %d", c.RollingWindow)
	}
	if c.FrontierPoints < 1 {
		return fmt.Errorf("FRONTIER_POINTS must be positive, got %d", c.FrontierPoints)
	}
	if c.Workers < 1 {
		return fmt.Errorf("ANALYTICS_WORKERS must be positive, got %d", c.Workers)
	}
	return nil
}

// defaultWorkers is the number of physical cores, or logical CPUs when the
// physical count is unavailable.
func defaultWorkers() int {
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Helper functions
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

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintVal
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
