package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LOG_LEVEL", "LOG_PRETTY", "RISK_FREE_RATE", "CONFIDENCE_LEVEL",
	"MAX_MONTE_CARLO_SIMULATIONS", "DEFAULT_MONTE_CARLO_SIMULATIONS", "MAX_MONTE_CARLO_HORIZON_DAYS", "MONTE_CARLO_SEED",
	"ROLLING_WINDOW", "FRONTIER_POINTS", "ANALYTICS_WORKERS",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeEnvFile(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 0.065, cfg.RiskFreeRate)
	assert.Equal(t, 0.95, cfg.ConfidenceLevel)
	assert.Equal(t, 10000, cfg.MaxMonteCarloSimulations)
	assert.Equal(t, 1000, cfg.DefaultMonteCarloSimulations)
	assert.Equal(t, 2520, cfg.MaxMonteCarloHorizonDays)
	assert.Equal(t, uint64(0), cfg.MonteCarloSeed)
	assert.Equal(t, 60, cfg.RollingWindow)
	assert.Equal(t, 50, cfg.FrontierPoints)
	assert.Equal(t, defaultWorkers(), cfg.Workers)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("RISK_FREE_RATE", "0.02")
	t.Setenv("MAX_MONTE_CARLO_SIMULATIONS", "500")
	t.Setenv("DEFAULT_MONTE_CARLO_SIMULATIONS", "100")
	t.Setenv("MAX_MONTE_CARLO_HORIZON_DAYS", "252")
	t.Setenv("MONTE_CARLO_SEED", "42")
	t.Setenv("ANALYTICS_WORKERS", "3")

	cfg, err := Load(writeEnvFile(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 0.02, cfg.RiskFreeRate)
	assert.Equal(t, 500, cfg.MaxMonteCarloSimulations)
	assert.Equal(t, 100, cfg.DefaultMonteCarloSimulations)
	assert.Equal(t, 252, cfg.MaxMonteCarloHorizonDays)
	assert.Equal(t, uint64(42), cfg.MonteCarloSeed)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROLLING_WINDOW", "30")

	cfg, err := Load(writeEnvFile(t, "ROLLING_WINDOW=90\nFRONTIER_POINTS=20\n"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.RollingWindow)
	assert.Equal(t, 20, cfg.FrontierPoints)
}

func TestLoad_MalformedValuesUseDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("RISK_FREE_RATE", "abc")
	t.Setenv("ROLLING_WINDOW", "sixty")
	t.Setenv("MONTE_CARLO_SEED", "-1")

	cfg, err := Load(writeEnvFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 0.065, cfg.RiskFreeRate)
	assert.Equal(t, 60, cfg.RollingWindow)
	assert.Equal(t, uint64(0), cfg.MonteCarloSeed)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ConfidenceLevel:              0.95,
			MaxMonteCarloSimulations:     10000,
			DefaultMonteCarloSimulations: 1000,
			MaxMonteCarloHorizonDays:     2520,
			RollingWindow:                60,
			FrontierPoints:               50,
			Workers:                      4,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"confidence too high", func(c *Config) { c.ConfidenceLevel = 1 }},
		{"confidence zero", func(c *Config) { c.ConfidenceLevel = 0 }},
		{"no simulations allowed", func(c *Config) { c.MaxMonteCarloSimulations = 0 }},
		{"default above max", func(c *Config) { c.DefaultMonteCarloSimulations = 20000 }},
		{"no horizon allowed", func(c *Config) { c.MaxMonteCarloHorizonDays = 0 }},
		{"window too short", func(c *Config) { c.RollingWindow = 1 }},
		{"no frontier points", func(c *Config) { c.FrontierPoints = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
