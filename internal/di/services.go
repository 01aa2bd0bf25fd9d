package di

import (
	"fmt"

	"github.com/aristath/strata/internal/config"
	"github.com/aristath/strata/internal/engine"
	"github.com/aristath/strata/internal/modules/optimization"
	"github.com/aristath/strata/internal/modules/performance"
	"github.com/aristath/strata/internal/modules/portfolio"
	"github.com/aristath/strata/internal/modules/risk"
	"github.com/aristath/strata/internal/modules/sensitivity"
	"github.com/aristath/strata/internal/modules/simulation"
	"github.com/aristath/strata/internal/session"
	"github.com/rs/zerolog"
)

// InitializeServices creates the analysis services and the engine
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.PerformanceCalculator = performance.NewCalculator(cfg.RiskFreeRate, cfg.ConfidenceLevel, log)
	container.RiskAnalyzer = risk.NewAnalyzer(cfg.RollingWindow, log)
	container.SensitivityAnalyzer = sensitivity.NewAnalyzer(log)
	container.OptimizerService = optimization.NewService(cfg.RiskFreeRate, cfg.FrontierPoints, cfg.Workers, log)
	container.Simulator = simulation.NewSimulator(simulation.Config{
		MaxSimulations:     cfg.MaxMonteCarloSimulations,
		DefaultSimulations: cfg.DefaultMonteCarloSimulations,
		MaxHorizonDays:     cfg.MaxMonteCarloHorizonDays,
		Workers:            cfg.Workers,
		Seed:               cfg.MonteCarloSeed,
	}, log)
	container.HoldingsService = portfolio.NewService(log)

	eng, err := engine.New(engine.Modules{
		Performance: container.PerformanceCalculator,
		Risk:        container.RiskAnalyzer,
		Sensitivity: container.SensitivityAnalyzer,
		Optimizer:   container.OptimizerService,
		Simulator:   container.Simulator,
		Holdings:    container.HoldingsService,
	}, container.Metrics, cfg.Workers, log)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	container.Engine = eng
	container.Sessions = session.NewRegistry()

	log.Debug().
		Float64("risk_free_rate", cfg.RiskFreeRate).
		Int("workers", cfg.Workers).
		Int("max_simulations", cfg.MaxMonteCarloSimulations).
		Msg("Analysis services initialized")

	return nil
}
