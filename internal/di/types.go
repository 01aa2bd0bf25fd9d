/**
 * Package di provides dependency injection wiring for the analytics engine.
 *
 * The Container holds every analysis service and the engine built on them.
 * It is created by Wire() and owned by the caller; there is no package-level
 * instance.
 */
package di

import (
	"github.com/aristath/strata/internal/engine"
	"github.com/aristath/strata/internal/metrics"
	"github.com/aristath/strata/internal/modules/optimization"
	"github.com/aristath/strata/internal/modules/performance"
	"github.com/aristath/strata/internal/modules/portfolio"
	"github.com/aristath/strata/internal/modules/risk"
	"github.com/aristath/strata/internal/modules/sensitivity"
	"github.com/aristath/strata/internal/modules/simulation"
	"github.com/aristath/strata/internal/session"
)

// Container holds all dependencies for the application.
type Container struct {
	// Instrumentation
	Metrics *metrics.Recorder // Analysis durations and failures (Prometheus)

	// Analysis services
	PerformanceCalculator *performance.Calculator // Return metrics and benchmark comparison
	RiskAnalyzer          *risk.Analyzer          // Volatility, correlation, decomposition, rolling metrics
	SensitivityAnalyzer   *sensitivity.Analyzer   // Factor loadings, shocks, stress matrix
	OptimizerService      *optimization.Service   // Mean-variance optimization and efficient frontier
	Simulator             *simulation.Simulator   // Monte Carlo forward simulation
	HoldingsService       *portfolio.Service      // Holdings summary

	// Entry points
	Engine   *engine.Engine    // Analysis façade used by callers
	Sessions *session.Registry // Caller-owned session registry
}
