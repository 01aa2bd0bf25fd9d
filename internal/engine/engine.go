// Package engine is the entry point for every analysis. It times and
// classifies each run and tags failures with the analysis that produced
// them.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/internal/metrics"
	"github.com/aristath/strata/internal/modules/optimization"
	"github.com/aristath/strata/internal/modules/performance"
	"github.com/aristath/strata/internal/modules/portfolio"
	"github.com/aristath/strata/internal/modules/risk"
	"github.com/aristath/strata/internal/modules/sensitivity"
	"github.com/aristath/strata/internal/modules/simulation"
	"github.com/aristath/strata/pkg/logger"
	"github.com/rs/zerolog"
)

// Modules are the analysis services an Engine dispatches to.
type Modules struct {
	Performance *performance.Calculator
	Risk        *risk.Analyzer
	Sensitivity *sensitivity.Analyzer
	Optimizer   *optimization.Service
	Simulator   *simulation.Simulator
	Holdings    *portfolio.Service
}

// Engine runs analyses. It holds no state between calls and is safe for
// concurrent use.
type Engine struct {
	modules Modules
	metrics *metrics.Recorder
	workers int
	log     zerolog.Logger
}

// New creates an engine. rec may be nil.
func New(modules Modules, rec *metrics.Recorder, workers int, log zerolog.Logger) (*Engine, error) {
	switch {
	case modules.Performance == nil:
		return nil, fmt.Errorf("engine: performance module is required")
	case modules.Risk == nil:
		return nil, fmt.Errorf("engine: risk module is required")
	case modules.Sensitivity == nil:
		return nil, fmt.Errorf("engine: sensitivity module is required")
	case modules.Optimizer == nil:
		return nil, fmt.Errorf("engine: optimizer module is required")
	case modules.Simulator == nil:
		return nil, fmt.Errorf("engine: simulator module is required")
	case modules.Holdings == nil:
		return nil, fmt.Errorf("engine: holdings module is required")
	}
	if workers <= 0 {
		workers = 1
	}
	return &Engine{
		modules: modules,
		metrics: rec,
		workers: workers,
		log:     logger.Component(log, "engine"),
	}, nil
}

// Performance computes return metrics for the holdings, with an optional
// benchmark comparison.
func (e *Engine) Performance(ctx context.Context, in performance.Input) (*performance.Result, error) {
	return run(ctx, e, domain.AnalysisPerformance, func(ctx context.Context) (*performance.Result, error) {
		return e.modules.Performance.Analyze(ctx, in)
	})
}

// Risk computes volatility, correlation, variance contributions and
// rolling metrics for the holdings.
func (e *Engine) Risk(ctx context.Context, prices *domain.TimeSeriesTable, holdings domain.HoldingsTable) (*risk.Result, error) {
	return run(ctx, e, domain.AnalysisRisk, func(ctx context.Context) (*risk.Result, error) {
		if len(holdings) == 0 {
			return nil, fmt.Errorf("%w: risk analysis needs holdings", domain.ErrInsufficientData)
		}
		return e.modules.Risk.Analyze(ctx, prices, holdings.Weights())
	})
}

// Sensitivity applies factor shocks to the holdings. in.Weights is filled
// from holdings when empty.
func (e *Engine) Sensitivity(ctx context.Context, in sensitivity.Input, holdings domain.HoldingsTable) (*sensitivity.Result, error) {
	return run(ctx, e, domain.AnalysisSensitivity, func(ctx context.Context) (*sensitivity.Result, error) {
		if len(in.Weights) == 0 {
			in.Weights = holdings.Weights()
		}
		return e.modules.Sensitivity.Run(ctx, in)
	})
}

// Optimize finds the optimal long-only allocation over every priced asset.
// When holdings are given the result includes a comparison with them.
func (e *Engine) Optimize(ctx context.Context, prices *domain.TimeSeriesTable, holdings domain.HoldingsTable, params optimization.Params) (*optimization.Result, error) {
	return run(ctx, e, domain.AnalysisOptimizer, func(ctx context.Context) (*optimization.Result, error) {
		if params.CurrentWeights == nil && len(holdings) > 0 {
			params.CurrentWeights = holdings.Weights()
		}
		return e.modules.Optimizer.Optimize(ctx, prices, params)
	})
}

// MonteCarlo simulates the future value of the holdings.
func (e *Engine) MonteCarlo(ctx context.Context, prices *domain.TimeSeriesTable, holdings domain.HoldingsTable, req simulation.Request) (*simulation.Result, error) {
	return run(ctx, e, domain.AnalysisMonteCarlo, func(ctx context.Context) (*simulation.Result, error) {
		res, err := e.modules.Simulator.Run(ctx, prices, holdings.Weights(), req)
		if err == nil {
			e.metrics.AddSimulatedPaths(res.NumSimulations)
		}
		return res, err
	})
}

// Summary describes the composition of the holdings.
func (e *Engine) Summary(ctx context.Context, holdings domain.HoldingsTable) (*portfolio.Summary, error) {
	return run(ctx, e, domain.AnalysisHoldings, func(context.Context) (*portfolio.Summary, error) {
		return e.modules.Holdings.Summarize(holdings)
	})
}

// run executes one analysis with timing, failure classification and logging.
func run[T any](ctx context.Context, e *Engine, analysis domain.Analysis, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	res, err := fn(ctx)
	elapsed := time.Since(start)
	e.metrics.ObserveDuration(string(analysis), elapsed)

	if err != nil {
		err = domain.NewAnalysisError(analysis, err)
		kind := domain.ErrorKind(err)
		e.metrics.IncFailure(string(analysis), kind)
		e.log.Warn().
			Err(err).
			Str("analysis", string(analysis)).
			Str("kind", kind).
			Dur("elapsed", elapsed).
			Msg("Analysis failed")
		var zero T
		return zero, err
	}

	e.log.Debug().
		Str("analysis", string(analysis)).
		Dur("elapsed", elapsed).
		Msg("Analysis finished")
	return res, nil
}
