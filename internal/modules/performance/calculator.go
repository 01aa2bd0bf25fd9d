package performance

import (
	"context"
	"fmt"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/internal/modules/returns"
	"github.com/aristath/strata/pkg/formulas"
	"github.com/rs/zerolog"
)

// Calculator computes performance analytics for a fixed risk-free rate and
// VaR confidence level.
type Calculator struct {
	riskFreeRate    float64
	confidenceLevel float64
	log             zerolog.Logger
}

// NewCalculator creates a performance calculator.
func NewCalculator(riskFreeRate, confidenceLevel float64, log zerolog.Logger) *Calculator {
	return &Calculator{
		riskFreeRate:    riskFreeRate,
		confidenceLevel: confidenceLevel,
		log:             log.With().Str("component", "performance").Logger(),
	}
}

// Input bundles the tables one performance analysis reads.
type Input struct {
	Prices   *domain.TimeSeriesTable
	Holdings domain.HoldingsTable
	// Benchmark levels are optional. BenchmarkName selects the column; an
	// empty name uses the first column.
	Benchmark     *domain.TimeSeriesTable
	BenchmarkName string
}

// Result is the full performance analysis.
type Result struct {
	PortfolioMetrics    Metrics            `json:"portfolio_metrics"`
	BenchmarkComparison *Comparison        `json:"benchmark_comparison"`
	TimeSeries          []domain.Point     `json:"time_series"`
	Attribution         map[string]float64 `json:"attribution"`
}

// Analyze runs the performance analysis. A missing or unusable benchmark
// yields a nil comparison rather than an error.
func (c *Calculator) Analyze(ctx context.Context, in Input) (*Result, error) {
	if in.Prices.Empty() || len(in.Holdings) == 0 {
		return nil, fmt.Errorf("%w: performance needs prices and holdings", domain.ErrInsufficientData)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	weights := in.Holdings.Weights()
	if missing := returns.MissingAssets(in.Prices, weights); len(missing) > 0 {
		c.log.Debug().Strs("assets", missing).Msg("Holdings without price data skipped")
	}

	assetReturns, err := returns.AssetReturns(in.Prices)
	if err != nil {
		return nil, err
	}
	portfolio := returns.Weighted(assetReturns, weights)

	result := &Result{
		PortfolioMetrics: c.Compute(portfolio.Values),
		TimeSeries:       portfolio.Points(),
		Attribution:      c.attribution(assetReturns, weights),
	}

	if !in.Benchmark.Empty() {
		result.BenchmarkComparison = c.compareWithTable(portfolio, in.Benchmark, in.BenchmarkName)
	}

	c.log.Info().
		Int("observations", portfolio.Len()).
		Float64("total_return", result.PortfolioMetrics.TotalReturn).
		Bool("benchmark", result.BenchmarkComparison != nil).
		Msg("Performance analysis complete")

	return result, nil
}

// Attribution reports weight * annualized mean return for every asset held
// and priced.
func (c *Calculator) Attribution(prices *domain.TimeSeriesTable, weights domain.WeightMap) (map[string]float64, error) {
	assetReturns, err := returns.AssetReturns(prices)
	if err != nil {
		return nil, err
	}
	return c.attribution(assetReturns, weights), nil
}

func (c *Calculator) attribution(assetReturns *domain.TimeSeriesTable, weights domain.WeightMap) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for asset, w := range weights {
		col, ok := assetReturns.Column(asset)
		if !ok {
			continue
		}
		out[asset] = w * formulas.Mean(col) * formulas.TradingDaysPerYear
	}
	return out
}

func (c *Calculator) compareWithTable(portfolio domain.ReturnSeries, benchmark *domain.TimeSeriesTable, name string) *Comparison {
	if name == "" {
		name = benchmark.ColumnAt(0).Name
	}
	series, err := returns.SeriesReturns(benchmark, name)
	if err != nil {
		c.log.Warn().Err(err).Str("benchmark", name).Msg("Benchmark unavailable, skipping comparison")
		return nil
	}
	return c.CompareWithBenchmark(portfolio, series)
}
