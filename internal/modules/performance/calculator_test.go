package performance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aristath/strata/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(n int) []time.Time {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func newTestCalculator(rf float64) *Calculator {
	return NewCalculator(rf, 0.95, zerolog.Nop())
}

func TestCompute_KnownSeries(t *testing.T) {
	c := newTestCalculator(0)
	m := c.Compute([]float64{0.01, 0.02, 0.03})

	assert.InDelta(t, 1.01*1.02*1.03-1, m.TotalReturn, 1e-12)
	assert.InDelta(t, math.Pow(1.02, 252)-1, m.AnnualizedReturn, 1e-9)
	assert.InDelta(t, 0.01*math.Sqrt(252), m.Volatility, 1e-12)
	assert.InDelta(t, 2*math.Sqrt(252), m.SharpeRatio, 1e-9)
	assert.Equal(t, 0.0, m.SortinoRatio, "no downside observations")
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.CalmarRatio)
	assert.InDelta(t, 0.011, m.VaR95, 1e-12)
	assert.InDelta(t, 0.01, m.CVaR95, 1e-12)
}

func TestCompute_DownsideAndDrawdown(t *testing.T) {
	c := newTestCalculator(0)
	m := c.Compute([]float64{0.02, -0.01, -0.03, 0.04})

	assert.InDelta(t, 0.005/math.Sqrt(0.0002), m.SortinoRatio, 1e-9)
	assert.InDelta(t, 0.99*0.97-1, m.MaxDrawdown, 1e-12)
	assert.InDelta(t, m.AnnualizedReturn/math.Abs(m.MaxDrawdown), m.CalmarRatio, 1e-9)
}

func TestCompute_RiskFreeRate(t *testing.T) {
	r := []float64{0.01, 0.02, 0.03}
	m := newTestCalculator(0.0252).Compute(r)

	assert.InDelta(t, (0.02-0.0001)/0.01*math.Sqrt(252), m.SharpeRatio, 1e-9)
}

func TestCompute_ConstantSeries(t *testing.T) {
	m := newTestCalculator(0.065).Compute([]float64{0, 0, 0, 0})

	assert.Equal(t, 0.0, m.TotalReturn)
	assert.Equal(t, 0.0, m.Volatility)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.SortinoRatio)
	assert.Equal(t, 0.0, m.CalmarRatio)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.VaR95)
	assert.Equal(t, 0.0, m.CVaR95)
}

func TestCompareWithBenchmark_Identical(t *testing.T) {
	c := newTestCalculator(0)
	d := dates(4)
	s := domain.ReturnSeries{Dates: d, Values: []float64{0.01, -0.02, 0.03, 0.005}}

	cmp := c.CompareWithBenchmark(s, s)
	require.NotNil(t, cmp)

	// sample covariance over population variance
	assert.InDelta(t, 4.0/3.0, cmp.Beta, 1e-12)
	assert.InDelta(t, 252*(1-cmp.Beta)*0.00625, cmp.Alpha, 1e-12)
	assert.Equal(t, 0.0, cmp.TrackingError)
	assert.Equal(t, 0.0, cmp.InformationRatio)
	assert.Equal(t, c.Compute(s.Values), cmp.BenchmarkMetrics)
}

func TestCompareWithBenchmark_NoCommonDates(t *testing.T) {
	d := dates(4)
	p := domain.ReturnSeries{Dates: d[:2], Values: []float64{0.01, 0.02}}
	b := domain.ReturnSeries{Dates: d[2:], Values: []float64{0.01, 0.02}}

	assert.Nil(t, newTestCalculator(0).CompareWithBenchmark(p, b))
}

func TestCompareWithBenchmark_ConstantBenchmark(t *testing.T) {
	d := dates(3)
	p := domain.ReturnSeries{Dates: d, Values: []float64{0.01, 0.03, 0.02}}
	b := domain.ReturnSeries{Dates: d, Values: []float64{0, 0, 0}}

	cmp := newTestCalculator(0).CompareWithBenchmark(p, b)
	require.NotNil(t, cmp)
	assert.Equal(t, 0.0, cmp.Beta)
	assert.InDelta(t, 0.02*252, cmp.Alpha, 1e-12)
	assert.InDelta(t, 0.01*math.Sqrt(252), cmp.TrackingError, 1e-12)
	assert.InDelta(t, 2*math.Sqrt(252), cmp.InformationRatio, 1e-9)
}

func scenarioInput(t *testing.T) Input {
	t.Helper()
	prices, err := domain.NewTimeSeriesTable(dates(4),
		domain.Column{Name: "A", Values: []float64{100, 101, 102, 100}},
		domain.Column{Name: "B", Values: []float64{50, 50, 51, 51.51}},
	)
	require.NoError(t, err)
	return Input{
		Prices: prices,
		Holdings: domain.HoldingsTable{
			{AssetName: "A", WeightPercent: 60},
			{AssetName: "B", WeightPercent: 40},
		},
	}
}

func TestAnalyze_TwoAssetScenario(t *testing.T) {
	c := newTestCalculator(0.065)
	result, err := c.Analyze(context.Background(), scenarioInput(t))
	require.NoError(t, err)

	r1 := 0.6 * 0.01
	r2 := 0.6*(102.0/101.0-1) + 0.4*0.02
	r3 := 0.6*(100.0/102.0-1) + 0.4*0.01
	assert.InDelta(t, (1+r1)*(1+r2)*(1+r3)-1, result.PortfolioMetrics.TotalReturn, 1e-10)
	assert.InDelta(t, 0.0121, result.PortfolioMetrics.TotalReturn, 1e-4)

	require.Len(t, result.TimeSeries, 3)
	assert.InDelta(t, r2, result.TimeSeries[1].Value, 1e-12)
	assert.Equal(t, dates(4)[2], result.TimeSeries[1].Date)

	meanA := (0.01 + (102.0/101.0 - 1) + (100.0/102.0 - 1)) / 3
	assert.InDelta(t, 0.6*meanA*252, result.Attribution["A"], 1e-10)
	assert.InDelta(t, 0.4*0.01*252, result.Attribution["B"], 1e-10)
	assert.Nil(t, result.BenchmarkComparison)
}

func TestAnalyze_WithBenchmark(t *testing.T) {
	in := scenarioInput(t)
	bench, err := domain.NewTimeSeriesTable(dates(4),
		domain.Column{Name: "SPX", Values: []float64{4000, 4040, 4000, 4080}},
	)
	require.NoError(t, err)
	in.Benchmark = bench

	result, err := newTestCalculator(0.065).Analyze(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, result.BenchmarkComparison)
	assert.InDelta(t, 0.02, result.BenchmarkComparison.BenchmarkMetrics.TotalReturn, 1e-9)
}

func TestAnalyze_UnknownBenchmarkColumn(t *testing.T) {
	in := scenarioInput(t)
	bench, err := domain.NewTimeSeriesTable(dates(4),
		domain.Column{Name: "SPX", Values: []float64{1, 2, 3, 4}},
	)
	require.NoError(t, err)
	in.Benchmark = bench
	in.BenchmarkName = "NDX"

	result, err := newTestCalculator(0).Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, result.BenchmarkComparison)
}

func TestAnalyze_InsufficientData(t *testing.T) {
	c := newTestCalculator(0)

	_, err := c.Analyze(context.Background(), Input{})
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))

	in := scenarioInput(t)
	in.Holdings = nil
	_, err = c.Analyze(context.Background(), in)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestAnalyze_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCalculator(0).Analyze(ctx, scenarioInput(t))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAttribution_SkipsUnpricedAssets(t *testing.T) {
	in := scenarioInput(t)
	attribution, err := newTestCalculator(0).Attribution(in.Prices, domain.WeightMap{"B": 1, "GHOST": 0.5})
	require.NoError(t, err)

	assert.Len(t, attribution, 1)
	assert.InDelta(t, 0.01*252, attribution["B"], 1e-10)
}
