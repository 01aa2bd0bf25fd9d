package risk

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/internal/modules/returns"
	"github.com/aristath/strata/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(n int) []time.Time {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func threeAssetPrices(t *testing.T) *domain.TimeSeriesTable {
	t.Helper()
	table, err := domain.NewTimeSeriesTable(dates(7),
		domain.Column{Name: "A", Values: []float64{100, 102, 101, 104, 103, 107, 106}},
		domain.Column{Name: "B", Values: []float64{50, 49, 51, 50, 52, 51, 53}},
		domain.Column{Name: "C", Values: []float64{20, 20.2, 20.1, 20.5, 20.4, 20.9, 21}},
	)
	require.NoError(t, err)
	return table
}

func TestAnalyze_VarianceAndContributions(t *testing.T) {
	prices := threeAssetPrices(t)
	weights := domain.WeightMap{"A": 0.5, "B": 0.3, "C": 0.2}

	result, err := NewAnalyzer(3, zerolog.Nop()).Analyze(context.Background(), prices, weights)
	require.NoError(t, err)

	r, err := returns.AssetReturns(prices)
	require.NoError(t, err)
	names := r.Names()
	var expectedVariance float64
	for _, x := range names {
		for _, y := range names {
			cx, _ := r.Column(x)
			cy, _ := r.Column(y)
			expectedVariance += weights[x] * weights[y] * formulas.Covariance(cx, cy) * 252
		}
	}
	m := result.RiskMetrics
	assert.InDelta(t, expectedVariance, m.PortfolioVariance, 1e-12)

	portfolio := returns.Weighted(r, weights)
	assert.InDelta(t, formulas.StdDev(portfolio.Values)*math.Sqrt(252), m.PortfolioVolatility, 1e-12)
	// sample variance of the weighted series equals wᵀΣw before annualization
	assert.InDelta(t, m.PortfolioVolatility*m.PortfolioVolatility, m.PortfolioVariance, 1e-12)

	var breakdown, contribution float64
	for _, asset := range names {
		breakdown += m.VaRBreakdown[asset]
		contribution += result.RiskDecomposition.AssetContributions[asset]
		assert.InDelta(t, 2*result.RiskDecomposition.AssetContributions[asset], m.VaRBreakdown[asset], 1e-12)
	}
	assert.InDelta(t, 2.0, breakdown, 1e-9)
	assert.InDelta(t, 1.0, contribution, 1e-9)

	assert.NotNil(t, result.RiskDecomposition.SectorContributions)
	assert.Empty(t, result.RiskDecomposition.SectorContributions)
	assert.Empty(t, result.RiskDecomposition.FactorContributions)

	for _, asset := range names {
		assert.InDelta(t, 1.0, m.CorrelationMatrix[asset][asset], 1e-12)
	}
	assert.InDelta(t, m.CorrelationMatrix["A"]["B"], m.CorrelationMatrix["B"]["A"], 1e-15)
}

func TestAnalyze_UnpricedWeightGetsNoContribution(t *testing.T) {
	result, err := NewAnalyzer(0, zerolog.Nop()).Analyze(context.Background(), threeAssetPrices(t),
		domain.WeightMap{"A": 0.6, "GHOST": 0.4})
	require.NoError(t, err)

	assert.NotContains(t, result.RiskMetrics.VaRBreakdown, "GHOST")
	assert.NotContains(t, result.RiskMetrics.VaRBreakdown, "B")
	assert.InDelta(t, 2.0, result.RiskMetrics.VaRBreakdown["A"], 1e-9)
	assert.Empty(t, result.RollingMetrics, "series shorter than the default window")
}

func TestAnalyze_ConstantPrices(t *testing.T) {
	prices, err := domain.NewTimeSeriesTable(dates(4),
		domain.Column{Name: "A", Values: []float64{10, 10, 10, 10}},
		domain.Column{Name: "B", Values: []float64{5, 5, 5, 5}},
	)
	require.NoError(t, err)

	result, err := NewAnalyzer(2, zerolog.Nop()).Analyze(context.Background(), prices, domain.WeightMap{"A": 0.5, "B": 0.5})
	require.NoError(t, err)

	m := result.RiskMetrics
	assert.Equal(t, 0.0, m.PortfolioVolatility)
	assert.Equal(t, 0.0, m.PortfolioVariance)
	assert.Equal(t, 0.0, m.VaRBreakdown["A"])
	assert.Equal(t, 0.0, result.RiskDecomposition.AssetContributions["B"])
	assert.Equal(t, 0.0, m.CorrelationMatrix["A"]["B"], "undefined correlation reported as 0")

	require.Len(t, result.RollingMetrics, 1)
	p := result.RollingMetrics[0]
	assert.Equal(t, 0.0, p.Volatility)
	assert.Equal(t, 0.0, p.Skewness)
	assert.Equal(t, 0.0, p.Kurtosis)
}

func TestRolling(t *testing.T) {
	d := dates(5)
	series := domain.ReturnSeries{Dates: d, Values: []float64{0.01, -0.02, 0.03, 0.00, 0.02}}

	points, err := NewAnalyzer(3, zerolog.Nop()).Rolling(context.Background(), series)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, d[3], points[0].Date)
	assert.Equal(t, d[4], points[1].Date)

	first := series.Values[0:3]
	assert.InDelta(t, formulas.StdDev(first)*math.Sqrt(252), points[0].Volatility, 1e-12)
	assert.InDelta(t, formulas.Percentile(first, 0.05), points[0].VaR95, 1e-12)
	assert.InDelta(t, formulas.Skewness(series.Values[1:4]), points[1].Skewness, 1e-12)
	assert.InDelta(t, formulas.ExcessKurtosis(series.Values[1:4]), points[1].Kurtosis, 1e-12)
}

func TestRolling_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	series := domain.ReturnSeries{Dates: dates(5), Values: make([]float64, 5)}
	_, err := NewAnalyzer(2, zerolog.Nop()).Rolling(ctx, series)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAnalyze_InsufficientData(t *testing.T) {
	a := NewAnalyzer(60, zerolog.Nop())

	_, err := a.Analyze(context.Background(), nil, domain.WeightMap{"A": 1})
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))

	_, err = a.Analyze(context.Background(), threeAssetPrices(t), nil)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}
