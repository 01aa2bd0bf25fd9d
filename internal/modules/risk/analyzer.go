// Package risk computes portfolio volatility, correlation and covariance
// structure, variance contribution by asset and rolling distribution metrics.
package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/internal/modules/returns"
	"github.com/aristath/strata/pkg/formulas"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// DefaultWindow is the rolling window length in periods.
const DefaultWindow = 60

// Metrics is the portfolio-level risk summary.
type Metrics struct {
	PortfolioVolatility float64                       `json:"portfolio_volatility"`
	PortfolioVariance   float64                       `json:"portfolio_variance"`
	CorrelationMatrix   map[string]map[string]float64 `json:"correlation_matrix"`
	CovarianceMatrix    map[string]map[string]float64 `json:"covariance_matrix"`
	VaRBreakdown        map[string]float64            `json:"var_breakdown"`
}

// Decomposition splits portfolio variance by contributor. Sector and factor
// contributions need a sector or factor model and are always empty.
type Decomposition struct {
	AssetContributions  map[string]float64 `json:"asset_contributions"`
	SectorContributions map[string]float64 `json:"sector_contributions"`
	FactorContributions map[string]float64 `json:"factor_contributions"`
}

// RollingPoint holds the distribution metrics of one window, keyed by the
// date that follows the window.
type RollingPoint struct {
	Date       time.Time `json:"date"`
	Volatility float64   `json:"volatility"`
	VaR95      float64   `json:"var_95"`
	Skewness   float64   `json:"skewness"`
	Kurtosis   float64   `json:"kurtosis"`
}

// Result is the full risk analysis.
type Result struct {
	RiskMetrics       Metrics        `json:"risk_metrics"`
	RiskDecomposition Decomposition  `json:"risk_decomposition"`
	RollingMetrics    []RollingPoint `json:"rolling_metrics"`
}

// Analyzer runs risk diagnostics with a fixed rolling window.
type Analyzer struct {
	window int
	log    zerolog.Logger
}

// NewAnalyzer creates a risk analyzer. A non-positive window uses DefaultWindow.
func NewAnalyzer(window int, log zerolog.Logger) *Analyzer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Analyzer{
		window: window,
		log:    log.With().Str("component", "risk").Logger(),
	}
}

// Analyze computes metrics, decomposition and rolling metrics for the
// weighted portfolio.
func (a *Analyzer) Analyze(ctx context.Context, prices *domain.TimeSeriesTable, weights domain.WeightMap) (*Result, error) {
	if prices.Empty() || len(weights) == 0 {
		return nil, fmt.Errorf("%w: risk analysis needs prices and holdings", domain.ErrInsufficientData)
	}

	assetReturns, err := returns.AssetReturns(prices)
	if err != nil {
		return nil, err
	}
	portfolio := returns.Weighted(assetReturns, weights)

	cov := returns.AnnualizedCovariance(assetReturns)
	w := cov.WeightVector(weights)
	sigmaW := mat.NewVecDense(len(cov.Labels), nil)
	sigmaW.MulVec(cov.Data, w)
	variance := mat.Dot(w, sigmaW)

	result := &Result{
		RiskMetrics: Metrics{
			PortfolioVolatility: formulas.AnnualizedVolatility(portfolio.Values),
			PortfolioVariance:   variance,
			CorrelationMatrix:   returns.CorrelationMatrix(assetReturns).ToMap(),
			CovarianceMatrix:    cov.ToMap(),
			VaRBreakdown:        contributions(cov.Labels, weights, sigmaW, variance, 2),
		},
		RiskDecomposition: Decomposition{
			AssetContributions:  contributions(cov.Labels, weights, sigmaW, variance, 1),
			SectorContributions: map[string]float64{},
			FactorContributions: map[string]float64{},
		},
	}

	rolling, err := a.Rolling(ctx, portfolio)
	if err != nil {
		return nil, err
	}
	result.RollingMetrics = rolling

	a.log.Info().
		Float64("volatility", result.RiskMetrics.PortfolioVolatility).
		Float64("variance", variance).
		Int("rolling_points", len(rolling)).
		Msg("Risk analysis complete")

	return result, nil
}

// contributions computes w_i * scale * (Σw)_i / wᵀΣw for each weighted asset.
// Component VaR uses scale 2 (the marginal variance) while the asset risk
// decomposition uses scale 1; both are reported as is.
func contributions(labels []string, weights domain.WeightMap, sigmaW *mat.VecDense, variance, scale float64) map[string]float64 {
	out := make(map[string]float64, len(labels))
	for i, asset := range labels {
		w, ok := weights[asset]
		if !ok {
			continue
		}
		if variance > 0 {
			out[asset] = w * scale * sigmaW.AtVec(i) / variance
		} else {
			out[asset] = 0
		}
	}
	return out
}

// Rolling slides a fixed window over the series. The window ending before
// index i is reported under date i, so the first window periods produce no
// output and the last observation never closes a window of its own.
func (a *Analyzer) Rolling(ctx context.Context, series domain.ReturnSeries) ([]RollingPoint, error) {
	points := make([]RollingPoint, 0, max(series.Len()-a.window, 0))
	for i := a.window; i < series.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		window := series.Values[i-a.window : i]
		points = append(points, RollingPoint{
			Date:       series.Dates[i],
			Volatility: formulas.StdDev(window) * math.Sqrt(formulas.TradingDaysPerYear),
			VaR95:      formulas.Percentile(window, 0.05),
			Skewness:   formulas.Skewness(window),
			Kurtosis:   formulas.ExcessKurtosis(window),
		})
	}
	return points, nil
}
