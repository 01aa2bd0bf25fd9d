// Package performance computes risk-adjusted performance, benchmark-relative
// statistics and return attribution for a portfolio.
package performance

import (
	"math"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/pkg/formulas"
)

var sqrtYear = math.Sqrt(formulas.TradingDaysPerYear)

// Metrics is the performance summary of one return series.
type Metrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	VaR95            float64 `json:"var_95"`
	CVaR95           float64 `json:"cvar_95"`
}

// Comparison holds benchmark-relative statistics over the common dates.
type Comparison struct {
	BenchmarkMetrics Metrics `json:"benchmark_metrics"`
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	InformationRatio float64 `json:"information_ratio"`
	TrackingError    float64 `json:"tracking_error"`
}

// Compute derives Metrics from periodic returns. Zero-deviation divisors
// yield 0 ratios rather than failing.
func (c *Calculator) Compute(r []float64) Metrics {
	if len(r) == 0 {
		return Metrics{}
	}

	dailyRF := c.riskFreeRate / formulas.TradingDaysPerYear
	excess := make([]float64, len(r))
	var downside []float64
	for i, v := range r {
		excess[i] = v - dailyRF
		if v < 0 {
			downside = append(downside, v)
		}
	}

	std := formulas.StdDev(r)
	m := Metrics{
		TotalReturn:      formulas.TotalReturn(r),
		AnnualizedReturn: formulas.AnnualizedReturn(r),
		Volatility:       std * sqrtYear,
		MaxDrawdown:      formulas.MaxDrawdown(r),
	}

	if std > 0 {
		m.SharpeRatio = formulas.Mean(excess) / std * sqrtYear
	}

	// A single downside observation has no sample deviation.
	if downsideDev := formulas.StdDev(downside) * sqrtYear; downsideDev > 0 {
		m.SortinoRatio = formulas.Mean(excess) / downsideDev * sqrtYear
	}

	if m.MaxDrawdown != 0 {
		m.CalmarRatio = m.AnnualizedReturn / math.Abs(m.MaxDrawdown)
	}

	m.VaR95 = formulas.HistoricalVaR(r, c.confidenceLevel)
	m.CVaR95 = formulas.HistoricalCVaR(r, c.confidenceLevel)
	return m
}

// CompareWithBenchmark aligns both series on common dates and computes the
// relative statistics. It returns nil when the series share no date.
//
// Beta divides the sample covariance by the population variance of the
// benchmark.
func (c *Calculator) CompareWithBenchmark(portfolio, benchmark domain.ReturnSeries) *Comparison {
	_, p, b := domain.InnerJoin(portfolio, benchmark)
	if len(p) == 0 {
		return nil
	}

	dailyRF := c.riskFreeRate / formulas.TradingDaysPerYear
	active := make([]float64, len(p))
	for i := range p {
		active[i] = p[i] - b[i]
	}

	cmp := &Comparison{BenchmarkMetrics: c.Compute(b)}

	if benchVar := formulas.PopulationVariance(b); benchVar > 0 {
		cmp.Beta = formulas.Covariance(p, b) / benchVar
	}

	alpha := formulas.Mean(p) - (dailyRF + cmp.Beta*(formulas.Mean(b)-dailyRF))
	cmp.Alpha = alpha * formulas.TradingDaysPerYear

	activeStd := formulas.StdDev(active)
	cmp.TrackingError = activeStd * sqrtYear
	if activeStd > 0 {
		cmp.InformationRatio = formulas.Mean(active) / activeStd * sqrtYear
	}
	return cmp
}
