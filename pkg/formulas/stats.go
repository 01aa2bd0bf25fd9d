// Package formulas holds the scalar statistics shared by the analytics modules.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample (n-1) standard deviation.
// Fewer than two observations yield 0.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample (n-1) variance.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// PopulationVariance calculates the population (n) variance.
func PopulationVariance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopVariance(data, nil)
}

// PopulationStdDev calculates the population (n) standard deviation.
func PopulationStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopStdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets.
// Undefined correlations (a constant input) are reported as 0.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}

// Skewness is the biased sample skewness m3 / m2^1.5.
// A zero-variance sample has skewness 0.
func Skewness(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m2 := stat.Moment(2, data, nil)
	if m2 == 0 {
		return 0
	}
	return stat.Moment(3, data, nil) / math.Pow(m2, 1.5)
}

// ExcessKurtosis is the biased Fisher kurtosis m4 / m2^2 - 3.
// A zero-variance sample has kurtosis 0.
func ExcessKurtosis(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m2 := stat.Moment(2, data, nil)
	if m2 == 0 {
		return 0
	}
	return stat.Moment(4, data, nil)/(m2*m2) - 3
}
