package formulas

import (
	"math"
	"sort"
)

// Percentile returns the q-quantile (0 <= q <= 1) using linear interpolation
// between closest ranks at position q*(n-1).
func Percentile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return percentileSorted(sorted, q)
}

// Percentiles evaluates several quantiles with a single sort.
func Percentiles(data []float64, qs []float64) []float64 {
	out := make([]float64, len(qs))
	if len(data) == 0 {
		return out
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	for i, q := range qs {
		out[i] = percentileSorted(sorted, q)
	}
	return out
}

func percentileSorted(sorted []float64, q float64) float64 {
	q = math.Max(0, math.Min(1, q))
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// HistoricalVaR is the (1-confidence) percentile of the return distribution.
// Losses are negative.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	return Percentile(returns, 1-confidence)
}

// TailMean averages the observations at or below threshold.
// When nothing qualifies the threshold itself is returned.
func TailMean(data []float64, threshold float64) float64 {
	var sum float64
	var count int
	for _, v := range data {
		if v <= threshold {
			sum += v
			count++
		}
	}
	if count == 0 {
		return threshold
	}
	return sum / float64(count)
}

// HistoricalCVaR is the mean of returns at or below the historical VaR.
func HistoricalCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return TailMean(returns, HistoricalVaR(returns, confidence))
}

// CumulativeReturns compounds periodic returns into a growth-of-one curve.
func CumulativeReturns(returns []float64) []float64 {
	cum := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		cum[i] = acc
	}
	return cum
}

// MaxDrawdown is the most negative relative distance of the cumulative curve
// from its running maximum. The running maximum starts at the first point
// of the curve, so a first-day loss is not counted as a drawdown.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	cum := CumulativeReturns(returns)
	peak := cum[0]
	worst := 0.0
	for _, v := range cum {
		if v > peak {
			peak = v
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// TotalReturn is the compounded return over the whole series.
func TotalReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	cum := 1.0
	for _, r := range returns {
		cum *= 1 + r
	}
	return cum - 1
}

// AnnualizedReturn geometrically scales the mean periodic return to a year.
func AnnualizedReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return math.Pow(1+Mean(returns), TradingDaysPerYear) - 1
}
