package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	data := []float64{4, 1, 3, 2, 5}

	tests := []struct {
		name     string
		q        float64
		expected float64
	}{
		{"minimum", 0, 1},
		{"maximum", 1, 5},
		{"median", 0.5, 3},
		{"interpolated 5th", 0.05, 1.2},
		{"interpolated 95th", 0.95, 4.8},
		{"clamped", 1.5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Percentile(data, tt.q), 1e-12)
		})
	}

	assert.Equal(t, []float64{4, 1, 3, 2, 5}, data, "input must not be reordered")
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
}

func TestPercentiles(t *testing.T) {
	got := Percentiles([]float64{10, 20, 30, 40}, []float64{0, 0.25, 0.5, 1})
	assert.InDeltaSlice(t, []float64{10, 17.5, 25, 40}, got, 1e-12)
	assert.Equal(t, []float64{0, 0}, Percentiles(nil, []float64{0.1, 0.9}))
}

func TestHistoricalVaRAndCVaR(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.0, 0.01, 0.03}

	// position 0.05 * 4 = 0.2 -> -0.05 + 0.03 * 0.2
	assert.InDelta(t, -0.044, HistoricalVaR(returns, 0.95), 1e-12)
	assert.InDelta(t, -0.05, HistoricalCVaR(returns, 0.95), 1e-12)
	assert.Equal(t, 0.0, HistoricalCVaR(nil, 0.95))
}

func TestTailMean(t *testing.T) {
	assert.InDelta(t, 1.5, TailMean([]float64{1, 2, 3}, 2), 1e-12)
	assert.Equal(t, 0.5, TailMean([]float64{1, 2, 3}, 0.5))
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		returns  []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"monotonic gains", []float64{0.01, 0.02, 0.03}, 0},
		{"first day loss is not a drawdown", []float64{-0.10, 0.05}, 0},
		{"peak to trough", []float64{0.10, -0.20, 0.05}, -0.20},
		{"constant", []float64{0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MaxDrawdown(tt.returns), 1e-12)
		})
	}
}

func TestTotalAndAnnualizedReturn(t *testing.T) {
	returns := []float64{0.01, 0.02}
	assert.InDelta(t, 1.01*1.02-1, TotalReturn(returns), 1e-12)
	assert.Equal(t, 0.0, TotalReturn(nil))
	assert.Equal(t, 0.0, AnnualizedReturn([]float64{0, 0}))
}

func TestCumulativeReturns(t *testing.T) {
	assert.InDeltaSlice(t, []float64{1.1, 0.88}, CumulativeReturns([]float64{0.1, -0.2}), 1e-12)
}
