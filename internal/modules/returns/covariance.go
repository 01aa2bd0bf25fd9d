package returns

import (
	"math"

	"github.com/aristath/strata/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AnnualizedCovariance is the sample covariance of the asset return columns
// scaled by the trading year.
func AnnualizedCovariance(assetReturns *domain.TimeSeriesTable) domain.LabeledMatrix {
	cov := sampleCovariance(assetReturns)
	cov.ScaleSym(TradingDaysPerYear, cov)
	return domain.LabeledMatrix{Labels: assetReturns.Names(), Data: cov}
}

// CorrelationMatrix is the Pearson correlation of every pair of columns.
// Undefined entries (a constant column) are reported as 0.
func CorrelationMatrix(assetReturns *domain.TimeSeriesTable) domain.LabeledMatrix {
	n := assetReturns.NumColumns()
	corr := mat.NewSymDense(n, nil)
	if assetReturns.Len() >= 2 {
		stat.CorrelationMatrix(corr, assetReturns.Matrix(), nil)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if v := corr.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				corr.SetSym(i, j, 0)
			}
		}
	}
	return domain.LabeledMatrix{Labels: assetReturns.Names(), Data: corr}
}

func sampleCovariance(assetReturns *domain.TimeSeriesTable) *mat.SymDense {
	cov := mat.NewSymDense(assetReturns.NumColumns(), nil)
	if assetReturns.Len() < 2 {
		return cov
	}
	stat.CovarianceMatrix(cov, assetReturns.Matrix(), nil)
	return cov
}
