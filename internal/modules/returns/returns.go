// Package returns converts price and level tables into simple return series
// and weighted portfolio returns.
package returns

import (
	"fmt"
	"sort"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/pkg/formulas"
)

// TradingDaysPerYear is the annualization factor applied to daily statistics.
const TradingDaysPerYear = formulas.TradingDaysPerYear

// AssetReturns computes p[t]/p[t-1] - 1 for every column.
//
// Rows with any missing value are dropped before differencing, and return
// rows with any non-finite value (a zero previous price) are dropped after.
// The result is keyed by the later date of each pair.
func AssetReturns(prices *domain.TimeSeriesTable) (*domain.TimeSeriesTable, error) {
	if prices.NumColumns() == 0 {
		return nil, fmt.Errorf("%w: price table has no columns", domain.ErrInsufficientData)
	}
	clean := prices.DropIncomplete()
	if clean.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 complete rows, have %d", domain.ErrInsufficientData, clean.Len())
	}

	n := clean.Len() - 1
	columns := make([]domain.Column, clean.NumColumns())
	for i := range columns {
		c := clean.ColumnAt(i)
		values := make([]float64, n)
		for t := 1; t <= n; t++ {
			values[t-1] = c.Values[t]/c.Values[t-1] - 1
		}
		columns[i] = domain.Column{Name: c.Name, Values: values}
	}

	table, err := domain.NewTimeSeriesTable(clean.Dates()[1:], columns...)
	if err != nil {
		return nil, err
	}
	table = table.DropIncomplete()
	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: no finite returns", domain.ErrInsufficientData)
	}
	return table, nil
}

// SeriesReturns computes the return series of a single column.
func SeriesReturns(levels *domain.TimeSeriesTable, column string) (domain.ReturnSeries, error) {
	values, ok := levels.Column(column)
	if !ok {
		return domain.ReturnSeries{}, fmt.Errorf("%w: column %q not found", domain.ErrInsufficientData, column)
	}
	single, err := domain.NewTimeSeriesTable(levels.Dates(), domain.Column{Name: column, Values: values})
	if err != nil {
		return domain.ReturnSeries{}, err
	}
	table, err := AssetReturns(single)
	if err != nil {
		return domain.ReturnSeries{}, err
	}
	series, _ := table.Series(column)
	return series, nil
}

// Weighted sums weight[a]*r[a][t] over the columns of an asset return table.
// Assets in weights but absent from the table are skipped.
func Weighted(assetReturns *domain.TimeSeriesTable, weights domain.WeightMap) domain.ReturnSeries {
	values := make([]float64, assetReturns.Len())
	for _, name := range assetReturns.Names() {
		w, ok := weights[name]
		if !ok {
			continue
		}
		col, _ := assetReturns.Column(name)
		for t, r := range col {
			values[t] += w * r
		}
	}
	return domain.ReturnSeries{Name: "portfolio", Dates: assetReturns.Dates(), Values: values}
}

// PortfolioReturns computes the weighted portfolio return series from prices.
//
// Assets present in weights but missing from the price table are skipped
// without error: the series is computed from the assets that are available,
// identical to the result after pruning the missing assets from weights.
func PortfolioReturns(prices *domain.TimeSeriesTable, weights domain.WeightMap) (domain.ReturnSeries, error) {
	assetReturns, err := AssetReturns(prices)
	if err != nil {
		return domain.ReturnSeries{}, err
	}
	return Weighted(assetReturns, weights), nil
}

// MissingAssets lists weighted assets that have no column in the table.
func MissingAssets(table *domain.TimeSeriesTable, weights domain.WeightMap) []string {
	var missing []string
	for name := range weights {
		if !table.Has(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// AnnualizedMeans scales each column's mean return by the trading year.
func AnnualizedMeans(assetReturns *domain.TimeSeriesTable) []float64 {
	mu := make([]float64, assetReturns.NumColumns())
	for i := range mu {
		mu[i] = formulas.Mean(assetReturns.ColumnAt(i).Values) * TradingDaysPerYear
	}
	return mu
}
