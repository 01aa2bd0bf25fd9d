// Package portfolio summarizes a holdings table.
package portfolio

import (
	"fmt"
	"sort"

	"github.com/aristath/strata/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TopHoldingsLimit is the number of largest positions listed in a summary.
const TopHoldingsLimit = 10

// Summary describes the composition of a holdings table.
type Summary struct {
	Positions             int              `json:"positions"`
	TotalMarketValue      float64          `json:"total_market_value"`
	TotalWeightPercent    float64          `json:"total_weight_percent"`
	WeightedBeta          float64          `json:"weighted_beta"`
	WeightedDividendYield float64          `json:"weighted_dividend_yield"`
	Concentration         float64          `json:"concentration"`
	TopHoldings           []domain.Holding `json:"top_holdings"`
}

// Service computes holdings summaries.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new holdings summary service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("component", "portfolio").Logger(),
	}
}

// Summarize totals market value and weight, and computes the weight-averaged
// beta and dividend yield. Weighted figures use fractional weights
// (WeightPercent / 100) and are not re-normalized. Concentration is the
// Herfindahl index Σw².
func (s *Service) Summarize(holdings domain.HoldingsTable) (*Summary, error) {
	if len(holdings) == 0 {
		return nil, fmt.Errorf("%w: no holdings", domain.ErrInsufficientData)
	}

	hundred := decimal.NewFromInt(100)
	totalValue := decimal.Zero
	totalWeight := decimal.Zero
	beta := decimal.Zero
	yield := decimal.Zero
	concentration := decimal.Zero

	for _, h := range holdings {
		w := decimal.NewFromFloat(h.WeightPercent).Div(hundred)
		totalValue = totalValue.Add(decimal.NewFromFloat(h.MarketValue))
		totalWeight = totalWeight.Add(decimal.NewFromFloat(h.WeightPercent))
		beta = beta.Add(w.Mul(decimal.NewFromFloat(h.Beta)))
		yield = yield.Add(w.Mul(decimal.NewFromFloat(h.DividendYield)))
		concentration = concentration.Add(w.Mul(w))
	}

	summary := &Summary{
		Positions:             len(holdings),
		TotalMarketValue:      totalValue.InexactFloat64(),
		TotalWeightPercent:    totalWeight.InexactFloat64(),
		WeightedBeta:          beta.InexactFloat64(),
		WeightedDividendYield: yield.InexactFloat64(),
		Concentration:         concentration.InexactFloat64(),
		TopHoldings:           topHoldings(holdings, TopHoldingsLimit),
	}

	if !totalWeight.Sub(hundred).Abs().LessThanOrEqual(decimal.NewFromInt(1)) {
		s.log.Debug().
			Str("total_weight_percent", totalWeight.String()).
			Msg("Holding weights do not sum to 100")
	}

	return summary, nil
}

// topHoldings returns up to limit holdings by descending weight, ties by name.
func topHoldings(holdings domain.HoldingsTable, limit int) []domain.Holding {
	sorted := make([]domain.Holding, len(holdings))
	copy(sorted, holdings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].WeightPercent != sorted[j].WeightPercent {
			return sorted[i].WeightPercent > sorted[j].WeightPercent
		}
		return sorted[i].AssetName < sorted[j].AssetName
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
