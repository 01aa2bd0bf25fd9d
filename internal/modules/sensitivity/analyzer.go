// Package sensitivity estimates factor loadings and propagates factor shocks
// to asset and portfolio impacts.
package sensitivity

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/internal/modules/returns"
	"github.com/aristath/strata/pkg/formulas"
	"github.com/rs/zerolog"
)

var stressLevels = []float64{-0.02, -0.01, 0, 0.01, 0.02}

// StressLevels returns a copy of the fixed shock grid applied to every factor.
func StressLevels() []float64 {
	return slices.Clone(stressLevels)
}

// ShockType tells how a shock value is expressed.
type ShockType string

const (
	// ShockAbsolute values are fractional returns (0.02 = +2%).
	ShockAbsolute ShockType = "absolute"
	// ShockPercentage values are percentage points (2 = +2%).
	ShockPercentage ShockType = "percentage"
)

// Shock moves one factor.
type Shock struct {
	Factor string    `json:"factor_name"`
	Value  float64   `json:"shock_value"`
	Type   ShockType `json:"shock_type"`
}

// Fraction returns the shock as a fractional return.
func (s Shock) Fraction() float64 {
	if s.Type == ShockPercentage {
		return s.Value / 100
	}
	return s.Value
}

// ShocksFromMap builds absolute shocks from a factor to value mapping.
func ShocksFromMap(m map[string]float64) []Shock {
	shocks := make([]Shock, 0, len(m))
	for factor, v := range m {
		shocks = append(shocks, Shock{Factor: factor, Value: v, Type: ShockAbsolute})
	}
	sort.Slice(shocks, func(i, j int) bool { return shocks[i].Factor < shocks[j].Factor })
	return shocks
}

// Loadings maps factor to asset to loading.
type Loadings map[string]map[string]float64

// Impact is the effect of one shock.
type Impact struct {
	ShockValue      float64            `json:"shock_value"`
	PortfolioImpact float64            `json:"portfolio_impact"`
	AssetImpacts    map[string]float64 `json:"asset_impacts"`
}

// Result is the full sensitivity analysis.
type Result struct {
	ScenarioName      string                        `json:"scenario_name,omitempty"`
	IndividualResults map[string]Impact             `json:"individual_results"`
	CombinedImpact    float64                       `json:"combined_impact"`
	StressTestMatrix  map[string]map[string]float64 `json:"stress_test_matrix"`
	FactorLoadings    Loadings                      `json:"factor_loadings"`
}

// Input bundles the tables and shocks of one sensitivity run.
type Input struct {
	Prices       *domain.TimeSeriesTable
	Factors      *domain.TimeSeriesTable
	Weights      domain.WeightMap
	Shocks       []Shock
	ScenarioName string
}

// Analyzer runs factor sensitivity and stress tests.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a sensitivity analyzer.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "sensitivity").Logger()}
}

// Run computes loadings, applies every shock whose factor has loadings and
// builds the stress grid. Shocks on unknown factors are ignored and the
// combined impact is the plain sum of the individual impacts.
func (a *Analyzer) Run(ctx context.Context, in Input) (*Result, error) {
	if in.Prices.Empty() || in.Factors.Empty() || len(in.Weights) == 0 {
		return nil, fmt.Errorf("%w: sensitivity needs prices, factors and holdings", domain.ErrInsufficientData)
	}

	loadings, err := FactorLoadings(in.Prices, in.Factors)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		ScenarioName:      in.ScenarioName,
		IndividualResults: make(map[string]Impact, len(in.Shocks)),
		FactorLoadings:    loadings,
	}
	for _, shock := range in.Shocks {
		factorLoadings, ok := loadings[shock.Factor]
		if !ok {
			a.log.Debug().Str("factor", shock.Factor).Msg("Shock on factor without loadings ignored")
			continue
		}
		impact := ApplyShock(factorLoadings, shock.Fraction(), in.Weights)
		impact.ShockValue = shock.Value
		if prev, dup := result.IndividualResults[shock.Factor]; dup {
			result.CombinedImpact -= prev.PortfolioImpact
		}
		result.IndividualResults[shock.Factor] = impact
		result.CombinedImpact += impact.PortfolioImpact
	}
	result.StressTestMatrix = StressMatrix(loadings, in.Weights)

	a.log.Info().
		Int("factors", len(loadings)).
		Int("shocks_applied", len(result.IndividualResults)).
		Float64("combined_impact", result.CombinedImpact).
		Msg("Sensitivity analysis complete")

	return result, nil
}

// FactorLoadings correlates every asset return series with every factor
// return series over their common dates. Correlation stands in for a
// regression beta; undefined correlations are 0.
func FactorLoadings(prices, factors *domain.TimeSeriesTable) (Loadings, error) {
	assetReturns, err := returns.AssetReturns(prices)
	if err != nil {
		return nil, err
	}
	factorReturns, err := returns.AssetReturns(factors)
	if err != nil {
		return nil, err
	}

	ai, fi := domain.AlignDates(assetReturns, factorReturns)
	loadings := make(Loadings, factorReturns.NumColumns())
	for _, factor := range factorReturns.Names() {
		fcol, _ := factorReturns.Column(factor)
		f := pick(fcol, fi)
		byAsset := make(map[string]float64, assetReturns.NumColumns())
		for _, asset := range assetReturns.Names() {
			acol, _ := assetReturns.Column(asset)
			byAsset[asset] = formulas.Correlation(pick(acol, ai), f)
		}
		loadings[factor] = byAsset
	}
	return loadings, nil
}

// ApplyShock propagates one factor shock through its loadings. Only assets
// that are both loaded and weighted contribute.
func ApplyShock(loadings map[string]float64, shock float64, weights domain.WeightMap) Impact {
	impact := Impact{ShockValue: shock, AssetImpacts: make(map[string]float64, len(loadings))}
	for asset, loading := range loadings {
		w, ok := weights[asset]
		if !ok {
			continue
		}
		assetImpact := loading * shock
		impact.AssetImpacts[asset] = assetImpact
		impact.PortfolioImpact += w * assetImpact
	}
	return impact
}

// StressMatrix evaluates the portfolio impact of every stress level shock on
// every factor, keyed by factor and level label.
func StressMatrix(loadings Loadings, weights domain.WeightMap) map[string]map[string]float64 {
	matrix := make(map[string]map[string]float64, len(loadings))
	for factor, byAsset := range loadings {
		row := make(map[string]float64, len(stressLevels))
		for _, level := range stressLevels {
			row[LevelLabel(level)] = ApplyShock(byAsset, level, weights).PortfolioImpact
		}
		matrix[factor] = row
	}
	return matrix
}

// LevelLabel formats a fractional shock as a one-decimal percentage.
func LevelLabel(level float64) string {
	return fmt.Sprintf("%.1f%%", level*100)
}

func pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = values[i]
	}
	return out
}
