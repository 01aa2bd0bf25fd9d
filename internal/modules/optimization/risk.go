package optimization

import (
	"fmt"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/internal/modules/returns"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Model holds the annualized expected returns and covariance of an asset
// universe, in column order of the source price table.
type Model struct {
	Assets []string
	Mu     []float64
	Sigma  *mat.SymDense
}

// RiskModelBuilder derives expected returns (mean daily return × 252) and
// the annualized sample covariance from a price table.
type RiskModelBuilder struct {
	log zerolog.Logger
}

// NewRiskModelBuilder creates a new risk model builder.
func NewRiskModelBuilder(log zerolog.Logger) *RiskModelBuilder {
	return &RiskModelBuilder{
		log: log.With().Str("component", "risk_model").Logger(),
	}
}

// Build computes the model over every column of prices.
func (rb *RiskModelBuilder) Build(prices *domain.TimeSeriesTable) (*Model, error) {
	if prices.Empty() {
		return nil, fmt.Errorf("%w: no asset data", domain.ErrInsufficientData)
	}
	assetReturns, err := returns.AssetReturns(prices)
	if err != nil {
		return nil, err
	}
	if assetReturns.Len() < 2 {
		return nil, fmt.Errorf("%w: covariance needs at least 2 return observations", domain.ErrInsufficientData)
	}

	cov := returns.AnnualizedCovariance(assetReturns)
	model := &Model{
		Assets: cov.Labels,
		Mu:     returns.AnnualizedMeans(assetReturns),
		Sigma:  cov.Data,
	}

	rb.log.Debug().
		Int("assets", len(model.Assets)).
		Int("observations", assetReturns.Len()).
		Msg("Built risk model")

	return model, nil
}
