// Package domain provides the value types shared by the analytics modules.
package domain

// Analysis names one analysis type. The values double as metric labels
// and session result keys.
type Analysis string

const (
	AnalysisPerformance Analysis = "performance"
	AnalysisRisk        Analysis = "risk"
	AnalysisSensitivity Analysis = "sensitivity"
	AnalysisOptimizer   Analysis = "optimizer"
	AnalysisMonteCarlo  Analysis = "monte_carlo"
	AnalysisHoldings    Analysis = "holdings"
)

// FileType names the kind of tabular input a session holds.
type FileType string

const (
	FileTypeAssets         FileType = "assets"
	FileTypeFactors        FileType = "factors"
	FileTypeBenchmarks     FileType = "benchmarks"
	FileTypeSectorHoldings FileType = "sector_holdings"
)

// RunStatus is the lifecycle state of a single analysis run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Holding is one row of the holdings table.
type Holding struct {
	AssetName     string  `json:"asset_name"`
	WeightPercent float64 `json:"weight_percent"`
	MarketValue   float64 `json:"market_value"`
	Beta          float64 `json:"beta"`
	DividendYield float64 `json:"dividend_yield"`
}

// HoldingsTable is the set of held assets. AssetName joins into
// TimeSeriesTable column names. Weight percentages are expected to sum to
// roughly 100 but are not re-validated.
type HoldingsTable []Holding

// WeightMap maps asset name to fractional weight.
type WeightMap map[string]float64

// Weights converts percentage weights to fractions. A repeated asset keeps
// its last row.
func (h HoldingsTable) Weights() WeightMap {
	weights := make(WeightMap, len(h))
	for _, holding := range h {
		weights[holding.AssetName] = holding.WeightPercent / 100.0
	}
	return weights
}
