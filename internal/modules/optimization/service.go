package optimization

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/strata/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

// Params selects the optimization objective. TargetReturn takes priority,
// then RiskAversion; with neither the Sharpe ratio is maximized. A zero
// value counts as given.
type Params struct {
	TargetReturn *float64 `json:"target_return,omitempty"`
	RiskAversion *float64 `json:"risk_aversion,omitempty" validate:"omitempty,gte=0"`
	// CurrentWeights, when set, adds a comparison of the current
	// allocation with the optimum.
	CurrentWeights domain.WeightMap `json:"-"`
}

// Result is the optimal portfolio and the efficient frontier.
type Result struct {
	OptimizationType  string             `json:"optimization_type"`
	OptimalWeights    map[string]float64 `json:"optimal_weights"`
	ExpectedReturn    float64            `json:"expected_return"`
	ExpectedRisk      float64            `json:"expected_risk"`
	SharpeRatio       float64            `json:"sharpe_ratio"`
	EfficientFrontier []FrontierPoint    `json:"efficient_frontier"`
	CurrentVsOptimal  *Comparison        `json:"current_vs_optimal,omitempty"`
}

// Comparison contrasts the current allocation with the optimum.
type Comparison struct {
	CurrentWeights map[string]float64 `json:"current_weights"`
	CurrentReturn  float64            `json:"current_return"`
	CurrentRisk    float64            `json:"current_risk"`
	CurrentSharpe  float64            `json:"current_sharpe"`
	WeightChanges  map[string]float64 `json:"weight_changes"`
}

// Service runs Markowitz optimization over price tables.
type Service struct {
	builder        *RiskModelBuilder
	optimizer      *MVOptimizer
	validate       *validator.Validate
	riskFreeRate   float64
	frontierPoints int
	workers        int
	log            zerolog.Logger
}

// NewService creates an optimization service. Non-positive frontierPoints
// uses DefaultFrontierPoints.
func NewService(riskFreeRate float64, frontierPoints, workers int, log zerolog.Logger) *Service {
	if frontierPoints <= 0 {
		frontierPoints = DefaultFrontierPoints
	}
	return &Service{
		builder:        NewRiskModelBuilder(log),
		optimizer:      NewMVOptimizer(log),
		validate:       validator.New(),
		riskFreeRate:   riskFreeRate,
		frontierPoints: frontierPoints,
		workers:        workers,
		log:            log.With().Str("component", "optimization").Logger(),
	}
}

// Optimize solves for the optimal long-only portfolio of every priced asset
// and traces the efficient frontier.
func (s *Service) Optimize(ctx context.Context, prices *domain.TimeSeriesTable, params Params) (*Result, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidParameter, err)
	}

	model, err := s.builder.Build(prices)
	if err != nil {
		return nil, err
	}

	problem := Problem{
		Mu:           model.Mu,
		Sigma:        model.Sigma,
		RiskFreeRate: s.riskFreeRate,
	}
	switch {
	case params.TargetReturn != nil:
		problem.Objective = MinVariance
		problem.TargetReturn = params.TargetReturn
	case params.RiskAversion != nil:
		problem.Objective = MaxUtility
		problem.RiskAversion = *params.RiskAversion
	default:
		problem.Objective = MaxSharpe
	}

	sol, err := s.optimizer.Solve(ctx, problem)
	if err != nil {
		return nil, err
	}
	if err := ValidateWeights(sol.Weights); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConvergenceFailure, err)
	}

	frontier, err := s.optimizer.EfficientFrontier(ctx, model, s.frontierPoints, s.workers)
	if err != nil {
		return nil, err
	}

	result := &Result{
		OptimizationType:  optimizationType(problem),
		OptimalWeights:    make(map[string]float64, len(model.Assets)),
		ExpectedReturn:    sol.Return,
		ExpectedRisk:      sol.Risk(),
		SharpeRatio:       sharpe(sol.Return, sol.Risk(), s.riskFreeRate),
		EfficientFrontier: frontier,
	}
	for i, asset := range model.Assets {
		result.OptimalWeights[asset] = sol.Weights[i]
	}
	if len(params.CurrentWeights) > 0 {
		result.CurrentVsOptimal = s.compare(model, params.CurrentWeights, result.OptimalWeights)
	}

	s.log.Info().
		Str("objective", problem.Objective.String()).
		Float64("expected_return", result.ExpectedReturn).
		Float64("expected_risk", result.ExpectedRisk).
		Int("frontier_points", len(frontier)).
		Msg("Optimization complete")

	return result, nil
}

func (s *Service) compare(model *Model, current domain.WeightMap, optimal map[string]float64) *Comparison {
	w := make([]float64, len(model.Assets))
	cmp := &Comparison{
		CurrentWeights: make(map[string]float64, len(model.Assets)),
		WeightChanges:  make(map[string]float64, len(model.Assets)),
	}
	for i, asset := range model.Assets {
		w[i] = current[asset]
		cmp.CurrentWeights[asset] = w[i]
		cmp.WeightChanges[asset] = optimal[asset] - w[i]
	}
	cmp.CurrentReturn = floats.Dot(model.Mu, w)
	cmp.CurrentRisk = math.Sqrt(math.Max(quadForm(model.Sigma, w), 0))
	cmp.CurrentSharpe = sharpe(cmp.CurrentReturn, cmp.CurrentRisk, s.riskFreeRate)
	return cmp
}

func sharpe(ret, risk, rf float64) float64 {
	if risk <= 0 {
		return 0
	}
	return (ret - rf) / risk
}

func optimizationType(p Problem) string {
	switch p.Objective {
	case MinVariance:
		return "target_return"
	case MaxUtility:
		return "risk_aversion"
	default:
		return "max_sharpe"
	}
}
