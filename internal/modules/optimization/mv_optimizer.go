package optimization

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/strata/internal/domain"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Objective selects what the optimizer minimizes.
type Objective int

const (
	// MinVariance minimizes w'Σw. It is the objective used with a target return.
	MinVariance Objective = iota
	// MaxUtility maximizes μ'w - ½γ w'Σw.
	MaxUtility
	// MaxSharpe maximizes (μ'w - r_f) / sqrt(w'Σw).
	MaxSharpe
)

func (o Objective) String() string {
	switch o {
	case MinVariance:
		return "min_variance"
	case MaxUtility:
		return "max_utility"
	case MaxSharpe:
		return "max_sharpe"
	default:
		return fmt.Sprintf("objective(%d)", int(o))
	}
}

// Problem is one mean-variance problem. Weights always sum to 1 and lie in
// [0, 1]; TargetReturn adds the equality μ'w = target.
type Problem struct {
	Mu           []float64
	Sigma        *mat.SymDense
	Objective    Objective
	TargetReturn *float64
	RiskAversion float64
	RiskFreeRate float64
}

// Solution is a converged optimum.
type Solution struct {
	Weights  []float64
	Return   float64
	Variance float64
	Status   optimize.Status
}

// Risk is the portfolio standard deviation.
func (s *Solution) Risk() float64 {
	return math.Sqrt(math.Max(s.Variance, 0))
}

// SolverSettings tunes the inner solver and the augmented Lagrangian loop
// that enforces the target return.
type SolverSettings struct {
	GradientThreshold    float64
	FeasibilityTolerance float64
	MaxOuterIterations   int
	InitialPenalty       float64
	MaxPenalty           float64
}

// DefaultSolverSettings returns the settings used by NewMVOptimizer.
func DefaultSolverSettings() SolverSettings {
	return SolverSettings{
		GradientThreshold:    1e-9,
		FeasibilityTolerance: 1e-7,
		MaxOuterIterations:   30,
		InitialPenalty:       100,
		MaxPenalty:           1e10,
	}
}

// MVOptimizer performs long-only mean-variance portfolio optimization.
//
// Weights are parameterized as w_i = x_i² / Σx_j², so the budget and the
// [0, 1] bounds hold for every x and the inner problem is unconstrained.
// The target return equality is enforced with an augmented Lagrangian:
//
//	L(x) = f(w) - λ h(w) + (ρ/2) h(w)²,  h(w) = μ'w - target
//
// Each inner problem runs BFGS and falls back to Nelder-Mead.
type MVOptimizer struct {
	settings SolverSettings
	log      zerolog.Logger
}

// NewMVOptimizer creates a new mean-variance optimizer.
func NewMVOptimizer(log zerolog.Logger) *MVOptimizer {
	return &MVOptimizer{
		settings: DefaultSolverSettings(),
		log:      log.With().Str("component", "mv_optimizer").Logger(),
	}
}

// Solve runs the optimization from equal weights. A solve that does not
// converge, or cannot meet the target return, fails with
// domain.ErrConvergenceFailure; no partial result is returned.
func (mvo *MVOptimizer) Solve(ctx context.Context, p Problem) (*Solution, error) {
	n := len(p.Mu)
	if n == 0 {
		return nil, fmt.Errorf("%w: no assets to optimize", domain.ErrInsufficientData)
	}
	if p.Sigma == nil || p.Sigma.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: covariance matrix does not match %d assets", domain.ErrInvalidParameter, n)
	}
	if p.TargetReturn != nil {
		if err := checkTargetReturn(p.Mu, *p.TargetReturn); err != nil {
			return nil, err
		}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1.0 / float64(n)
	}

	if p.TargetReturn == nil {
		x, status, err := mvo.minimize(ctx, p, x, 0, 0)
		if err != nil {
			return nil, err
		}
		return mvo.solution(p, x, status), nil
	}

	target := *p.TargetReturn
	lambda, rho := 0.0, mvo.settings.InitialPenalty
	violation := math.Inf(1)
	for iter := 0; iter < mvo.settings.MaxOuterIterations; iter++ {
		next, status, err := mvo.minimize(ctx, p, x, lambda, rho)
		if err != nil {
			return nil, err
		}
		x = next

		h := floats.Dot(p.Mu, toWeights(x)) - target
		if math.Abs(h) <= mvo.settings.FeasibilityTolerance {
			mvo.log.Debug().
				Int("outer_iterations", iter+1).
				Float64("target", target).
				Str("status", status.String()).
				Msg("Target return reached")
			return mvo.solution(p, x, status), nil
		}

		lambda -= rho * h
		if math.Abs(h) > 0.25*violation {
			rho = math.Min(rho*10, mvo.settings.MaxPenalty)
		}
		violation = math.Abs(h)
	}

	return nil, fmt.Errorf("%w: target return %.6f not reached (violation %.3g)",
		domain.ErrConvergenceFailure, target, violation)
}

func (mvo *MVOptimizer) solution(p Problem, x []float64, status optimize.Status) *Solution {
	w := toWeights(x)
	return &Solution{
		Weights:  w,
		Return:   floats.Dot(p.Mu, w),
		Variance: quadForm(p.Sigma, w),
		Status:   status,
	}
}

// minimize solves one unconstrained inner problem in x.
func (mvo *MVOptimizer) minimize(ctx context.Context, p Problem, x0 []float64, lambda, rho float64) ([]float64, optimize.Status, error) {
	n := len(x0)
	sigmaW := make([]float64, n)
	gw := make([]float64, n)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := toWeights(x)
			return mvo.value(p, w, sigmaW, lambda, rho)
		},
		Grad: func(grad, x []float64) {
			w := toWeights(x)
			mvo.gradient(p, w, sigmaW, gw, lambda, rho)
			chainRule(grad, x, w, gw)
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: mvo.settings.GradientThreshold,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-15,
			Relative:   1e-13,
			Iterations: 50,
		},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, optimize.Failure, ctxErr
	}
	if err == nil && converged(result.Status) {
		return result.X, result.Status, nil
	}

	// Try with different method, starting from the best point found so far
	start := x0
	if result != nil && usable(result.X, result.F) {
		start = result.X
	}
	mvo.log.Debug().
		Err(err).
		Str("objective", p.Objective.String()).
		Msg("BFGS did not converge, retrying with Nelder-Mead")

	result, err = optimize.Minimize(problem, start, settings, &optimize.NelderMead{SimplexSize: 1e-3})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, optimize.Failure, ctxErr
	}
	if err != nil {
		return nil, optimize.Failure, fmt.Errorf("%w: %v", domain.ErrConvergenceFailure, err)
	}
	if !converged(result.Status) {
		return nil, result.Status, fmt.Errorf("%w: status=%v", domain.ErrConvergenceFailure, result.Status)
	}
	return result.X, result.Status, nil
}

// value evaluates the objective in weight space plus the Lagrangian terms.
func (mvo *MVOptimizer) value(p Problem, w, sigmaW []float64, lambda, rho float64) float64 {
	mulSym(sigmaW, p.Sigma, w)
	variance := floats.Dot(w, sigmaW)
	ret := floats.Dot(p.Mu, w)

	var f float64
	switch p.Objective {
	case MaxUtility:
		f = -(ret - 0.5*p.RiskAversion*variance)
	case MaxSharpe:
		if variance <= 0 {
			return math.Inf(-1)
		}
		f = -(ret - p.RiskFreeRate) / math.Sqrt(variance)
	default:
		f = variance
	}

	if p.TargetReturn != nil {
		h := ret - *p.TargetReturn
		f += -lambda*h + 0.5*rho*h*h
	}
	return f
}

// gradient writes ∂L/∂w into gw.
func (mvo *MVOptimizer) gradient(p Problem, w, sigmaW, gw []float64, lambda, rho float64) {
	mulSym(sigmaW, p.Sigma, w)
	variance := floats.Dot(w, sigmaW)
	ret := floats.Dot(p.Mu, w)

	switch p.Objective {
	case MaxUtility:
		for i := range gw {
			gw[i] = -p.Mu[i] + p.RiskAversion*sigmaW[i]
		}
	case MaxSharpe:
		if variance <= 0 {
			for i := range gw {
				gw[i] = 0
			}
			break
		}
		sd := math.Sqrt(variance)
		excess := ret - p.RiskFreeRate
		for i := range gw {
			gw[i] = -p.Mu[i]/sd + excess*sigmaW[i]/(variance*sd)
		}
	default:
		for i := range gw {
			gw[i] = 2 * sigmaW[i]
		}
	}

	if p.TargetReturn != nil {
		h := ret - *p.TargetReturn
		coef := rho*h - lambda
		for i := range gw {
			gw[i] += coef * p.Mu[i]
		}
	}
}

// toWeights maps x onto the simplex: w_i = x_i² / Σx_j².
func toWeights(x []float64) []float64 {
	w := make([]float64, len(x))
	var s float64
	for i, v := range x {
		w[i] = v * v
		s += w[i]
	}
	if s == 0 {
		for i := range w {
			w[i] = 1.0 / float64(len(w))
		}
		return w
	}
	for i := range w {
		w[i] /= s
	}
	return w
}

// chainRule converts a weight-space gradient to x-space:
// ∂F/∂x_k = (2 x_k / S) (g_k - Σ g_i w_i), S = Σx_j².
func chainRule(grad, x, w, gw []float64) {
	s := floats.Dot(x, x)
	if s == 0 {
		for i := range grad {
			grad[i] = 0
		}
		return
	}
	mean := floats.Dot(gw, w)
	for k := range grad {
		grad[k] = 2 * x[k] / s * (gw[k] - mean)
	}
}

func mulSym(dst []float64, sigma *mat.SymDense, w []float64) {
	n := len(w)
	for i := 0; i < n; i++ {
		var v float64
		for j := 0; j < n; j++ {
			v += sigma.At(i, j) * w[j]
		}
		dst[i] = v
	}
}

func quadForm(sigma *mat.SymDense, w []float64) float64 {
	v := mat.NewVecDense(len(w), w)
	return mat.Inner(v, sigma, v)
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success,
		optimize.GradientThreshold,
		optimize.FunctionConvergence,
		optimize.MethodConverge,
		optimize.StepConvergence:
		return true
	default:
		return false
	}
}

func usable(x []float64, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return floats.Norm(x, 2) > 0
}
