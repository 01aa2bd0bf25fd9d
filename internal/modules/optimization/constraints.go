// Package optimization provides long-only mean-variance portfolio optimization
// and efficient frontier tracing.
package optimization

import (
	"fmt"
	"math"

	"github.com/aristath/strata/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// Long-only bounds and budget shared by every solve.
const (
	MinWeight = 0.0
	MaxWeight = 1.0
	Budget    = 1.0

	// WeightTolerance is the slack allowed when checking a solved weight vector.
	WeightTolerance = 1e-9
)

// checkTargetReturn rejects targets no long-only portfolio can reach.
func checkTargetReturn(mu []float64, target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return fmt.Errorf("%w: target return %v", domain.ErrInvalidParameter, target)
	}
	lo, hi := floats.Min(mu), floats.Max(mu)
	slack := 1e-12 * math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
	if target < lo-slack || target > hi+slack {
		return fmt.Errorf("%w: target return %.6f outside attainable range [%.6f, %.6f]",
			domain.ErrConvergenceFailure, target, lo, hi)
	}
	return nil
}

// ValidateWeights checks the budget and the long-only bounds.
func ValidateWeights(weights []float64) error {
	var sum float64
	for i, w := range weights {
		if math.IsNaN(w) || w < MinWeight-WeightTolerance || w > MaxWeight+WeightTolerance {
			return fmt.Errorf("weight %d = %v outside [%v, %v]", i, w, MinWeight, MaxWeight)
		}
		sum += w
	}
	if math.Abs(sum-Budget) > 1e-6 {
		return fmt.Errorf("weights sum to %v, expected %v", sum, Budget)
	}
	return nil
}
