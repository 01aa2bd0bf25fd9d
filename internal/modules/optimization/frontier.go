package optimization

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// DefaultFrontierPoints is the number of target returns sampled.
const DefaultFrontierPoints = 50

// FrontierPoint is one minimum-variance portfolio at a target return.
type FrontierPoint struct {
	Return float64 `json:"return"`
	Risk   float64 `json:"risk"`
}

// FrontierTargets spaces points targets evenly over [min μ, max μ].
func FrontierTargets(mu []float64, points int) []float64 {
	if points <= 0 || len(mu) == 0 {
		return nil
	}
	lo, hi := floats.Min(mu), floats.Max(mu)
	if points == 1 {
		return []float64{lo}
	}
	targets := make([]float64, points)
	floats.Span(targets, lo, hi)
	return targets
}

// EfficientFrontier solves the minimum-variance problem at each target,
// using at most workers goroutines. Points keep target order; targets that
// fail to converge are omitted. Each point reports the target return and
// the risk of the solved portfolio. Cancellation fails the whole frontier.
func (mvo *MVOptimizer) EfficientFrontier(ctx context.Context, model *Model, points, workers int) ([]FrontierPoint, error) {
	targets := FrontierTargets(model.Mu, points)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	solved := make([]*FrontierPoint, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, target := range targets {
		g.Go(func() error {
			sol, err := mvo.Solve(gctx, Problem{
				Mu:           model.Mu,
				Sigma:        model.Sigma,
				Objective:    MinVariance,
				TargetReturn: &target,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mvo.log.Warn().Err(err).Float64("target", target).Msg("Frontier point omitted")
				return nil
			}
			solved[i] = &FrontierPoint{Return: target, Risk: sol.Risk()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frontier := make([]FrontierPoint, 0, len(solved))
	for _, p := range solved {
		if p != nil {
			frontier = append(frontier, *p)
		}
	}
	return frontier, nil
}
