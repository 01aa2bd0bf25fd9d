package engine

import (
	"context"
	"fmt"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/internal/modules/performance"
	"github.com/aristath/strata/internal/session"
	"golang.org/x/sync/errgroup"
)

// AnalyzeSession runs the basic analyses (performance and risk) for a
// session whose assets and holdings are present. The analyses run
// concurrently and each outcome is recorded in the session; an analysis
// failure is not returned as an error. The returned error reports missing
// inputs or cancellation only.
func (e *Engine) AnalyzeSession(ctx context.Context, s *session.Session) error {
	if !s.Has(domain.FileTypeAssets, domain.FileTypeSectorHoldings) {
		return fmt.Errorf("%w: session %s needs assets and holdings", domain.ErrInsufficientData, s.ID())
	}
	in := s.Inputs()

	tasks := map[domain.Analysis]func(context.Context) (any, error){
		domain.AnalysisPerformance: func(ctx context.Context) (any, error) {
			return e.Performance(ctx, performance.Input{
				Prices:    in.Assets,
				Holdings:  in.Holdings,
				Benchmark: in.Benchmarks,
			})
		},
		domain.AnalysisRisk: func(ctx context.Context) (any, error) {
			return e.Risk(ctx, in.Assets, in.Holdings)
		},
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for analysis, task := range tasks {
		s.MarkRunning(analysis)
		g.Go(func() error {
			res, err := task(ctx)
			s.Record(analysis, res, err)
			if err != nil {
				e.log.Warn().
					Err(err).
					Str("session_id", s.ID()).
					Str("analysis", string(analysis)).
					Msg("Session analysis failed")
			}
			return nil
		})
	}
	_ = g.Wait() // tasks record their own failures

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCanceled, err)
	}

	e.log.Info().
		Str("session_id", s.ID()).
		Int("analyses", len(tasks)).
		Msg("Session analysis complete")
	return nil
}
