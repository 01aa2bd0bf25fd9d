// Package simulation runs Monte Carlo forward simulations of portfolio value.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"strconv"

	"github.com/aristath/strata/internal/domain"
	"github.com/aristath/strata/internal/modules/returns"
	"github.com/aristath/strata/pkg/formulas"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// MaxReturnedPaths caps the sample paths included in a result.
	MaxReturnedPaths = 100

	// ShortfallLevel is the percentile below which final values count
	// towards expected shortfall.
	ShortfallLevel = 0.05

	// pathsPerTask groups paths into errgroup tasks.
	pathsPerTask = 64

	// DefaultMaxHorizonDays is ten years of trading days.
	DefaultMaxHorizonDays = 2520
)

// DefaultConfidenceLevels are the percentile levels reported by default.
var DefaultConfidenceLevels = []float64{0.05, 0.25, 0.5, 0.75, 0.95}

// Request describes one simulation. A zero NumSimulations uses the
// simulator default; empty ConfidenceLevels uses DefaultConfidenceLevels.
type Request struct {
	HorizonDays      int       `json:"time_horizon" validate:"gte=1"`
	NumSimulations   int       `json:"num_simulations" validate:"gte=1"`
	ConfidenceLevels []float64 `json:"confidence_levels" validate:"omitempty,dive,gt=0,lt=1"`
}

// FinalValues summarizes the distribution of terminal portfolio values.
type FinalValues struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Result is the outcome of a simulation. Values are relative to a starting
// portfolio value of 1.0.
type Result struct {
	SimulationPaths   [][]float64        `json:"simulation_paths"`
	Percentiles       map[string]float64 `json:"percentiles"`
	FinalValues       FinalValues        `json:"final_values"`
	ProbabilityOfLoss float64            `json:"probability_of_loss"`
	ExpectedShortfall float64            `json:"expected_shortfall"`
	NumSimulations    int                `json:"num_simulations"`
	HorizonDays       int                `json:"time_horizon"`
	Seed              uint64             `json:"seed"`
}

// Config bounds and seeds a Simulator.
type Config struct {
	MaxSimulations     int
	DefaultSimulations int
	// MaxHorizonDays bounds HorizonDays; retained paths grow with it.
	MaxHorizonDays int
	Workers        int
	// Seed fixes the random streams; 0 draws a fresh seed per run.
	Seed uint64
}

// Simulator draws daily portfolio returns from a normal distribution fitted
// to the historical portfolio return series and compounds them.
type Simulator struct {
	cfg      Config
	validate *validator.Validate
	log      zerolog.Logger
}

// NewSimulator creates a simulator. Non-positive limits fall back to 10000
// maximum and 1000 default simulations, and a horizon of at most
// DefaultMaxHorizonDays.
func NewSimulator(cfg Config, log zerolog.Logger) *Simulator {
	if cfg.MaxSimulations <= 0 {
		cfg.MaxSimulations = 10000
	}
	if cfg.DefaultSimulations <= 0 {
		cfg.DefaultSimulations = min(1000, cfg.MaxSimulations)
	}
	if cfg.MaxHorizonDays <= 0 {
		cfg.MaxHorizonDays = DefaultMaxHorizonDays
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	s := &Simulator{
		cfg:      cfg,
		validate: validator.New(),
		log:      log.With().Str("component", "monte_carlo").Logger(),
	}
	s.validate.RegisterStructValidation(s.validateRequest, Request{})
	return s
}

func (s *Simulator) validateRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(Request)
	if req.NumSimulations > s.cfg.MaxSimulations {
		sl.ReportError(req.NumSimulations, "NumSimulations", "NumSimulations", "lte", strconv.Itoa(s.cfg.MaxSimulations))
	}
	if req.HorizonDays > s.cfg.MaxHorizonDays {
		sl.ReportError(req.HorizonDays, "HorizonDays", "HorizonDays", "lte", strconv.Itoa(s.cfg.MaxHorizonDays))
	}
}

// MaxSimulations is the largest accepted NumSimulations.
func (s *Simulator) MaxSimulations() int {
	return s.cfg.MaxSimulations
}

// MaxHorizonDays is the longest accepted HorizonDays.
func (s *Simulator) MaxHorizonDays() int {
	return s.cfg.MaxHorizonDays
}

// Run simulates req.NumSimulations paths of req.HorizonDays steps. Requests
// above the configured maxima are rejected, never truncated.
func (s *Simulator) Run(ctx context.Context, prices *domain.TimeSeriesTable, weights domain.WeightMap, req Request) (*Result, error) {
	if req.NumSimulations == 0 {
		req.NumSimulations = s.cfg.DefaultSimulations
	}
	if len(req.ConfidenceLevels) == 0 {
		req.ConfidenceLevels = DefaultConfidenceLevels
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidParameter, err)
	}
	if prices.Empty() || len(weights) == 0 {
		return nil, fmt.Errorf("%w: simulation needs prices and weights", domain.ErrInsufficientData)
	}

	series, err := returns.PortfolioReturns(prices, weights)
	if err != nil {
		return nil, err
	}
	mean := formulas.Mean(series.Values)
	std := formulas.StdDev(series.Values)

	seed := s.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	finals, paths, err := s.simulate(ctx, req, mean, std, seed)
	if err != nil {
		return nil, err
	}

	result := &Result{
		SimulationPaths: paths,
		Percentiles:     make(map[string]float64, len(req.ConfidenceLevels)),
		FinalValues: FinalValues{
			Mean: formulas.Mean(finals),
			Std:  formulas.PopulationStdDev(finals),
			Min:  floats.Min(finals),
			Max:  floats.Max(finals),
		},
		NumSimulations: req.NumSimulations,
		HorizonDays:    req.HorizonDays,
		Seed:           seed,
	}
	for i, v := range formulas.Percentiles(finals, req.ConfidenceLevels) {
		result.Percentiles[PercentileLabel(req.ConfidenceLevels[i])] = v
	}

	var losses int
	for _, v := range finals {
		if v < 1.0 {
			losses++
		}
	}
	result.ProbabilityOfLoss = float64(losses) / float64(len(finals))
	result.ExpectedShortfall = formulas.TailMean(finals, formulas.Percentile(finals, ShortfallLevel))

	s.log.Info().
		Int("simulations", req.NumSimulations).
		Int("horizon_days", req.HorizonDays).
		Float64("daily_mean", mean).
		Float64("daily_std", std).
		Float64("probability_of_loss", result.ProbabilityOfLoss).
		Msg("Monte Carlo simulation complete")

	return result, nil
}

// simulate runs every path and returns all final values plus the first
// MaxReturnedPaths paths. Path i draws from PCG(seed, i), so the output
// does not depend on the worker count.
func (s *Simulator) simulate(ctx context.Context, req Request, mean, std float64, seed uint64) ([]float64, [][]float64, error) {
	finals := make([]float64, req.NumSimulations)
	paths := make([][]float64, min(req.NumSimulations, MaxReturnedPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for lo := 0; lo < req.NumSimulations; lo += pathsPerTask {
		hi := min(lo+pathsPerTask, req.NumSimulations)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				var path []float64
				if i < len(paths) {
					path = make([]float64, req.HorizonDays+1)
					paths[i] = path
				}
				finals[i] = simulatePath(mean, std, req.HorizonDays, rand.NewPCG(seed, uint64(i)), path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return finals, paths, nil
}

// simulatePath compounds horizon normal draws from 1.0. When path is
// non-nil it receives the initial value and every step.
func simulatePath(mean, std float64, horizon int, src rand.Source, path []float64) float64 {
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: src}
	value := 1.0
	if path != nil {
		path[0] = value
	}
	for t := 1; t <= horizon; t++ {
		value *= 1 + dist.Rand()
		if path != nil {
			path[t] = value
		}
	}
	return value
}

// PercentileLabel formats a level in (0, 1) as a percentage key, e.g.
// 0.05 -> "5%" and 0.975 -> "97.5%".
func PercentileLabel(level float64) string {
	pct := math.Round(level*100*1e6) / 1e6
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}
