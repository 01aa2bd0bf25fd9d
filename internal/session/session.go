// Package session holds the inputs and analysis outcomes of one caller-owned
// analysis session.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/strata/internal/domain"
	"github.com/google/uuid"
)

// Inputs is a snapshot of the tables attached to a session.
type Inputs struct {
	Assets     *domain.TimeSeriesTable
	Factors    *domain.TimeSeriesTable
	Benchmarks *domain.TimeSeriesTable
	Holdings   domain.HoldingsTable
}

// Status summarizes a session for display.
type Status struct {
	ID        string                               `json:"session_id"`
	CreatedAt time.Time                            `json:"created_at"`
	UpdatedAt time.Time                            `json:"updated_at"`
	Inputs    map[domain.FileType]bool             `json:"inputs"`
	Runs      map[domain.Analysis]domain.RunStatus `json:"runs"`
	Errors    map[domain.Analysis]string           `json:"errors,omitempty"`
}

// Session is safe for concurrent use.
type Session struct {
	id        string
	createdAt time.Time

	mu        sync.RWMutex
	updatedAt time.Time
	inputs    Inputs
	runs      map[domain.Analysis]domain.RunStatus
	results   map[domain.Analysis]any
	failures  map[domain.Analysis]error
	now       func() time.Time
}

// New creates an empty session with a random id.
func New() *Session {
	return newSession(time.Now)
}

func newSession(now func() time.Time) *Session {
	created := now().UTC()
	return &Session{
		id:        uuid.New().String(),
		createdAt: created,
		updatedAt: created,
		runs:      make(map[domain.Analysis]domain.RunStatus),
		results:   make(map[domain.Analysis]any),
		failures:  make(map[domain.Analysis]error),
		now:       now,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// SetTable attaches a time-series input. Holdings are set with SetHoldings.
func (s *Session) SetTable(kind domain.FileType, table *domain.TimeSeriesTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case domain.FileTypeAssets:
		s.inputs.Assets = table
	case domain.FileTypeFactors:
		s.inputs.Factors = table
	case domain.FileTypeBenchmarks:
		s.inputs.Benchmarks = table
	default:
		return fmt.Errorf("%w: %q is not a time-series input", domain.ErrInvalidParameter, kind)
	}
	s.touch()
	return nil
}

// SetHoldings attaches the holdings table.
func (s *Session) SetHoldings(holdings domain.HoldingsTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.Holdings = holdings
	s.touch()
}

// Inputs returns the current inputs.
func (s *Session) Inputs() Inputs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputs
}

// Has reports whether every named input is present and non-empty.
func (s *Session) Has(kinds ...domain.FileType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, kind := range kinds {
		if !s.hasLocked(kind) {
			return false
		}
	}
	return true
}

func (s *Session) hasLocked(kind domain.FileType) bool {
	switch kind {
	case domain.FileTypeAssets:
		return !s.inputs.Assets.Empty()
	case domain.FileTypeFactors:
		return !s.inputs.Factors.Empty()
	case domain.FileTypeBenchmarks:
		return !s.inputs.Benchmarks.Empty()
	case domain.FileTypeSectorHoldings:
		return len(s.inputs.Holdings) > 0
	default:
		return false
	}
}

// MarkRunning records that an analysis started and clears its previous outcome.
func (s *Session) MarkRunning(analysis domain.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[analysis] = domain.RunStatusRunning
	delete(s.results, analysis)
	delete(s.failures, analysis)
	s.touch()
}

// Record stores the outcome of an analysis. A non-nil err marks it failed.
func (s *Session) Record(analysis domain.Analysis, result any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.runs[analysis] = domain.RunStatusFailed
		s.failures[analysis] = err
		delete(s.results, analysis)
	} else {
		s.runs[analysis] = domain.RunStatusSucceeded
		s.results[analysis] = result
		delete(s.failures, analysis)
	}
	s.touch()
}

// Result returns the stored result of a successful analysis.
func (s *Session) Result(analysis domain.Analysis) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[analysis]
	return r, ok
}

// Failure returns the error of a failed analysis, or nil.
func (s *Session) Failure(analysis domain.Analysis) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[analysis]
}

// RunStatus returns the state of an analysis; ok is false if it never ran.
func (s *Session) RunStatus(analysis domain.Analysis) (domain.RunStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.runs[analysis]
	return st, ok
}

// Status returns a summary of inputs and runs.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		ID:        s.id,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		Inputs:    make(map[domain.FileType]bool, 4),
		Runs:      make(map[domain.Analysis]domain.RunStatus, len(s.runs)),
	}
	for _, kind := range []domain.FileType{
		domain.FileTypeAssets,
		domain.FileTypeFactors,
		domain.FileTypeBenchmarks,
		domain.FileTypeSectorHoldings,
	} {
		st.Inputs[kind] = s.hasLocked(kind)
	}
	for a, r := range s.runs {
		st.Runs[a] = r
	}
	if len(s.failures) > 0 {
		st.Errors = make(map[domain.Analysis]string, len(s.failures))
		for a, err := range s.failures {
			st.Errors[a] = err.Error()
		}
	}
	return st
}

// Analyses lists the analyses that have run, sorted by name.
func (s *Session) Analyses() []domain.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Analysis, 0, len(s.runs))
	for a := range s.runs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset drops all inputs and outcomes. The id is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = Inputs{}
	s.runs = make(map[domain.Analysis]domain.RunStatus)
	s.results = make(map[domain.Analysis]any)
	s.failures = make(map[domain.Analysis]error)
	s.touch()
}

func (s *Session) touch() {
	s.updatedAt = s.now().UTC()
}
