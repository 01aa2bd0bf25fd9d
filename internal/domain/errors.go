package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared by every analysis. Modules wrap them with context
// using fmt.Errorf("%w: ...") and callers match them with errors.Is.
var (
	// ErrInsufficientData covers empty or too-short tables and missing holdings.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrConvergenceFailure is returned when the optimizer does not converge.
	ErrConvergenceFailure = errors.New("optimization did not converge")
	// ErrInvalidParameter is returned for malformed tables or out-of-range requests.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrCanceled marks an analysis aborted through its context.
	ErrCanceled = errors.New("analysis canceled")
)

// AnalysisError identifies which analysis failed and why.
type AnalysisError struct {
	Analysis Analysis
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Analysis, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError wraps err for the given analysis. Context errors are
// additionally tagged with ErrCanceled. A nil err stays nil.
func NewAnalysisError(analysis Analysis, err error) error {
	if err == nil {
		return nil
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return err
	}
	if isContextErr(err) && !errors.Is(err, ErrCanceled) {
		err = fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return &AnalysisError{Analysis: analysis, Err: err}
}

// ErrorKind classifies err for metrics labels and status reporting.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCanceled), isContextErr(err):
		return "canceled"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrConvergenceFailure):
		return "convergence_failure"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	default:
		return "internal"
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
