package linsolve

import (
	"errors"
	"fmt"
)

var (
	// ErrIterationLimit indicates the method reached its iteration cap before the residual criterion was met
	ErrIterationLimit = errors.New("linsolve: iteration limit reached")
	// ErrBreakdown indicates a zero pivot or a direction of non-positive curvature
	ErrBreakdown = errors.New("linsolve: breakdown, operator is not positive definite")
)

// SolverError wraps a failed solve with the state the iteration stopped in
type SolverError struct {
	Iterations   int
	ResidualNorm float64
	Wrapped      error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("%v after %d iterations, residual norm %g", e.Wrapped, e.Iterations, e.ResidualNorm)
}

func (e *SolverError) Unwrap() error {
	return e.Wrapped
}
