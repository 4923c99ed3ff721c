package inverse

import (
	"errors"
	"fmt"
)

var ErrInvalidOptions = errors.New("inverse: invalid options")

type Options struct {
	L                   float64 // Regularization length scale, m
	Theta               float64 // Regularization parameter scale
	RTol                float64 // Stop once the objective decreases by less than RTol relative
	ETol                float64 // Stop once the expected decrease is below ETol relative to the objective
	ATol                float64 // Stop once the objective is below ATol
	GradientTolerance   float64 // L-BFGS only, stop once the max norm of the gradient is below it, zero disables
	MaxIterations       int
	SearchMaxIterations int     // Cap on the CG iterations of each Gauss-Newton search direction
	SearchTolerance     float64 // Relative residual of the search direction solve
	Verbose             bool
}

func DefaultOptions() Options {
	return Options{
		L:                   0,
		Theta:               1,
		RTol:                1.e-6,
		ETol:                1.e-6,
		ATol:                0,
		MaxIterations:       50,
		SearchMaxIterations: 200,
		SearchTolerance:     1.e-8,
	}
}

func (o Options) Validate() error {
	switch {
	case o.L < 0:
		return fmt.Errorf("%w: negative length scale L = %g", ErrInvalidOptions, o.L)
	case o.Theta <= 0:
		return fmt.Errorf("%w: parameter scale Theta = %g must be positive", ErrInvalidOptions, o.Theta)
	case o.RTol < 0 || o.ETol < 0 || o.ATol < 0 || o.GradientTolerance < 0:
		return fmt.Errorf("%w: negative tolerance", ErrInvalidOptions)
	case o.MaxIterations <= 0 || o.SearchMaxIterations <= 0:
		return fmt.Errorf("%w: iteration limits must be positive", ErrInvalidOptions)
	case o.SearchTolerance <= 0 || o.SearchTolerance >= 1:
		return fmt.Errorf("%w: search tolerance %g outside (0,1)", ErrInvalidOptions, o.SearchTolerance)
	}
	return nil
}
