package inverse

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

/*
BFGSSolver minimizes the objective of a Problem with limited memory BFGS. Only objective values and gradients are
used, each evaluation at a new parameter costs one forward solve.
*/
type BFGSSolver struct {
	Problem *Problem
	Options Options
	Store   int // Number of stored updates, zero selects the optimize package default
	evalErr error
}

// objectiveConverge stops once the objective is at most atol, and otherwise on a stalled relative decrease
type objectiveConverge struct {
	atol float64
	optimize.FunctionConverge
}

func (c *objectiveConverge) Converged(loc *optimize.Location) optimize.Status {
	if loc.F <= c.atol {
		return optimize.FunctionThreshold
	}
	return c.FunctionConverge.Converged(loc)
}

func NewBFGSSolver(p *Problem, opts Options) (b *BFGSSolver, err error) {
	if err = opts.Validate(); err != nil {
		return
	}
	return &BFGSSolver{Problem: p, Options: opts}, nil
}

// moveTo solves the forward model at x unless x is the current parameter
func (b *BFGSSolver) moveTo(x []float64) error {
	if floats.Equal(x, b.Problem.Theta.Coefficients()) {
		return nil
	}
	return b.Problem.SetCoefficients(x)
}

/*
Solve runs L-BFGS from the current parameter for at most maxIterations major iterations. It stops early once the
objective is at most Options.ATol, once the objective decreases by less than Options.RTol relative over five
iterations, or once the gradient max norm is below Options.GradientTolerance. The problem is left at the best
parameter found.
*/
func (b *BFGSSolver) Solve(maxIterations int) (result *optimize.Result, err error) {
	b.evalErr = nil
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if err := b.moveTo(x); err != nil {
				b.evalErr = err
				return math.Inf(1)
			}
			return b.Problem.Objective()
		},
		Grad: func(grad, x []float64) {
			if err := b.moveTo(x); err != nil {
				b.evalErr = err
				floats.Scale(0, grad)
				return
			}
			dJ, err := b.Problem.Gradient()
			if err != nil {
				b.evalErr = err
				floats.Scale(0, grad)
				return
			}
			copy(grad, dJ.Coefficients())
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   maxIterations,
		GradientThreshold: b.Options.GradientTolerance,
		Converger: &objectiveConverge{
			atol: b.Options.ATol,
			FunctionConverge: optimize.FunctionConverge{
				Relative:   b.Options.RTol,
				Iterations: 5,
			},
		},
	}
	x0 := append([]float64(nil), b.Problem.Theta.Coefficients()...)
	result, err = optimize.Minimize(problem, x0, settings, &optimize.LBFGS{Store: b.Store})
	switch {
	case b.evalErr != nil:
		return result, b.evalErr
	case errors.Is(err, optimize.ErrLinesearcherFailure) || errors.Is(err, optimize.ErrNoProgress):
		// The line search stalls once the objective is at the level of the forward solve tolerance
		err = nil
	case err != nil:
		return
	}
	if err = b.moveTo(result.X); err != nil {
		return
	}
	if b.Options.Verbose {
		fmt.Printf("L-BFGS %s after %d major iterations, J = %8.5e\n",
			result.Status, result.Stats.MajorIterations, result.F)
	}
	return
}
