package inverse

import (
	"errors"
	"fmt"
	"math"

	"github.com/benhills/icepack/fem"
	"github.com/benhills/icepack/linsolve"
	"gonum.org/v1/gonum/floats"
)

type SolverState uint8

const (
	Ready SolverState = iota
	SearchDirectionComputed
	StepTaken
	Converged
	ExpectedDecreaseNonNegative
	MaxIterationsReached
)

func (s SolverState) String() string {
	switch s {
	case Ready:
		return "Ready"
	case SearchDirectionComputed:
		return "SearchDirectionComputed"
	case StepTaken:
		return "StepTaken"
	case Converged:
		return "Converged"
	case ExpectedDecreaseNonNegative:
		return "ExpectedDecreaseNonNegative"
	case MaxIterationsReached:
		return "MaxIterationsReached"
	}
	return "Unknown"
}

/*
GaussNewtonSolver minimizes the objective of a Problem by full Gauss-Newton steps. Each search direction q solves
H q = -dJ with the Gauss-Newton Hessian by CG, truncated at Options.SearchMaxIterations. Callback, when set, is called
once the search direction of an iteration is available.
*/
type GaussNewtonSolver struct {
	Problem  *Problem
	Options  Options
	Callback func(gn *GaussNewtonSolver)

	state            SolverState
	iteration        int
	gradient         *fem.Field
	direction        *fem.Field
	expectedDecrease float64
	SearchStats      linsolve.Stats // Of the last search direction solve
}

func NewGaussNewtonSolver(p *Problem, opts Options, callback func(gn *GaussNewtonSolver)) (gn *GaussNewtonSolver,
	err error) {
	if err = opts.Validate(); err != nil {
		return
	}
	gn = &GaussNewtonSolver{Problem: p, Options: opts, Callback: callback, state: Ready}
	return
}

func (gn *GaussNewtonSolver) State() SolverState          { return gn.state }
func (gn *GaussNewtonSolver) Iteration() int              { return gn.iteration }
func (gn *GaussNewtonSolver) Gradient() *fem.Field        { return gn.gradient }
func (gn *GaussNewtonSolver) SearchDirection() *fem.Field { return gn.direction }
func (gn *GaussNewtonSolver) Objective() float64          { return gn.Problem.Objective() }
func (gn *GaussNewtonSolver) ExpectedDecrease() float64   { return gn.expectedDecrease }
func (gn *GaussNewtonSolver) RegularizationValue() float64 {
	return gn.Problem.Regularization.Value(gn.Problem.Theta)
}

/*
computeSearchDirection forms the gradient, solves for the search direction and sets the expected decrease
<dJ, q>. A CG solve stopped by its iteration cap or by breakdown still yields a descent direction and is kept.
*/
func (gn *GaussNewtonSolver) computeSearchDirection() (err error) {
	var (
		p       = gn.Problem
		H       HessianOperator
		hessErr error
		res     linsolve.Result
	)
	if gn.gradient, err = p.Gradient(); err != nil {
		return
	}
	if H, err = p.GaussNewtonHessian(); err != nil {
		return
	}
	b := make([]float64, len(gn.gradient.Coefficients()))
	floats.ScaleTo(b, -1, gn.gradient.Coefficients())
	ops := linsolve.MatrixOps{
		MatVec: func(dst, x []float64) {
			if hessErr != nil {
				return
			}
			hessErr = H(dst, x)
		},
	}
	res, err = linsolve.Solve(ops, b, &linsolve.CG{}, linsolve.Settings{
		Tolerance:     gn.Options.SearchTolerance,
		MaxIterations: gn.Options.SearchMaxIterations,
	})
	gn.SearchStats = res.Stats
	if hessErr != nil {
		return fmt.Errorf("Hessian action: %w", hessErr)
	}
	if err != nil && !errors.Is(err, linsolve.ErrIterationLimit) && !errors.Is(err, linsolve.ErrBreakdown) {
		return
	}
	gn.direction = fem.NewField(p.Theta.Space())
	copy(gn.direction.Coefficients(), res.X)
	gn.expectedDecrease = floats.Dot(gn.gradient.Coefficients(), res.X)
	gn.state = SearchDirectionComputed
	return nil
}

// Step computes the search direction at the current parameter and reports it through the callback
func (gn *GaussNewtonSolver) Step() (err error) {
	if err = gn.computeSearchDirection(); err != nil {
		return
	}
	if gn.Callback != nil {
		gn.Callback(gn)
	}
	return
}

// Update applies the last search direction with a unit step and solves the forward model at the new parameter
func (gn *GaussNewtonSolver) Update() (err error) {
	if gn.state != SearchDirectionComputed {
		return fmt.Errorf("inverse: no search direction to apply in state %s", gn.state)
	}
	theta := gn.Problem.Theta.Copy()
	if err = theta.Add(1, gn.direction); err != nil {
		return
	}
	if err = gn.Problem.Solve(theta); err != nil {
		return
	}
	gn.iteration++
	gn.state = StepTaken
	return
}

/*
Solve iterates until the objective decreases by less than rtol relative to the previous iterate, the objective falls
to atol, the expected decrease falls below etol relative to the objective, or maxIterations steps were taken. It
returns the number of steps taken. A non-negative expected decrease stops the iteration in the state
ExpectedDecreaseNonNegative without an error.
*/
func (gn *GaussNewtonSolver) Solve(rtol, etol, atol float64, maxIterations int) (iterations int, err error) {
	var (
		JPrev = math.Inf(1)
		start = gn.iteration
	)
	for gn.iteration-start < maxIterations {
		J := gn.Objective()
		if JPrev-J < rtol*JPrev || J <= atol {
			gn.state = Converged
			return gn.iteration - start, nil
		}
		JPrev = J
		if err = gn.Step(); err != nil {
			return gn.iteration - start, err
		}
		if gn.Options.Verbose {
			fmt.Printf("Gauss-Newton iteration %d, J = %8.5e, R = %8.5e, expected decrease %8.5e, CG iterations %d\n",
				gn.iteration, J, gn.RegularizationValue(), gn.expectedDecrease, gn.SearchStats.Iterations)
		}
		if gn.expectedDecrease >= 0 {
			gn.state = ExpectedDecreaseNonNegative
			return gn.iteration - start, nil
		}
		if math.Abs(gn.expectedDecrease) < etol*J {
			gn.state = Converged
			return gn.iteration - start, nil
		}
		if err = gn.Update(); err != nil {
			return gn.iteration - start, err
		}
	}
	gn.state = MaxIterationsReached
	return gn.iteration - start, nil
}

// Run is Solve with the tolerances and iteration limit of the solver options
func (gn *GaussNewtonSolver) Run() (int, error) {
	o := gn.Options
	return gn.Solve(o.RTol, o.ETol, o.ATol, o.MaxIterations)
}
