package glacier

import (
	"fmt"

	"github.com/benhills/icepack/fem"
	"github.com/benhills/icepack/linsolve"
	"github.com/benhills/icepack/utils"
)

type SolverOptions struct {
	Tolerance      float64 // On |r| / |tau|
	MaxIterations  int
	Damping        float64 // Fraction of each Newton increment applied
	Linear         linsolve.Settings
	ParallelDegree int
	Verbose        bool
}

func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Tolerance:      1.e-10,
		MaxIterations:  100,
		Damping:        0.1,
		Linear:         linsolve.DefaultSettings(),
		ParallelDegree: 1,
	}
}

type SolverState uint8

const (
	Initialized SolverState = iota
	Iterating
	Converged
	MaxIterationsReached
)

func (s SolverState) String() string {
	switch s {
	case Initialized:
		return "Initialized"
	case Iterating:
		return "Iterating"
	case Converged:
		return "Converged"
	case MaxIterationsReached:
		return "MaxIterationsReached"
	}
	return "Unknown"
}

// DiagnosticResult reports how a diagnostic solve ended, reaching the iteration cap is not an error
type DiagnosticResult struct {
	State            SolverState
	Iterations       int
	RelativeResidual float64
	History          []float64 // Relative residual before each iteration and after the last
}

/*
Linearization is the velocity matrix at one state with the constrained rows and columns eliminated, together with
its incomplete factorization, so that repeated solves against it share one assembly.
*/
type Linearization struct {
	A     *utils.CSR
	ss    *ShallowStream
	ilu   *linsolve.ILU
	Stats linsolve.Stats // Of the last solve
}

func (ss *ShallowStream) Linearize(s, h, beta, theta *fem.Field, u *fem.VectorField) (lin *Linearization, err error) {
	var (
		A *utils.CSR
	)
	if A, err = ss.VelocityMatrix(s, h, beta, theta, u); err != nil {
		return
	}
	A.ApplyBoundaryValues(ss.constraints.Dofs(), nil)
	A.SetReadOnly("VelocityMatrix")
	lin = &Linearization{A: A, ss: ss}
	// A failed factorization leaves the Jacobi fallback of linsolve.SolveCSR in place
	lin.ilu, _ = linsolve.NewILU0(A)
	return
}

// Solve returns x with A x = rhs on the free DOFs and zero on constrained DOFs
func (lin *Linearization) Solve(rhs []float64) ([]float64, error) {
	return lin.solve(rhs, false)
}

// SolveTrans returns x with A^T x = rhs on the free DOFs and zero on constrained DOFs
func (lin *Linearization) SolveTrans(rhs []float64) ([]float64, error) {
	return lin.solve(rhs, true)
}

func (lin *Linearization) solve(rhs []float64, trans bool) (x []float64, err error) {
	var (
		b        = utils.CopyOf(rhs)
		settings = lin.ss.Options.Linear
		res      linsolve.Result
	)
	lin.ss.constraints.Distribute(b)
	if lin.ilu != nil && settings.PSolve == nil {
		settings.PSolve = lin.ilu.PSolve
		if trans {
			settings.PSolve = lin.ilu.PSolveTrans
		}
	}
	if trans {
		res, err = linsolve.SolveCSRTrans(lin.A, b, settings)
	} else {
		res, err = linsolve.SolveCSR(lin.A, b, settings)
	}
	lin.Stats = res.Stats
	if err != nil {
		return nil, fmt.Errorf("velocity system: %w", err)
	}
	x = res.X
	lin.ss.constraints.Distribute(x)
	return
}

/*
DiagnosticSolve finds the velocity in balance with the driving stress by a damped Newton iteration started from u0.
Dirichlet values are those of u0, every increment vanishes on the constrained DOFs. The driving stress is assembled
once and its norm scales the residual, a zero driving stress uses a scale of one. Convergence is checked before each
iteration, so an initial guess already in balance is returned after zero iterations.
*/
func (ss *ShallowStream) DiagnosticSolve(s, h, beta, theta *fem.Field, u0 *fem.VectorField) (
	u *fem.VectorField, result DiagnosticResult, err error) {
	var (
		opts  = ss.Options
		tau   *fem.VectorField
		r     *fem.VectorField
		lin   *Linearization
		du    []float64
		scale float64
	)
	result.State = Initialized
	if err = ss.validate(s, h, beta, theta, u0); err != nil {
		return
	}
	u = u0.Copy()
	if tau, err = ss.DrivingStress(s, h); err != nil {
		return
	}
	if scale = utils.Norm2(tau.Coefficients()); scale == 0 {
		scale = 1
	}
	if r, err = ss.Residual(s, h, beta, theta, u, tau); err != nil {
		return
	}
	result.State = Iterating
	result.RelativeResidual = utils.Norm2(r.Coefficients()) / scale
	result.History = append(result.History, result.RelativeResidual)
	for {
		if utils.IsNan(result.RelativeResidual) {
			err = fmt.Errorf("%w after %d Newton iterations", ErrNonFinite, result.Iterations)
			return
		}
		if result.RelativeResidual <= opts.Tolerance {
			result.State = Converged
			break
		}
		if result.Iterations == opts.MaxIterations {
			result.State = MaxIterationsReached
			break
		}
		if lin, err = ss.Linearize(s, h, beta, theta, u); err != nil {
			return
		}
		if du, err = lin.Solve(r.Coefficients()); err != nil {
			err = fmt.Errorf("Newton iteration %d: %w", result.Iterations, err)
			return
		}
		utils.AddScaled(u.Coefficients(), opts.Damping, du)
		if r, err = ss.Residual(s, h, beta, theta, u, tau); err != nil {
			return
		}
		result.Iterations++
		result.RelativeResidual = utils.Norm2(r.Coefficients()) / scale
		result.History = append(result.History, result.RelativeResidual)
		if opts.Verbose {
			fmt.Printf("Newton iteration %d, relative residual %8.5e, CG iterations %d\n",
				result.Iterations, result.RelativeResidual, lin.Stats.Iterations)
		}
	}
	return
}
