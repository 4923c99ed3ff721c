// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linsolve provides a reverse communication preconditioned conjugate gradient method and incomplete
// factorizations of the assembled sparse systems.
package linsolve

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// MatrixOps describes the matrix of the linear system
type MatrixOps struct {
	// Compute A*x and store the result into dst, must be non-nil
	MatVec func(dst, x []float64)
}

type Settings struct {
	// X0 is an initial guess, nil means the zero vector
	X0 []float64
	// Tolerance on the residual norm, converged once |r| < Tolerance * max(1, |b|). The test is relative to |b|
	// when |b| > 1 and absolute below, so a tolerance near machine precision stays reachable for the large right
	// hand sides of the velocity system, where |tau| is of order 1e5.
	Tolerance float64
	// Zero selects the default of 1000
	MaxIterations int
	// PSolve stores into dst the solution of M z = rhs, nil means no preconditioning
	PSolve func(dst, rhs []float64) error
}

func DefaultSettings() Settings {
	return Settings{
		Tolerance:     1.e-12,
		MaxIterations: 1000,
	}
}

func defaultSettings(s *Settings) {
	d := DefaultSettings()
	if s.Tolerance == 0 {
		s.Tolerance = d.Tolerance
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = d.MaxIterations
	}
}

// Operation specifies the type of operation
type Operation uint64

// Operations commanded by Method.Iterate
const (
	NoOperation Operation = 0

	// Multiply A*x where x is stored in Context.Src and the result will be stored in Context.Dst
	MatVec Operation = 1 << (iota - 1)

	// Do the preconditioner solve M z = r, r in Context.Src, z into Context.Dst
	PSolve

	// Check convergence using Context.ResidualNorm, set Context.Converged before calling Iterate again
	CheckResidualNorm

	// EndIteration marks one completed iteration, if Context.Converged is true the process is terminated
	EndIteration
)

// Method produces a sequence of vectors converging to the solution of A x = b, commanding the caller to perform
// the operations it needs through the Operation returned from Iterate.
type Method interface {
	Init(dim int)
	Iterate(*Context) (Operation, error)
}

// Context mediates the communication between a Method and the caller
type Context struct {
	X            []float64
	Residual     []float64
	ResidualNorm float64
	Converged    bool
	Src, Dst     []float64
}

type Stats struct {
	Iterations   int
	MatVec       int
	PSolve       int
	ResidualNorm float64
	StartTime    time.Time
	Runtime      time.Duration
}

type Result struct {
	X     []float64
	Stats Stats
}

/*
Solve runs method on A x = b. Reaching MaxIterations returns the last iterate together with a *SolverError wrapping
ErrIterationLimit, so callers that accept a truncated solve can still use Result.X.
*/
func Solve(a MatrixOps, b []float64, method Method, settings Settings) (res Result, err error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	switch {
	case dim == 0:
		panic("linsolve: zero dimension")
	case a.MatVec == nil:
		panic("linsolve: nil matrix-vector multiplication")
	case settings.X0 != nil && len(settings.X0) != dim:
		panic("linsolve: mismatched length of initial guess")
	}
	defaultSettings(&settings)
	if settings.Tolerance < dlamchE || 1 <= settings.Tolerance {
		panic(fmt.Errorf("linsolve: invalid tolerance %g", settings.Tolerance))
	}

	ctx := &Context{
		X:        make([]float64, dim),
		Residual: make([]float64, dim),
	}
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		// The solution of a homogeneous system is zero regardless of the initial guess
		stats.Runtime = time.Since(stats.StartTime)
		return Result{X: ctx.X, Stats: stats}, nil
	}
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax
	} else {
		copy(ctx.Residual, b)
	}
	ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
	threshold := settings.Tolerance * math.Max(1, bnorm)
	if ctx.ResidualNorm >= threshold {
		err = iterate(a, ctx, settings, threshold, method, &stats)
	}
	stats.ResidualNorm = ctx.ResidualNorm
	stats.Runtime = time.Since(stats.StartTime)
	return Result{X: ctx.X, Stats: stats}, err
}

func iterate(a MatrixOps, ctx *Context, settings Settings, threshold float64, method Method, stats *Stats) error {
	method.Init(len(ctx.X))
	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			return &SolverError{Iterations: stats.Iterations, ResidualNorm: ctx.ResidualNorm, Wrapped: err}
		}
		switch op {
		case NoOperation:

		case MatVec:
			a.MatVec(ctx.Dst, ctx.Src)
			stats.MatVec++

		case PSolve:
			if settings.PSolve == nil {
				copy(ctx.Dst, ctx.Src)
				continue
			}
			if err = settings.PSolve(ctx.Dst, ctx.Src); err != nil {
				return err
			}
			stats.PSolve++

		case CheckResidualNorm:
			ctx.Converged = ctx.ResidualNorm < threshold

		case EndIteration:
			stats.Iterations++
			stats.ResidualNorm = ctx.ResidualNorm
			if ctx.Converged {
				return nil
			}
			if stats.Iterations == settings.MaxIterations {
				return &SolverError{Iterations: stats.Iterations, ResidualNorm: ctx.ResidualNorm,
					Wrapped: ErrIterationLimit}
			}

		default:
			panic("linsolve: invalid operation")
		}
	}
}

const dlamchE = 1.0 / (1 << 53)
