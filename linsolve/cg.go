// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linsolve

import (
	"gonum.org/v1/gonum/floats"
)

// CG is the preconditioned conjugate gradient method for symmetric positive definite systems
type CG struct {
	first        bool
	rho, rhoPrev float64
	resume       int
	r, z, p, Ap  []float64
}

func (cg *CG) Init(dim int) {
	cg.first = true
	cg.resume = 1
	cg.r = reuse(cg.r, dim)
	cg.z = reuse(cg.z, dim)
	cg.p = reuse(cg.p, dim)
	cg.Ap = reuse(cg.Ap, dim)
}

func (cg *CG) Iterate(ctx *Context) (Operation, error) {
	switch cg.resume {
	case 1:
		if cg.first {
			copy(cg.r, ctx.Residual)
		}
		ctx.Src, ctx.Dst = cg.r, cg.z
		cg.resume = 2
		return PSolve, nil
		// Solve M z = r_{i-1}
	case 2:
		cg.rho = floats.Dot(cg.r, cg.z) // ρ_i = r_{i-1} · z
		if !cg.first {
			beta := cg.rho / cg.rhoPrev        // β = ρ_i / ρ_{i-1}
			floats.AddScaled(cg.z, beta, cg.p) // z = z + β p_{i-1}
		}
		copy(cg.p, cg.z) // p_i = z
		ctx.Src, ctx.Dst = cg.p, cg.Ap
		cg.resume = 3
		return MatVec, nil
		// Compute Ap_i
	case 3:
		pAp := floats.Dot(cg.p, cg.Ap)
		if !(pAp > 0) {
			cg.resume = 0
			return NoOperation, ErrBreakdown
		}
		alpha := cg.rho / pAp                 // α = ρ_i / (p_i · Ap_i)
		floats.AddScaled(cg.r, -alpha, cg.Ap) // r_i = r_{i-1} - α Ap_i
		floats.AddScaled(ctx.X, alpha, cg.p)  // x_i = x_{i-1} + α p_i
		copy(ctx.Residual, cg.r)
		ctx.ResidualNorm = floats.Norm(cg.r, 2)
		ctx.Src, ctx.Dst = nil, nil
		ctx.Converged = false
		cg.resume = 4
		return CheckResidualNorm, nil
	case 4:
		if ctx.Converged {
			cg.resume = 0
			return EndIteration, nil
		}
		cg.rhoPrev = cg.rho
		cg.first = false
		cg.resume = 1
		return EndIteration, nil

	default:
		panic("linsolve: CG.Init not called")
	}
}

func reuse(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	return v[:n]
}
