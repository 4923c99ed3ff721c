// Package inverse estimates the fluidity parameter theta from observed velocities by minimizing the misfit plus a
// roughness penalty, with a Gauss-Newton method or with L-BFGS.
package inverse

import (
	"fmt"

	"github.com/benhills/icepack/fem"
	"github.com/benhills/icepack/glacier"
	"github.com/benhills/icepack/utils"
	"gonum.org/v1/gonum/floats"
)

// HessianOperator stores into dst the action of a Hessian on v
type HessianOperator func(dst, v []float64) error

/*
Problem holds the forward model, its fixed inputs and the current parameter with its velocity. The velocity is kept
in balance with the parameter, every change of the parameter goes through Solve.
*/
type Problem struct {
	Model          *glacier.ShallowStream
	S, H, Beta     *fem.Field
	U              *fem.VectorField
	Theta          *fem.Field
	Misfit         *Misfit
	Regularization *Regularization
	Diagnostic     glacier.DiagnosticResult // Of the last forward solve
	lin            *glacier.Linearization
}

/*
NewProblem solves the forward model at theta0 starting from u0, whose values on the Dirichlet boundary are kept for
every later solve.
*/
func NewProblem(model *glacier.ShallowStream, s, h, beta *fem.Field, u0 *fem.VectorField, theta0 *fem.Field,
	misfit *Misfit, reg *Regularization) (p *Problem, err error) {
	if err = model.Vector.CheckSameSpace(misfit.UObs.Space()); err != nil {
		return
	}
	if err = model.Scalar.CheckSameSpace(reg.Space()); err != nil {
		return
	}
	p = &Problem{
		Model: model, S: s, H: h, Beta: beta,
		U:              u0.Copy(),
		Theta:          theta0.Copy(),
		Misfit:         misfit,
		Regularization: reg,
	}
	if err = p.Solve(theta0); err != nil {
		return nil, err
	}
	return
}

/*
Solve sets the parameter to theta and brings the velocity into balance with it, starting Newton from the current
velocity. Reaching the Newton iteration cap is recorded in Diagnostic, not returned.
*/
func (p *Problem) Solve(theta *fem.Field) (err error) {
	var (
		u   *fem.VectorField
		res glacier.DiagnosticResult
	)
	if err = p.Theta.CheckSameSpace(theta); err != nil {
		return
	}
	if u, res, err = p.Model.DiagnosticSolve(p.S, p.H, p.Beta, theta, p.U); err != nil {
		return fmt.Errorf("forward solve: %w", err)
	}
	_ = p.Theta.CopyFrom(theta)
	_ = p.U.CopyFrom(u)
	p.Diagnostic = res
	p.lin = nil
	return
}

// SetCoefficients solves at the parameter with coefficients x
func (p *Problem) SetCoefficients(x []float64) error {
	theta := fem.NewField(p.Theta.Space())
	copy(theta.Coefficients(), x)
	return p.Solve(theta)
}

func (p *Problem) Objective() float64 {
	return p.Misfit.Value(p.U) + p.Regularization.Value(p.Theta)
}

func (p *Problem) linearization() (lin *glacier.Linearization, err error) {
	if p.lin == nil {
		if p.lin, err = p.Model.Linearize(p.S, p.H, p.Beta, p.Theta, p.U); err != nil {
			return
		}
	}
	return p.lin, nil
}

/*
Gradient is the derivative of the objective with respect to the parameter coefficients. The adjoint state lambda
solves A^T lambda = dE/du, so that dJ = dR/dtheta - dF/dtheta^T lambda.
*/
func (p *Problem) Gradient() (dJ *fem.Field, err error) {
	var (
		lin    *glacier.Linearization
		x      []float64
		lambda = fem.NewVectorField(p.U.Space())
		FT     *fem.Field
	)
	if lin, err = p.linearization(); err != nil {
		return
	}
	if x, err = lin.SolveTrans(p.Misfit.Derivative(p.U)); err != nil {
		return nil, fmt.Errorf("adjoint solve: %w", err)
	}
	copy(lambda.Coefficients(), x)
	if FT, err = p.Model.ParameterSensitivityTranspose(p.S, p.H, p.Theta, p.U, lambda); err != nil {
		return
	}
	dJ = fem.NewField(p.Theta.Space())
	copy(dJ.Coefficients(), p.Regularization.Derivative(p.Theta))
	utils.AddScaled(dJ.Coefficients(), -1, FT.Coefficients())
	return
}

/*
GaussNewtonHessian returns the Gauss-Newton approximation of the Hessian at the current state,
H v = G^T M G v + K v, where G = -A^-1 dF/dtheta is the derivative of the velocity with respect to the parameter.
The operator is symmetric positive semi-definite and stays tied to the state at which it was formed.
*/
func (p *Problem) GaussNewtonHessian() (H HessianOperator, err error) {
	var (
		lin            *glacier.Linearization
		s, h, theta, u = p.S, p.H, p.Theta.Copy(), p.U.Copy()
		model          = p.Model
		misfit, reg    = p.Misfit, p.Regularization
	)
	if lin, err = p.linearization(); err != nil {
		return
	}
	H = func(dst, v []float64) (err error) {
		var (
			vf   = fem.NewField(theta.Space())
			dF   *fem.VectorField
			w, z []float64
			zf   = fem.NewVectorField(u.Space())
			FT   *fem.Field
		)
		copy(vf.Coefficients(), v)
		if dF, err = model.ParameterSensitivity(s, h, theta, u, vf); err != nil {
			return
		}
		floats.Scale(-1, dF.Coefficients())
		if w, err = lin.Solve(dF.Coefficients()); err != nil {
			return fmt.Errorf("sensitivity solve: %w", err)
		}
		if z, err = lin.SolveTrans(misfit.HessianAction(w)); err != nil {
			return fmt.Errorf("adjoint sensitivity solve: %w", err)
		}
		copy(zf.Coefficients(), z)
		if FT, err = model.ParameterSensitivityTranspose(s, h, theta, u, zf); err != nil {
			return
		}
		copy(dst, reg.HessianAction(v))
		utils.AddScaled(dst, -1, FT.Coefficients())
		return
	}
	return
}
