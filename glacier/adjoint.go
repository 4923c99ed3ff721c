package glacier

import (
	"github.com/benhills/icepack/fem"
)

/*
AdjointSolve returns lambda solving the transposed velocity system A^T lambda = f at the state u, with lambda zero on
the constrained DOFs. With f the derivative of a functional of the velocity, lambda is the adjoint state used to
form the derivative of that functional with respect to the parameters.
*/
func (ss *ShallowStream) AdjointSolve(s, h, beta, theta *fem.Field, u, f *fem.VectorField) (
	lambda *fem.VectorField, err error) {
	var (
		lin *Linearization
		x   []float64
	)
	if err = ss.checkVector(f); err != nil {
		return
	}
	if lin, err = ss.Linearize(s, h, beta, theta, u); err != nil {
		return
	}
	if x, err = lin.SolveTrans(f.Coefficients()); err != nil {
		return
	}
	lambda = fem.NewVectorField(ss.Vector)
	copy(lambda.Coefficients(), x)
	return
}

/*
sensitivityStress is the derivative of the membrane stress 2 h nu C eps(u) with respect to theta. The viscosity
scales as A^(-1/n) and A as exp(theta), so the derivative is the stress times -1/n.
*/
func (ss *ShallowStream) sensitivityStress(h, theta *fem.Field, u *fem.VectorField, cv *fem.CellValues, q int) Sym2 {
	var (
		c   = ss.Constants
		eps = StrainRate(u.GradientAt(cv, q))
		M   = c.NonlinearTensor(ss.fluidity(theta, cv, q), h.ValueAt(cv, q), eps).Apply(eps)
	)
	return M.Scale(-1 / c.GlenExponent)
}

/*
ParameterSensitivity is the directional derivative of the velocity operator, the negative residual, with respect to
theta in the direction v. Entries on constrained DOFs are zero.
*/
func (ss *ShallowStream) ParameterSensitivity(s, h, theta *fem.Field, u *fem.VectorField, v *fem.Field) (
	dF *fem.VectorField, err error) {
	if err = ss.validate(s, h, theta, v, u); err != nil {
		return
	}
	Np := ss.Vector.Element.Np
	dF = fem.NewVectorField(ss.Vector)
	ss.forEachCell(2*Np, func(cv *fem.CellValues, out []float64) {
		for q := 0; q < cv.Nq; q++ {
			dM := ss.sensitivityStress(h, theta, u, cv, q).Scale(v.ValueAt(cv, q) * cv.JxW[q])
			for i := 0; i < Np; i++ {
				g := cv.Grad[q][i]
				out[2*i] += basisStrain(g, 0).Dot(dM)
				out[2*i+1] += basisStrain(g, 1).Dot(dM)
			}
		}
	}, ss.accumulateVector(dF.Coefficients()))
	ss.constraints.Distribute(dF.Coefficients())
	return
}

// ParameterSensitivityTranspose applies the transpose of ParameterSensitivity to a velocity like field lambda
func (ss *ShallowStream) ParameterSensitivityTranspose(s, h, theta *fem.Field, u, lambda *fem.VectorField) (
	dF *fem.Field, err error) {
	if err = ss.validate(s, h, theta, nil, u, lambda); err != nil {
		return
	}
	var (
		Np = ss.Scalar.Element.Np
		l  = lambda.Copy()
	)
	ss.constraints.Distribute(l.Coefficients())
	dF = fem.NewField(ss.Scalar)
	D := dF.Coefficients()
	ss.forEachCell(Np, func(cv *fem.CellValues, out []float64) {
		for q := 0; q < cv.Nq; q++ {
			var (
				epsL = StrainRate(l.GradientAt(cv, q))
				val  = epsL.Dot(ss.sensitivityStress(h, theta, u, cv, q)) * cv.JxW[q]
			)
			for i := 0; i < Np; i++ {
				out[i] += val * cv.Phi[q][i]
			}
		}
	}, func(k int, out []float64) {
		for i, d := range ss.Scalar.ScalarCellDofs(k) {
			D[d] += out[i]
		}
	})
	return
}
