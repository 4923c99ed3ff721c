package inverse

import (
	"fmt"

	"github.com/benhills/icepack/fem"
	"github.com/benhills/icepack/utils"
	"gonum.org/v1/gonum/floats"
)

/*
Misfit is the observational misfit E(u) = 1/2 int (ux - uox)^2/sx^2 + (uy - uoy)^2/sy^2. It is quadratic, so it is
held as the weighted vector mass matrix M and E(u) = 1/2 (u - uo)^T M (u - uo).
*/
type Misfit struct {
	UObs           *fem.VectorField
	SigmaX, SigmaY *fem.Field
	M              *utils.CSR
}

func NewMisfit(uObs *fem.VectorField, sigmaX, sigmaY *fem.Field) (mf *Misfit, err error) {
	vs := uObs.Space()
	for _, sigma := range []*fem.Field{sigmaX, sigmaY} {
		if err = vs.CheckSameMesh(sigma.Space()); err != nil {
			return
		}
		if floats.Min(sigma.Coefficients()) <= 0 {
			return nil, fmt.Errorf("%w: observation standard deviations must be positive", ErrInvalidOptions)
		}
	}
	mf = &Misfit{UObs: uObs, SigmaX: sigmaX, SigmaY: sigmaY}
	mf.M = fem.MassMatrix(vs, func(cv *fem.CellValues, q, c int) float64 {
		sigma := sigmaX.ValueAt(cv, q)
		if c == 1 {
			sigma = sigmaY.ValueAt(cv, q)
		}
		return 1 / (sigma * sigma)
	}).SetReadOnly("Misfit")
	return
}

func (mf *Misfit) difference(u *fem.VectorField) (d []float64) {
	d = utils.CopyOf(u.Coefficients())
	floats.Sub(d, mf.UObs.Coefficients())
	return
}

func (mf *Misfit) Value(u *fem.VectorField) float64 {
	var (
		d  = mf.difference(u)
		Md = make([]float64, len(d))
	)
	mf.M.MulVecTo(Md, d)
	return 0.5 * floats.Dot(d, Md)
}

// Derivative is dE/du, a vector in the dual of the velocity space
func (mf *Misfit) Derivative(u *fem.VectorField) (dE []float64) {
	dE = make([]float64, len(u.Coefficients()))
	mf.M.MulVecTo(dE, mf.difference(u))
	return
}

func (mf *Misfit) HessianAction(v []float64) (Hv []float64) {
	Hv = make([]float64, len(v))
	mf.M.MulVecTo(Hv, v)
	return
}

/*
Regularization penalizes the roughness of the parameter, R(theta) = L^2 / (2 Theta^2) int |grad theta|^2, held as
the scaled stiffness matrix K so that R = 1/2 theta^T K theta.
*/
type Regularization struct {
	L, Theta float64
	K        *utils.CSR
	space    *fem.Space
}

func NewRegularization(sp *fem.Space, L, Theta float64) (reg *Regularization) {
	reg = &Regularization{L: L, Theta: Theta, K: fem.LaplaceMatrix(sp), space: sp}
	floats.Scale(L*L/(Theta*Theta), reg.K.Data())
	reg.K.SetReadOnly("Regularization")
	return
}

func (reg *Regularization) Space() *fem.Space { return reg.space }

func (reg *Regularization) Value(theta *fem.Field) float64 {
	t := theta.Coefficients()
	return 0.5 * floats.Dot(t, reg.HessianAction(t))
}

func (reg *Regularization) Derivative(theta *fem.Field) []float64 {
	return reg.HessianAction(theta.Coefficients())
}

func (reg *Regularization) HessianAction(v []float64) (Hv []float64) {
	Hv = make([]float64, len(v))
	reg.K.MulVecTo(Hv, v)
	return
}
