package glacier

import (
	"math"
)

// Sym2 is a symmetric 2x2 tensor
type Sym2 struct {
	XX, YY, XY float64
}

// StrainRate is the symmetric part of a velocity gradient, G[c][j] = du_c/dx_j
func StrainRate(G [2][2]float64) Sym2 {
	return Sym2{XX: G[0][0], YY: G[1][1], XY: 0.5 * (G[0][1] + G[1][0])}
}

// basisStrain is the strain rate of the vector basis function phi e_c with gradient g
func basisStrain(g [2]float64, c int) Sym2 {
	if c == 0 {
		return Sym2{XX: g[0], XY: 0.5 * g[1]}
	}
	return Sym2{YY: g[1], XY: 0.5 * g[0]}
}

func (a Sym2) Trace() float64 { return a.XX + a.YY }

// Dot is the double contraction a:b
func (a Sym2) Dot(b Sym2) float64 { return a.XX*b.XX + a.YY*b.YY + 2*a.XY*b.XY }

func (a Sym2) Scale(f float64) Sym2 { return Sym2{f * a.XX, f * a.YY, f * a.XY} }

func (a Sym2) Add(b Sym2) Sym2 { return Sym2{a.XX + b.XX, a.YY + b.YY, a.XY + b.XY} }

// PlusTrace is a + tr(a) I, the action of C = II + I (x) I
func (a Sym2) PlusTrace() Sym2 {
	tr := a.Trace()
	return Sym2{a.XX + tr, a.YY + tr, a.XY}
}

/*
Tensor4 is a rank 4 tensor on symmetric 2x2 tensors of the form Alpha C + Beta Gamma (x) Gamma, with C = II + I (x) I.
Both constitutive tensors of the shallow stream equations have this form.
*/
type Tensor4 struct {
	Alpha, Beta float64
	Gamma       Sym2
}

func (T Tensor4) Apply(e Sym2) Sym2 {
	return e.PlusTrace().Scale(T.Alpha).Add(T.Gamma.Scale(T.Beta * T.Gamma.Dot(e)))
}

// Contract is a:T:b
func (T Tensor4) Contract(a, b Sym2) float64 { return a.Dot(T.Apply(b)) }

// EffectiveStrainRate is sqrt((eps:eps + tr(eps)^2)/2 + floor^2)
func EffectiveStrainRate(eps Sym2, floor float64) float64 {
	tr := eps.Trace()
	return math.Sqrt((eps.Dot(eps)+tr*tr)/2 + floor*floor)
}

// NonlinearTensor is 2 h nu C, the tensor relating strain rate to depth integrated membrane stress
func (c Constants) NonlinearTensor(A, h float64, eps Sym2) Tensor4 {
	nu := h * c.Viscosity(A, EffectiveStrainRate(eps, c.StrainRateMin))
	return Tensor4{Alpha: 2 * nu}
}

/*
LinearizedTensor is the derivative of the membrane stress with respect to the strain rate,
2 h nu (C + (1-n)/(2n) gamma (x) gamma) with gamma = (eps + tr(eps) I) / epsE. It is symmetric positive definite.
*/
func (c Constants) LinearizedTensor(A, h float64, eps Sym2) Tensor4 {
	var (
		n    = c.GlenExponent
		epsE = EffectiveStrainRate(eps, c.StrainRateMin)
		nu   = h * c.Viscosity(A, epsE)
	)
	return Tensor4{
		Alpha: 2 * nu,
		Beta:  2 * nu * (1 - n) / (2 * n),
		Gamma: eps.PlusTrace().Scale(1 / epsE),
	}
}
