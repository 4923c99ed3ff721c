package fem

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

/*
LagrangeElement is the nodal P1 or P2 basis on the unit reference triangle. Nodes are the three vertices followed,
for P2, by the midpoints of faces 0, 1 and 2, face f joining vertex f to vertex (f+1)%3. The nodal basis is
obtained from the monomial Vandermonde matrix, phi_k(r,s) = sum_j Vinv[j,k] m_j(r,s).
*/
type LagrangeElement struct {
	N, Np  int
	R, S   []float64
	Vinv   *mat.Dense
	powers [][2]int
}

func NewLagrangeElement(N int) (el *LagrangeElement) {
	if N < 1 || N > 2 {
		panic(fmt.Errorf("polynomial order must be 1 or 2, have %d", N))
	}
	el = &LagrangeElement{
		N:  N,
		Np: (N + 1) * (N + 2) / 2,
	}
	for i := 0; i <= N; i++ {
		for j := 0; j <= N-i; j++ {
			el.powers = append(el.powers, [2]int{i, j})
		}
	}
	el.R = []float64{0, 1, 0}
	el.S = []float64{0, 0, 1}
	if N == 2 {
		el.R = append(el.R, 0.5, 0.5, 0)
		el.S = append(el.S, 0, 0.5, 0.5)
	}
	V := mat.NewDense(el.Np, el.Np, nil)
	for i := 0; i < el.Np; i++ {
		for j, p := range el.powers {
			V.Set(i, j, monomial(el.R[i], el.S[i], p[0], p[1]))
		}
	}
	el.Vinv = mat.NewDense(el.Np, el.Np, nil)
	if err := el.Vinv.Inverse(V); err != nil {
		panic(err)
	}
	return
}

// FaceNodes are the local node indices lying on face f
func (el *LagrangeElement) FaceNodes(f int) (nodes []int) {
	nodes = []int{f, (f + 1) % 3}
	if el.N == 2 {
		nodes = append(nodes, 3+f)
	}
	return
}

func (el *LagrangeElement) Basis(r, s float64) (phi []float64) {
	phi = make([]float64, el.Np)
	for j, p := range el.powers {
		m := monomial(r, s, p[0], p[1])
		for k := range phi {
			phi[k] += el.Vinv.At(j, k) * m
		}
	}
	return
}

func (el *LagrangeElement) GradBasis(r, s float64) (dr, ds []float64) {
	dr, ds = make([]float64, el.Np), make([]float64, el.Np)
	for j, p := range el.powers {
		var mr, ms float64
		if p[0] > 0 {
			mr = float64(p[0]) * monomial(r, s, p[0]-1, p[1])
		}
		if p[1] > 0 {
			ms = float64(p[1]) * monomial(r, s, p[0], p[1]-1)
		}
		for k := 0; k < el.Np; k++ {
			dr[k] += el.Vinv.At(j, k) * mr
			ds[k] += el.Vinv.At(j, k) * ms
		}
	}
	return
}

func monomial(r, s float64, i, j int) (m float64) {
	m = 1
	for n := 0; n < i; n++ {
		m *= r
	}
	for n := 0; n < j; n++ {
		m *= s
	}
	return
}
