package fem

import (
	"github.com/benhills/icepack/utils"
)

// AssembleMatrix zeroes A and accumulates one dense local matrix per cell, local is row-major in CellDofs order
func AssembleMatrix(sp *Space, A *utils.CSR, local func(cv *CellValues, K []float64)) {
	var (
		cv = sp.NewCellValues()
		n  = sp.Components * sp.Element.Np
		K  = make([]float64, n*n)
	)
	A.Zero()
	for k := 0; k < sp.Mesh.NumCells(); k++ {
		cv.Reinit(k)
		for i := range K {
			K[i] = 0
		}
		local(cv, K)
		A.AddLocal(sp.CellDofs(k), K)
	}
}

/*
MassMatrix assembles the weighted L2 Gram matrix of the space. weight gives the integrand weight of one component at
a cubature point, a nil weight is 1. The vector mass matrix is block diagonal in the components.
*/
func MassMatrix(sp *Space, weight func(cv *CellValues, q, component int) float64) (M *utils.CSR) {
	var (
		nc = sp.Components
		Np = sp.Element.Np
		n  = nc * Np
	)
	M = sp.NewMatrix()
	AssembleMatrix(sp, M, func(cv *CellValues, K []float64) {
		for q := 0; q < cv.Nq; q++ {
			for c := 0; c < nc; c++ {
				w := cv.JxW[q]
				if weight != nil {
					w *= weight(cv, q, c)
				}
				for i := 0; i < Np; i++ {
					for j := 0; j < Np; j++ {
						K[(nc*i+c)*n+nc*j+c] += w * cv.Phi[q][i] * cv.Phi[q][j]
					}
				}
			}
		}
	})
	return
}

// LaplaceMatrix assembles the stiffness matrix of grad phi_i . grad phi_j, componentwise for vector spaces
func LaplaceMatrix(sp *Space) (L *utils.CSR) {
	var (
		nc = sp.Components
		Np = sp.Element.Np
		n  = nc * Np
	)
	L = sp.NewMatrix()
	AssembleMatrix(sp, L, func(cv *CellValues, K []float64) {
		for q := 0; q < cv.Nq; q++ {
			for i := 0; i < Np; i++ {
				gi := cv.Grad[q][i]
				for j := 0; j < Np; j++ {
					gj := cv.Grad[q][j]
					val := cv.JxW[q] * (gi[0]*gj[0] + gi[1]*gj[1])
					for c := 0; c < nc; c++ {
						K[(nc*i+c)*n+nc*j+c] += val
					}
				}
			}
		}
	})
	return
}
