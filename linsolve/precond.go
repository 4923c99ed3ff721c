package linsolve

import (
	"fmt"

	"github.com/benhills/icepack/utils"
)

/*
ILU is the zero fill incomplete LU factorization of a CSR matrix, stored in the pattern of the matrix. L has a unit
diagonal and is held below the diagonal, U on and above it. For a symmetric matrix with a symmetric pattern the
factors satisfy U = D L^T, so the preconditioner is symmetric and usable with CG.
*/
type ILU struct {
	n      int
	indptr []int
	ind    []int
	data   []float64
	diag   []int // Position of the diagonal entry of each row
}

func NewILU0(A *utils.CSR) (ilu *ILU, err error) {
	var (
		raw  = A.RawMatrix()
		n, _ = A.Dims()
	)
	ilu = &ILU{
		n:      n,
		indptr: raw.Indptr,
		ind:    raw.Ind,
		data:   utils.CopyOf(raw.Data),
		diag:   make([]int, n),
	}
	for i := 0; i < n; i++ {
		ilu.diag[i] = -1
		for k := ilu.indptr[i]; k < ilu.indptr[i+1]; k++ {
			if ilu.ind[k] == i {
				ilu.diag[i] = k
				break
			}
		}
		if ilu.diag[i] < 0 {
			return nil, fmt.Errorf("%w: row %d has no diagonal entry", ErrBreakdown, i)
		}
	}
	// Marker of the position of column j within the current row i
	pos := make([]int, n)
	for j := range pos {
		pos[j] = -1
	}
	for i := 0; i < n; i++ {
		b, e := ilu.indptr[i], ilu.indptr[i+1]
		for k := b; k < e; k++ {
			pos[ilu.ind[k]] = k
		}
		for k := b; k < e && ilu.ind[k] < i; k++ {
			kk := ilu.ind[k]
			piv := ilu.data[ilu.diag[kk]]
			if piv == 0 {
				return nil, fmt.Errorf("%w: zero pivot in row %d", ErrBreakdown, kk)
			}
			ilu.data[k] /= piv
			lik := ilu.data[k]
			for m := ilu.diag[kk] + 1; m < ilu.indptr[kk+1]; m++ {
				if p := pos[ilu.ind[m]]; p >= 0 {
					ilu.data[p] -= lik * ilu.data[m]
				}
			}
		}
		for k := b; k < e; k++ {
			pos[ilu.ind[k]] = -1
		}
		if ilu.data[ilu.diag[i]] == 0 {
			return nil, fmt.Errorf("%w: zero pivot in row %d", ErrBreakdown, i)
		}
	}
	return
}

// PSolve solves L U z = r
func (ilu *ILU) PSolve(z, r []float64) error {
	copy(z, r)
	for i := 0; i < ilu.n; i++ {
		for k := ilu.indptr[i]; k < ilu.diag[i]; k++ {
			z[i] -= ilu.data[k] * z[ilu.ind[k]]
		}
	}
	for i := ilu.n - 1; i >= 0; i-- {
		for k := ilu.diag[i] + 1; k < ilu.indptr[i+1]; k++ {
			z[i] -= ilu.data[k] * z[ilu.ind[k]]
		}
		z[i] /= ilu.data[ilu.diag[i]]
	}
	return nil
}

// PSolveTrans solves U^T L^T z = r
func (ilu *ILU) PSolveTrans(z, r []float64) error {
	copy(z, r)
	// U^T is lower triangular, sweep rows of U forward scattering into later entries
	for i := 0; i < ilu.n; i++ {
		z[i] /= ilu.data[ilu.diag[i]]
		for k := ilu.diag[i] + 1; k < ilu.indptr[i+1]; k++ {
			z[ilu.ind[k]] -= ilu.data[k] * z[i]
		}
	}
	// L^T is unit upper triangular
	for i := ilu.n - 1; i >= 0; i-- {
		for k := ilu.indptr[i]; k < ilu.diag[i]; k++ {
			z[ilu.ind[k]] -= ilu.data[k] * z[i]
		}
	}
	return nil
}

// Jacobi is the diagonal preconditioner
type Jacobi struct {
	invDiag []float64
}

func NewJacobi(A *utils.CSR) (jac *Jacobi, err error) {
	diag := A.Diagonal()
	jac = &Jacobi{invDiag: make([]float64, len(diag))}
	for i, d := range diag {
		if d == 0 {
			return nil, fmt.Errorf("%w: zero diagonal in row %d", ErrBreakdown, i)
		}
		jac.invDiag[i] = 1 / d
	}
	return
}

func (jac *Jacobi) PSolve(z, r []float64) error {
	for i := range z {
		z[i] = r[i] * jac.invDiag[i]
	}
	return nil
}

/*
SolveCSR solves A x = b with ILU(0) preconditioned CG, falling back to Jacobi preconditioning when the incomplete
factorization breaks down. A supplied settings.PSolve is used as given.
*/
func SolveCSR(A *utils.CSR, b []float64, settings Settings) (Result, error) {
	return solveCSR(A, b, settings, false)
}

// SolveCSRTrans solves A^T x = b, used by adjoint solves
func SolveCSRTrans(A *utils.CSR, b []float64, settings Settings) (Result, error) {
	return solveCSR(A, b, settings, true)
}

func solveCSR(A *utils.CSR, b []float64, settings Settings, trans bool) (res Result, err error) {
	ops := MatrixOps{MatVec: A.MulVecTo}
	if trans {
		ops.MatVec = A.MulTransVecTo
	}
	if settings.PSolve == nil {
		if ilu, ierr := NewILU0(A); ierr == nil {
			settings.PSolve = ilu.PSolve
			if trans {
				settings.PSolve = ilu.PSolveTrans
			}
		} else if jac, jerr := NewJacobi(A); jerr == nil {
			settings.PSolve = jac.PSolve
		}
	}
	return Solve(ops, b, &CG{}, settings)
}
