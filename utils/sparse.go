package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// SparsityPattern holds the sorted, unique column indices of every row of a square system
type SparsityPattern struct {
	N       int
	Columns [][]int
}

// NewSparsityPattern couples every pair of DOFs that share a cell
func NewSparsityPattern(N int, cellDofs [][]int) (sp *SparsityPattern) {
	sp = &SparsityPattern{
		N:       N,
		Columns: make([][]int, N),
	}
	for _, dofs := range cellDofs {
		for _, i := range dofs {
			sp.Columns[i] = append(sp.Columns[i], dofs...)
		}
	}
	for i, cols := range sp.Columns {
		if len(cols) == 0 {
			// Unconnected DOFs still need a diagonal so the system stays square and solvable
			sp.Columns[i] = []int{i}
			continue
		}
		sort.Ints(cols)
		var n int
		for j, c := range cols {
			if j == 0 || c != cols[n-1] {
				cols[n] = c
				n++
			}
		}
		sp.Columns[i] = cols[:n]
	}
	return
}

func (sp *SparsityPattern) NNZ() (nnz int) {
	for _, cols := range sp.Columns {
		nnz += len(cols)
	}
	return
}

// CSR is a square sparse matrix with a fixed sparsity pattern, accumulated in place during assembly
type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

func NewCSR(sp *SparsityPattern) (R *CSR) {
	var (
		indptr = make([]int, sp.N+1)
	)
	for i, cols := range sp.Columns {
		indptr[i+1] = indptr[i] + len(cols)
	}
	ind := make([]int, indptr[sp.N])
	for i, cols := range sp.Columns {
		copy(ind[indptr[i]:indptr[i+1]], cols)
	}
	R = &CSR{
		M:    sparse.NewCSR(sp.N, sp.N, indptr, ind, make([]float64, len(ind))),
		name: "unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m *CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m *CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m *CSR) T() mat.Matrix                 { return m.M.T() }
func (m *CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m *CSR) Data() []float64               { return m.RawMatrix().Data }

func (m *CSR) SetReadOnly(name ...string) *CSR {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return m
}

func (m *CSR) SetWritable() *CSR {
	m.readOnly = false
	return m
}

// Row returns the column indices and values of row i, aliasing the matrix storage
func (m *CSR) Row(i int) (cols []int, vals []float64) {
	raw := m.RawMatrix()
	b, e := raw.Indptr[i], raw.Indptr[i+1]
	return raw.Ind[b:e], raw.Data[b:e]
}

func (m *CSR) index(i, j int) (k int) {
	raw := m.RawMatrix()
	b, e := raw.Indptr[i], raw.Indptr[i+1]
	k = b + sort.SearchInts(raw.Ind[b:e], j)
	if k == e || raw.Ind[k] != j {
		return -1
	}
	return
}

func (m *CSR) Zero() *CSR {
	m.checkWritable()
	ZeroArray(m.Data())
	return m
}

func (m *CSR) Add(i, j int, val float64) {
	m.checkWritable()
	k := m.index(i, j)
	if k < 0 {
		panic(fmt.Errorf("entry (%d,%d) is outside of the sparsity pattern of matrix \"%s\"", i, j, m.name))
	}
	m.Data()[k] += val
}

// AddLocal accumulates a row-major len(dofs) x len(dofs) cell matrix
func (m *CSR) AddLocal(dofs []int, local []float64) {
	var (
		n = len(dofs)
	)
	if len(local) != n*n {
		panic(fmt.Errorf("mismatch in local matrix: %d dofs, %d values", n, len(local)))
	}
	for a, i := range dofs {
		for b, j := range dofs {
			if val := local[a*n+b]; val != 0 {
				m.Add(i, j, val)
			}
		}
	}
}

// MulVecTo computes dst = A x
func (m *CSR) MulVecTo(dst, x []float64) {
	for i := range dst {
		dst[i] = 0
	}
	m.M.MulVecTo(dst, false, x)
}

// MulTransVecTo computes dst = A^T x
func (m *CSR) MulTransVecTo(dst, x []float64) {
	for i := range dst {
		dst[i] = 0
	}
	m.M.MulVecTo(dst, true, x)
}

func (m *CSR) Diagonal() (diag []float64) {
	var (
		n, _ = m.Dims()
	)
	diag = make([]float64, n)
	for i := 0; i < n; i++ {
		if k := m.index(i, i); k >= 0 {
			diag[i] = m.Data()[k]
		}
	}
	return
}

/*
ApplyBoundaryValues eliminates homogeneous Dirichlet rows and columns symmetrically. The diagonal of each
constrained row is kept (replaced by the mean diagonal when it is not positive) and the matching rhs entry is zeroed,
so the solution of the reduced system carries a zero increment on every constrained DOF.
*/
func (m *CSR) ApplyBoundaryValues(dofs []int, rhs []float64) {
	var (
		n, _   = m.Dims()
		mask   = make([]bool, n)
		diag   = m.Diagonal()
		meanD  float64
		nCount int
	)
	m.checkWritable()
	if len(dofs) == 0 {
		return
	}
	for _, d := range diag {
		if d > 0 {
			meanD += d
			nCount++
		}
	}
	if nCount == 0 {
		meanD = 1
	} else {
		meanD /= float64(nCount)
	}
	for _, i := range dofs {
		mask[i] = true
	}
	for i := 0; i < n; i++ {
		cols, vals := m.Row(i)
		for k, j := range cols {
			if (mask[i] || mask[j]) && i != j {
				vals[k] = 0
			}
		}
	}
	for _, i := range dofs {
		if diag[i] <= 0 {
			m.Data()[m.index(i, i)] = meanD
		}
		if rhs != nil {
			rhs[i] = 0
		}
	}
}

func (m *CSR) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}
