package linsolve

import (
	"errors"
	"testing"

	"github.com/benhills/icepack/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// tridiagonal builds a matrix with the given bands on the 1D chain pattern
func tridiagonal(N int, lower, diag, upper float64) (A *utils.CSR) {
	cellDofs := make([][]int, N-1)
	for i := range cellDofs {
		cellDofs[i] = []int{i, i + 1}
	}
	A = utils.NewCSR(utils.NewSparsityPattern(N, cellDofs))
	for i := 0; i < N; i++ {
		A.Add(i, i, diag)
		if i > 0 {
			A.Add(i, i-1, lower)
		}
		if i < N-1 {
			A.Add(i, i+1, upper)
		}
	}
	return
}

func TestCG(t *testing.T) {
	N := 50
	A := tridiagonal(N, -1, 2.5, -1)
	xTrue := make([]float64, N)
	for i := range xTrue {
		xTrue[i] = float64(i%7) - 3
	}
	b := make([]float64, N)
	A.MulVecTo(b, xTrue)
	{ // Test unpreconditioned CG
		res, err := Solve(MatrixOps{MatVec: A.MulVecTo}, b, &CG{}, Settings{})
		require.NoError(t, err)
		assert.InDeltaSlice(t, xTrue, res.X, 1.e-9)
		assert.True(t, res.Stats.Iterations > 1)
		assert.Equal(t, 0, res.Stats.PSolve)
	}
	{ // Test ILU(0) is exact on a tridiagonal matrix
		res, err := SolveCSR(A, b, DefaultSettings())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Stats.Iterations)
		assert.InDeltaSlice(t, xTrue, res.X, 1.e-10)
	}
	{ // Test an initial guess equal to the solution needs no iterations
		s := DefaultSettings()
		s.X0 = xTrue
		res, err := SolveCSR(A, b, s)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Stats.Iterations)
	}
	{ // Test a zero right hand side returns zero
		s := DefaultSettings()
		s.X0 = xTrue
		res, err := SolveCSR(A, make([]float64, N), s)
		require.NoError(t, err)
		assert.Equal(t, 0., utils.MaxAbs(res.X))
	}
	{ // Test the tolerance is relative to |b| above one and absolute below
		bnorm := floats.Norm(b, 2)
		big, small := make([]float64, N), make([]float64, N)
		floats.ScaleTo(big, 1.e6, b)
		floats.ScaleTo(small, 1.e-6/bnorm/2, b)
		res, err := SolveCSR(A, big, DefaultSettings())
		require.NoError(t, err)
		assert.True(t, res.Stats.ResidualNorm < 1.e-12*1.e6*bnorm)
		assert.InDeltaSlice(t, xTrue, floats.ScaleTo(make([]float64, N), 1.e-6, res.X), 1.e-9)
		res, err = SolveCSR(A, small, Settings{Tolerance: 1.e-6})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Stats.Iterations)
		assert.Equal(t, 0., utils.MaxAbs(res.X))
	}
	{ // Test the iteration cap is reported as a solver failure
		res, err := Solve(MatrixOps{MatVec: A.MulVecTo}, b, &CG{}, Settings{MaxIterations: 2})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIterationLimit))
		var se *SolverError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, 2, se.Iterations)
		assert.Equal(t, 2, res.Stats.Iterations)
		assert.True(t, se.ResidualNorm > 0)
	}
}

func TestCGBreakdown(t *testing.T) {
	A := tridiagonal(2, 0, 1, 0)
	A.Add(1, 1, -2) // diag(1, -1)
	_, err := Solve(MatrixOps{MatVec: A.MulVecTo}, []float64{1, 1}, &CG{}, Settings{})
	assert.True(t, errors.Is(err, ErrBreakdown))
}

func TestPreconditioners(t *testing.T) {
	N := 20
	A := tridiagonal(N, -1, 4, -2) // nonsymmetric
	r := make([]float64, N)
	for i := range r {
		r[i] = float64(i + 1)
	}
	z, Az := make([]float64, N), make([]float64, N)
	ilu, err := NewILU0(A)
	require.NoError(t, err)
	require.NoError(t, ilu.PSolve(z, r))
	A.MulVecTo(Az, z)
	assert.InDeltaSlice(t, r, Az, 1.e-12)
	require.NoError(t, ilu.PSolveTrans(z, r))
	A.MulTransVecTo(Az, z)
	assert.InDeltaSlice(t, r, Az, 1.e-12)

	D := tridiagonal(N, 0, 3, 0)
	jac, err := NewJacobi(D)
	require.NoError(t, err)
	require.NoError(t, jac.PSolve(z, r))
	assert.InDelta(t, 2., z[5], 1.e-15)

	Z := tridiagonal(N, 1, 0, 1)
	_, err = NewJacobi(Z)
	assert.True(t, errors.Is(err, ErrBreakdown))
	_, err = NewILU0(Z)
	assert.True(t, errors.Is(err, ErrBreakdown))
}

func TestSolveCSRTrans(t *testing.T) {
	N := 30
	A := tridiagonal(N, -1, 3, -1)
	A.Add(0, 1, 0.5) // remains symmetric positive definite
	A.Add(1, 0, 0.5)
	b := utils.ConstArray(N, 1)
	res, err := SolveCSRTrans(A, b, DefaultSettings())
	require.NoError(t, err)
	ATx := make([]float64, N)
	A.MulTransVecTo(ATx, res.X)
	assert.InDeltaSlice(t, b, ATx, 1.e-10)
}
