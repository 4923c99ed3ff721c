package fem

import (
	"errors"
	"math"
	"testing"

	"github.com/benhills/icepack/geometry2D"
	"github.com/benhills/icepack/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factorial(n int) (f float64) {
	f = 1
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return
}

func testMesh() *geometry2D.Mesh {
	ids := [4]int{int(utils.BoundaryDirichlet), int(utils.BoundaryCalvingFront),
		int(utils.BoundarySlipWall), int(utils.BoundarySlipWall)}
	return geometry2D.NewRectangleMesh(3, 2, 3, 2, ids)
}

func TestCubature(t *testing.T) {
	for _, P := range []int{2, 4} {
		cb := NewCubature(P)
		for i := 0; i <= P; i++ {
			for j := 0; j <= P-i; j++ {
				var sum float64
				for q := 0; q < cb.Nq; q++ {
					sum += cb.W[q] * monomial(cb.R[q], cb.S[q], i, j)
				}
				exact := factorial(i) * factorial(j) / factorial(i+j+2)
				assert.InDeltaf(t, exact, sum, 1.e-12, "degree %d monomial r^%d s^%d", P, i, j)
			}
		}
	}
	{ // Test edge rules
		for n := 2; n <= 3; n++ {
			cb := NewEdgeCubature(n)
			var sum, moment float64
			for q := 0; q < cb.Nq; q++ {
				sum += cb.W[q]
				moment += cb.W[q] * math.Pow(cb.R[q], float64(2*n-1))
			}
			assert.InDelta(t, 1., sum, 1.e-14)
			assert.InDelta(t, 1./float64(2*n), moment, 1.e-14)
		}
	}
	assert.Panics(t, func() { NewCubature(6) })
}

func TestLagrangeElement(t *testing.T) {
	for N := 1; N <= 2; N++ {
		el := NewLagrangeElement(N)
		for i := 0; i < el.Np; i++ {
			phi := el.Basis(el.R[i], el.S[i])
			for k := range phi {
				if k == i {
					assert.InDelta(t, 1., phi[k], 1.e-12)
				} else {
					assert.InDelta(t, 0., phi[k], 1.e-12)
				}
			}
		}
		var sum, sumR, sumS float64
		phi := el.Basis(0.2, 0.3)
		dr, ds := el.GradBasis(0.2, 0.3)
		for k := range phi {
			sum += phi[k]
			sumR += dr[k]
			sumS += ds[k]
		}
		assert.InDelta(t, 1., sum, 1.e-12)
		assert.InDelta(t, 0., sumR, 1.e-12)
		assert.InDelta(t, 0., sumS, 1.e-12)
	}
	assert.Equal(t, []int{1, 2, 4}, NewLagrangeElement(2).FaceNodes(1))
	assert.Panics(t, func() { NewLagrangeElement(3) })
}

func TestSpace(t *testing.T) {
	m := testMesh()
	{ // Test DOF counts
		s1, err := NewScalarSpace(m, 1)
		require.NoError(t, err)
		assert.Equal(t, 12, s1.NDofs())
		v1, err := NewVectorSpace(m, 1)
		require.NoError(t, err)
		assert.Equal(t, 24, v1.NDofs())
		s2, err := NewScalarSpace(m, 2)
		require.NoError(t, err)
		assert.Equal(t, 12+m.NumEdges(), s2.NDofs())
		assert.Equal(t, 6, len(s2.CellDofs(0)))
		v2, _ := NewVectorSpace(m, 2)
		assert.Equal(t, 12, len(v2.CellDofs(0)))
		assert.Equal(t, 2*s2.ScalarCellDofs(0)[4]+1, v2.CellDofs(0)[9])
		_, err = NewScalarSpace(m, 3)
		assert.True(t, errors.Is(err, ErrUnsupportedDegree))
	}
	{ // Test boundary DOFs
		v1, _ := NewVectorSpace(m, 1)
		left := v1.BoundaryDofs([]int{int(utils.BoundaryDirichlet)}, -1)
		assert.Equal(t, []int{0, 1, 8, 9, 16, 17}, left)
		right := v1.BoundaryDofs([]int{int(utils.BoundaryCalvingFront)}, 0)
		assert.Equal(t, []int{6, 14, 22}, right)
		slip := v1.NormalComponentDofs([]int{int(utils.BoundarySlipWall)})
		for _, d := range slip {
			assert.Equal(t, 1, d%2) // y component only
		}
		assert.Equal(t, 8, len(slip))
		s2, _ := NewScalarSpace(m, 2)
		assert.Equal(t, 5, len(s2.BoundaryDofs([]int{int(utils.BoundaryDirichlet)}, -1)))
	}
	{ // Test mismatch checks
		s1, _ := NewScalarSpace(m, 1)
		s2, _ := NewScalarSpace(m, 2)
		v1, _ := NewVectorSpace(m, 1)
		other, _ := NewScalarSpace(testMesh(), 1)
		assert.True(t, errors.Is(s1.CheckSameSpace(s2), ErrSpaceMismatch))
		assert.True(t, errors.Is(s1.CheckSameSpace(v1), ErrSpaceMismatch))
		assert.True(t, errors.Is(s1.CheckSameSpace(other), ErrMeshMismatch))
		assert.NoError(t, s1.CheckSameMesh(v1))
	}
}

func TestFields(t *testing.T) {
	m := testMesh()
	for degree := 1; degree <= 2; degree++ {
		sp, _ := NewScalarSpace(m, degree)
		vs, _ := NewVectorSpace(m, degree)
		f := Interpolate(sp, func(x, y float64) float64 { return 2*x - 3*y + 1 })
		u := InterpolateVector(vs, func(x, y float64) [2]float64 { return [2]float64{x + y, 4 * x} })
		cv := sp.NewCellValues()
		for k := 0; k < m.NumCells(); k++ {
			cv.Reinit(k)
			for q := 0; q < cv.Nq; q++ {
				x, y := cv.X[q], cv.Y[q]
				assert.InDelta(t, 2*x-3*y+1, f.ValueAt(cv, q), 1.e-12)
				g := f.GradientAt(cv, q)
				assert.InDeltaSlice(t, []float64{2, -3}, g[:], 1.e-12)
				uv := u.ValueAt(cv, q)
				assert.InDeltaSlice(t, []float64{x + y, 4 * x}, uv[:], 1.e-12)
				G := u.GradientAt(cv, q)
				assert.InDeltaSlice(t, []float64{1, 1, 4, 0}, []float64{G[0][0], G[0][1], G[1][0], G[1][1]}, 1.e-12)
			}
		}
		fv := sp.NewFaceValues()
		for _, be := range m.BoundaryEdges {
			fv.Reinit(be)
			for q := 0; q < fv.Nq; q++ {
				assert.InDelta(t, 2*fv.X[q]-3*fv.Y[q]+1, f.FaceValueAt(fv, q), 1.e-12)
				uv := u.FaceValueAt(fv, q)
				assert.InDelta(t, 4*fv.X[q], uv[1], 1.e-12)
			}
		}
		one := NewConstantField(sp, 1)
		assert.InDelta(t, math.Sqrt(6), one.Norm(), 1.e-12)
		ip, err := Inner(one, f)
		require.NoError(t, err)
		assert.InDelta(t, 6*(2*1.5-3*1+1), ip, 1.e-11) // area times the mean value
		g := f.Copy()
		require.NoError(t, g.Add(-1, f))
		assert.InDelta(t, 0., g.Norm(), 1.e-14)
		require.NoError(t, g.CopyFrom(f))
		assert.Equal(t, f.Coefficients(), g.Coefficients())
		w := u.Copy()
		require.NoError(t, w.Add(1, u))
		assert.InDelta(t, 2*u.Norm(), w.Norm(), 1.e-12)
		assert.Equal(t, u.Coefficients()[2*3+1], u.Component(1)[3])
	}
	{ // Test errors across spaces
		s1, _ := NewScalarSpace(m, 1)
		s2, _ := NewScalarSpace(m, 2)
		a, b := NewField(s1), NewField(s2)
		assert.True(t, errors.Is(a.Add(1, b), ErrSpaceMismatch))
		_, err := Inner(a, b)
		assert.Error(t, err)
		vs, _ := NewVectorSpace(m, 1)
		assert.Panics(t, func() { NewField(vs) })
		assert.Panics(t, func() { NewVectorField(s1) })
	}
}

func TestConstraints(t *testing.T) {
	c := NewConstraints([]int{4, 1}, []int{1, 7})
	assert.Equal(t, []int{1, 4, 7}, c.Dofs())
	v := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	c.Distribute(v)
	assert.Equal(t, []float64{1, 0, 1, 1, 0, 1, 1, 0}, v)
}

func TestOperators(t *testing.T) {
	m := testMesh()
	for degree := 1; degree <= 2; degree++ {
		sp, _ := NewScalarSpace(m, degree)
		var (
			N    = sp.NDofs()
			ones = utils.ConstArray(N, 1)
			tmp  = make([]float64, N)
		)
		M := MassMatrix(sp, nil)
		M.MulVecTo(tmp, ones)
		var area float64
		for _, v := range tmp {
			area += v
		}
		assert.InDelta(t, 6., area, 1.e-12)
		L := LaplaceMatrix(sp)
		L.MulVecTo(tmp, ones)
		assert.InDelta(t, 0., utils.MaxAbs(tmp), 1.e-12)
		for i := 0; i < N; i++ {
			cols, _ := L.Row(i)
			for _, j := range cols {
				assert.InDelta(t, L.At(i, j), L.At(j, i), 1.e-12)
			}
		}
		// x^T L x = int |grad x|^2 = area
		X, _ := sp.SupportPoints()
		L.MulVecTo(tmp, X)
		var energy float64
		for i := range X {
			energy += X[i] * tmp[i]
		}
		assert.InDelta(t, 6., energy, 1.e-12)
	}
	{ // Test weighted vector mass matrix is block diagonal
		vs, _ := NewVectorSpace(m, 1)
		M := MassMatrix(vs, func(cv *CellValues, q, c int) float64 { return float64(c + 1) })
		N := vs.NDofs()
		ones, tmp := utils.ConstArray(N, 1), make([]float64, N)
		M.MulVecTo(tmp, ones)
		var sx, sy float64
		for i := 0; i < N; i += 2 {
			sx += tmp[i]
			sy += tmp[i+1]
		}
		assert.InDelta(t, 6., sx, 1.e-12)
		assert.InDelta(t, 12., sy, 1.e-12)
		assert.Equal(t, 0., M.At(0, 1))
	}
}
