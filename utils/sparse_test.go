package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparsityPattern(t *testing.T) {
	cellDofs := [][]int{{0, 1, 2}, {2, 1, 3}}
	sp := NewSparsityPattern(5, cellDofs)
	assert.Equal(t, []int{0, 1, 2}, sp.Columns[0])
	assert.Equal(t, []int{0, 1, 2, 3}, sp.Columns[1])
	assert.Equal(t, []int{1, 2, 3}, sp.Columns[3])
	// Unconnected DOF gets a diagonal
	assert.Equal(t, []int{4}, sp.Columns[4])
	assert.Equal(t, 3+4+4+3+1, sp.NNZ())
}

func TestCSRAssembly(t *testing.T) {
	cellDofs := [][]int{{0, 1, 2}, {2, 1, 3}}
	A := NewCSR(NewSparsityPattern(4, cellDofs))
	local := []float64{
		2, -1, -1,
		-1, 2, -1,
		-1, -1, 2,
	}
	for _, dofs := range cellDofs {
		A.AddLocal(dofs, local)
	}
	{ // Test accumulation
		assert.Equal(t, 2., A.At(0, 0))
		assert.Equal(t, 4., A.At(1, 1))
		assert.Equal(t, 4., A.At(2, 2))
		assert.Equal(t, -2., A.At(1, 2))
		assert.Equal(t, 0., A.At(0, 3))
		assert.Equal(t, []float64{2, 4, 4, 2}, A.Diagonal())
	}
	{ // Test mat-vec against the dense definition
		x := []float64{1, 2, 3, 4}
		y := make([]float64, 4)
		A.MulVecTo(y, x)
		for i := 0; i < 4; i++ {
			var want float64
			for j := 0; j < 4; j++ {
				want += A.At(i, j) * x[j]
			}
			assert.InDelta(t, want, y[i], 1.e-14)
		}
		yT := make([]float64, 4)
		A.MulTransVecTo(yT, x)
		assert.InDeltaSlice(t, y, yT, 1.e-14) // Symmetric
	}
	{ // Test outside of pattern panics
		assert.Panics(t, func() { A.Add(0, 3, 1) })
	}
	{ // Test symmetric elimination of boundary rows
		rhs := []float64{1, 1, 1, 1}
		A.ApplyBoundaryValues([]int{0}, rhs)
		assert.Equal(t, 0., rhs[0])
		assert.Equal(t, 2., A.At(0, 0))
		assert.Equal(t, 0., A.At(0, 1))
		assert.Equal(t, 0., A.At(1, 0))
		assert.Equal(t, 0., A.At(2, 0))
		assert.Equal(t, -2., A.At(1, 2))
	}
	{ // Test read only protection
		A.SetReadOnly("A")
		require.Panics(t, func() { A.Zero() })
		A.SetWritable()
		A.Zero()
		assert.Equal(t, 0., A.At(1, 1))
	}
}
