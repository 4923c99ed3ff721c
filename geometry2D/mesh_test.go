package geometry2D

import (
	"errors"
	"testing"

	"github.com/benhills/icepack/types"
	"github.com/benhills/icepack/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMesh(t *testing.T) {
	{ // Test two triangles, one given clockwise
		X := []float64{0, 1, 1, 0}
		Y := []float64{0, 0, 1, 1}
		cells := [][3]int{{0, 1, 2}, {0, 2, 3}}
		cells[1] = [3]int{0, 3, 2} // clockwise
		bids := map[types.EdgeKey]int{
			types.NewEdgeKey([2]int{1, 2}): 1,
		}
		m, err := NewMesh(X, Y, cells, bids)
		require.NoError(t, err)
		assert.Equal(t, 2, m.NumCells())
		assert.Equal(t, 5, m.NumEdges())
		assert.Equal(t, 4, len(m.BoundaryEdges))
		for k := 0; k < m.NumCells(); k++ {
			assert.InDelta(t, 0.5, m.CellArea(k), 1.e-15)
		}
		assert.Equal(t, []int{0, 1}, m.BoundaryIDs())
		for _, be := range m.BoundaryEdges {
			n := m.OutwardNormal(be)
			if be.ID == 1 { // x = 1 side
				assert.InDeltaSlice(t, []float64{1, 0}, n[:], 1.e-15)
			}
			assert.InDelta(t, 1., m.EdgeLength(be.Verts), 1.e-15)
		}
		for _, be := range m.BoundaryEdges {
			de := be.Directed()
			assert.Equal(t, be.Verts, de.GetVertices())
			assert.Equal(t, m.Edges[de.GetKey()].NumConnectedTris, uint8(1))
			rev := types.NewDirectedEdge([2]int{be.Verts[1], be.Verts[0]})
			n, nr := m.OutwardNormal(be), m.DirectedNormal(rev)
			assert.InDeltaSlice(t, []float64{-n[0], -n[1]}, nr[:], 1.e-15)
		}
		diag := m.Edges[types.NewEdgeKey([2]int{0, 2})]
		assert.Equal(t, uint8(2), diag.NumConnectedTris)
	}
	{ // Test malformed input
		_, err := NewMesh([]float64{0, 1, 2}, []float64{0, 0, 0}, [][3]int{{0, 1, 2}}, nil)
		assert.True(t, errors.Is(err, ErrBadMesh))
		_, err = NewMesh([]float64{0, 1, 0}, []float64{0, 0, 1}, [][3]int{{0, 1, 5}}, nil)
		assert.True(t, errors.Is(err, ErrBadMesh))
	}
}

func TestRectangleMesh(t *testing.T) {
	ids := [4]int{int(utils.BoundaryDirichlet), int(utils.BoundaryCalvingFront),
		int(utils.BoundarySlipWall), int(utils.BoundarySlipWall)}
	m := NewRectangleMesh(4, 2, 4, 2, ids)
	assert.Equal(t, 16, m.NumCells())
	assert.Equal(t, 15, m.NumVertices())
	var area float64
	for k := 0; k < m.NumCells(); k++ {
		area += m.CellArea(k)
	}
	assert.InDelta(t, 8., area, 1.e-12)
	xmin, xmax, ymin, ymax := m.Bounds()
	assert.Equal(t, [4]float64{0, 4, 0, 2}, [4]float64{xmin, xmax, ymin, ymax})
	count := make(map[int]int)
	for _, be := range m.BoundaryEdges {
		count[be.ID]++
		n := m.OutwardNormal(be)
		xm := 0.5 * (m.X[be.Verts[0]] + m.X[be.Verts[1]])
		switch be.ID {
		case int(utils.BoundaryCalvingFront):
			assert.InDelta(t, 4., xm, 1.e-14)
			assert.InDelta(t, 1., n[0], 1.e-14)
		case int(utils.BoundaryDirichlet):
			assert.InDelta(t, 0., xm, 1.e-14)
			assert.InDelta(t, -1., n[0], 1.e-14)
		}
	}
	assert.Equal(t, map[int]int{0: 2, 1: 2, 2: 8}, count)
	assert.Equal(t, utils.BoundarySlipWall, BoundaryType(2))
}
