package fem

import (
	"github.com/benhills/icepack/geometry2D"
)

// CellValues holds the scalar basis of one cell mapped to physical coordinates at the cubature points
type CellValues struct {
	Cell int
	Dofs []int          // Scalar DOFs of the cell
	Phi  [][]float64    // [q][i]
	Grad [][][2]float64 // [q][i], physical gradient
	JxW  []float64
	X, Y []float64
	Nq   int
	sp   *Space
}

func (sp *Space) NewCellValues() (cv *CellValues) {
	var (
		Nq = sp.Cub.Nq
		Np = sp.Element.Np
	)
	cv = &CellValues{
		Phi:  sp.phi,
		Grad: make([][][2]float64, Nq),
		JxW:  make([]float64, Nq),
		X:    make([]float64, Nq),
		Y:    make([]float64, Nq),
		Nq:   Nq,
		sp:   sp,
	}
	for q := range cv.Grad {
		cv.Grad[q] = make([][2]float64, Np)
	}
	return
}

// Reinit maps the reference basis onto cell k
func (cv *CellValues) Reinit(k int) {
	var (
		sp     = cv.sp
		x, y   = sp.Mesh.CellVertices(k)
		J00    = x[1] - x[0]
		J01    = x[2] - x[0]
		J10    = y[1] - y[0]
		J11    = y[2] - y[0]
		det    = J00*J11 - J01*J10
		oodet  = 1. / det
		rx, sx = J11 * oodet, -J10 * oodet
		ry, sy = -J01 * oodet, J00 * oodet
		cub    = sp.Cub
	)
	cv.Cell = k
	cv.Dofs = sp.cellDofs[k]
	for q := 0; q < cv.Nq; q++ {
		cv.JxW[q] = cub.W[q] * det
		cv.X[q] = x[0] + J00*cub.R[q] + J01*cub.S[q]
		cv.Y[q] = y[0] + J10*cub.R[q] + J11*cub.S[q]
		for i := range cv.Grad[q] {
			dr, ds := sp.phiR[q][i], sp.phiS[q][i]
			cv.Grad[q][i] = [2]float64{rx*dr + sx*ds, ry*dr + sy*ds}
		}
	}
}

// FaceValues holds the cell basis restricted to one boundary edge, at the edge cubature points
type FaceValues struct {
	Edge   geometry2D.BoundaryEdge
	Dofs   []int       // Scalar DOFs of the owning cell
	Phi    [][]float64 // [q][i] over all nodes of the cell
	JxW    []float64
	X, Y   []float64
	Normal [2]float64
	Nq     int
	sp     *Space
}

func (sp *Space) NewFaceValues() (fv *FaceValues) {
	Nq := sp.EdgeCub.Nq
	return &FaceValues{
		JxW: make([]float64, Nq),
		X:   make([]float64, Nq),
		Y:   make([]float64, Nq),
		Nq:  Nq,
		sp:  sp,
	}
}

func (fv *FaceValues) Reinit(be geometry2D.BoundaryEdge) {
	var (
		sp     = fv.sp
		m      = sp.Mesh
		v0, v1 = be.Verts[0], be.Verts[1]
		l      = m.EdgeLength(be.Verts)
	)
	fv.Edge = be
	fv.Dofs = sp.cellDofs[be.Cell]
	fv.Phi = sp.facePhi[be.Face]
	fv.Normal = m.OutwardNormal(be)
	for q := 0; q < fv.Nq; q++ {
		t := sp.EdgeCub.R[q]
		fv.JxW[q] = sp.EdgeCub.W[q] * l
		fv.X[q] = m.X[v0] + t*(m.X[v1]-m.X[v0])
		fv.Y[q] = m.Y[v0] + t*(m.Y[v1]-m.Y[v0])
	}
}
