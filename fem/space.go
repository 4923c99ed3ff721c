package fem

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/benhills/icepack/geometry2D"
	"github.com/benhills/icepack/utils"
)

var (
	ErrSpaceMismatch     = errors.New("fem: fields live on different finite element spaces")
	ErrMeshMismatch      = errors.New("fem: fields live on different meshes")
	ErrUnsupportedDegree = errors.New("fem: unsupported polynomial degree")
)

/*
Space is a continuous Lagrange finite element space on a mesh, either scalar (Components = 1) or a 2-vector
(Components = 2). Scalar DOFs are numbered vertices first, then, for P2, one per edge in mesh edge order. Vector DOFs
interleave the components, DOF 2*d+c is component c at scalar DOF d.
*/
type Space struct {
	Mesh       *geometry2D.Mesh
	Degree     int
	Components int
	Element    *LagrangeElement
	Cub        *Cubature
	EdgeCub    *Cubature
	cellDofs   [][]int // Scalar DOFs per cell
	// Reference basis values at the cubature points, [q][i]
	phi, phiR, phiS [][]float64
	// Reference basis values at the edge cubature points of each face, [face][q][i]
	facePhi [3][][]float64
}

func NewScalarSpace(m *geometry2D.Mesh, degree int) (sp *Space, err error) {
	return newSpace(m, degree, 1)
}

func NewVectorSpace(m *geometry2D.Mesh, degree int) (sp *Space, err error) {
	return newSpace(m, degree, 2)
}

func newSpace(m *geometry2D.Mesh, degree, components int) (sp *Space, err error) {
	if degree != 1 && degree != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDegree, degree)
	}
	sp = &Space{
		Mesh:       m,
		Degree:     degree,
		Components: components,
		Element:    NewLagrangeElement(degree),
		Cub:        NewCubature(2 * degree),
		EdgeCub:    NewEdgeCubature(degree + 1),
	}
	var (
		el = sp.Element
		Nv = m.NumVertices()
	)
	sp.cellDofs = make([][]int, m.NumCells())
	for k, tri := range m.Cells {
		dofs := make([]int, 0, el.Np)
		dofs = append(dofs, tri[:]...)
		if degree == 2 {
			for _, en := range m.CellEdgeNumbers(k) {
				dofs = append(dofs, Nv+en)
			}
		}
		sp.cellDofs[k] = dofs
	}
	for q := 0; q < sp.Cub.Nq; q++ {
		r, s := sp.Cub.R[q], sp.Cub.S[q]
		sp.phi = append(sp.phi, el.Basis(r, s))
		dr, ds := el.GradBasis(r, s)
		sp.phiR, sp.phiS = append(sp.phiR, dr), append(sp.phiS, ds)
	}
	for f := 0; f < 3; f++ {
		r0, s0 := el.R[f], el.S[f]
		r1, s1 := el.R[(f+1)%3], el.S[(f+1)%3]
		for q := 0; q < sp.EdgeCub.Nq; q++ {
			t := sp.EdgeCub.R[q]
			sp.facePhi[f] = append(sp.facePhi[f], el.Basis(r0+t*(r1-r0), s0+t*(s1-s0)))
		}
	}
	return
}

func (sp *Space) ScalarDofs() (n int) {
	n = sp.Mesh.NumVertices()
	if sp.Degree == 2 {
		n += sp.Mesh.NumEdges()
	}
	return
}

func (sp *Space) NDofs() int { return sp.Components * sp.ScalarDofs() }

func (sp *Space) IsVector() bool { return sp.Components == 2 }

// ScalarCellDofs are the scalar DOFs of cell k in local node order
func (sp *Space) ScalarCellDofs(k int) []int { return sp.cellDofs[k] }

// CellDofs are the DOFs of cell k, for vector spaces local index 2*i+c is component c of node i
func (sp *Space) CellDofs(k int) (dofs []int) {
	if sp.Components == 1 {
		return sp.cellDofs[k]
	}
	dofs = make([]int, 0, 2*len(sp.cellDofs[k]))
	for _, d := range sp.cellDofs[k] {
		dofs = append(dofs, 2*d, 2*d+1)
	}
	return
}

// SupportPoints are the coordinates of each scalar DOF
func (sp *Space) SupportPoints() (X, Y []float64) {
	var (
		m  = sp.Mesh
		Nv = m.NumVertices()
	)
	X, Y = make([]float64, sp.ScalarDofs()), make([]float64, sp.ScalarDofs())
	copy(X, m.X)
	copy(Y, m.Y)
	if sp.Degree == 2 {
		for i, en := range m.EdgeKeys {
			verts := en.GetVertices(false)
			X[Nv+i] = 0.5 * (m.X[verts[0]] + m.X[verts[1]])
			Y[Nv+i] = 0.5 * (m.Y[verts[0]] + m.Y[verts[1]])
		}
	}
	return
}

func (sp *Space) faceScalarDofs(be geometry2D.BoundaryEdge) (dofs []int) {
	for _, i := range sp.Element.FaceNodes(be.Face) {
		dofs = append(dofs, sp.cellDofs[be.Cell][i])
	}
	return
}

/*
BoundaryDofs lists the DOFs lying on boundary edges whose segment id is in ids. For a vector space, component
selects one velocity component, a negative component selects both.
*/
func (sp *Space) BoundaryDofs(ids []int, component int) []int {
	set := make(map[int]bool)
	for _, be := range sp.Mesh.BoundaryEdges {
		if !containsID(ids, be.ID) {
			continue
		}
		for _, d := range sp.faceScalarDofs(be) {
			switch {
			case sp.Components == 1:
				set[d] = true
			case component < 0:
				set[2*d], set[2*d+1] = true, true
			default:
				set[2*d+component] = true
			}
		}
	}
	return sortedKeys(set)
}

/*
NormalComponentDofs lists the vector DOFs of the normal velocity component on boundary edges with an id in ids.
Only edges aligned with a coordinate axis constrain a single component, other edges are skipped.
*/
func (sp *Space) NormalComponentDofs(ids []int) []int {
	set := make(map[int]bool)
	if sp.Components != 2 {
		return nil
	}
	const tol = 1.e-10
	for _, be := range sp.Mesh.BoundaryEdges {
		if !containsID(ids, be.ID) {
			continue
		}
		var (
			n    = sp.Mesh.OutwardNormal(be)
			comp int
		)
		switch {
		case math.Abs(n[0]) > 1-tol:
			comp = 0
		case math.Abs(n[1]) > 1-tol:
			comp = 1
		default:
			continue
		}
		for _, d := range sp.faceScalarDofs(be) {
			set[2*d+comp] = true
		}
	}
	return sortedKeys(set)
}

func (sp *Space) SparsityPattern() *utils.SparsityPattern {
	cellDofs := make([][]int, sp.Mesh.NumCells())
	for k := range cellDofs {
		cellDofs[k] = sp.CellDofs(k)
	}
	return utils.NewSparsityPattern(sp.NDofs(), cellDofs)
}

// NewMatrix allocates a zeroed CSR matrix with the coupling pattern of the space
func (sp *Space) NewMatrix() *utils.CSR {
	return utils.NewCSR(sp.SparsityPattern())
}

// CheckSameMesh verifies that other is defined on the same mesh with the same degree
func (sp *Space) CheckSameMesh(other *Space) error {
	if sp.Mesh != other.Mesh {
		return ErrMeshMismatch
	}
	if sp.Degree != other.Degree {
		return fmt.Errorf("%w: degree %d and %d", ErrSpaceMismatch, sp.Degree, other.Degree)
	}
	return nil
}

func (sp *Space) CheckSameSpace(other *Space) error {
	if sp == other {
		return nil
	}
	if err := sp.CheckSameMesh(other); err != nil {
		return err
	}
	if sp.Components != other.Components {
		return fmt.Errorf("%w: %d and %d components", ErrSpaceMismatch, sp.Components, other.Components)
	}
	return nil
}

func containsID(ids []int, id int) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func sortedKeys(set map[int]bool) (keys []int) {
	keys = make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return
}
