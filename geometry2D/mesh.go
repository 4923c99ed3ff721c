package geometry2D

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/benhills/icepack/types"
	"github.com/benhills/icepack/utils"
)

var (
	ErrBadMesh = errors.New("geometry2D: malformed triangulation")
)

/*
Mesh is an immutable unstructured triangulation. Cells are stored counter-clockwise, face f of a cell runs from
vertex f to vertex (f+1)%3, so that the outward normal of every face is the edge direction rotated clockwise.
Boundary edges carry the integer segment id that selects the boundary condition applied on them.
*/
type Mesh struct {
	X, Y          []float64
	Cells         [][3]int
	Edges         map[types.EdgeKey]*Edge
	EdgeKeys      []types.EdgeKey // Sorted, gives every edge a stable global number
	BoundaryEdges []BoundaryEdge
}

type Edge struct {
	Number                 int    // Position in Mesh.EdgeKeys
	NumConnectedTris       uint8  // Either 1 or 2
	ConnectedTris          [2]int // Index numbers of triangles connected to this edge
	ConnectedTriEdgeNumber [2]int // For the connected triangles, which face (0, 1 or 2) this edge is
	BoundaryID             int    // Used when the edge has a single connected triangle
}

type BoundaryEdge struct {
	Cell, Face int
	Verts      [2]int // Ordered counter-clockwise around the owning cell
	ID         int
}

/*
NewMesh builds the connectivity of a triangulation. Clockwise cells are reoriented. The boundaryIDs map assigns a
segment id to boundary edges, any boundary edge missing from it gets id 0 (Dirichlet).
*/
func NewMesh(X, Y []float64, cells [][3]int, boundaryIDs map[types.EdgeKey]int) (m *Mesh, err error) {
	if len(X) != len(Y) {
		err = fmt.Errorf("%w: %d x coordinates and %d y coordinates", ErrBadMesh, len(X), len(Y))
		return
	}
	if len(cells) == 0 {
		err = fmt.Errorf("%w: no cells", ErrBadMesh)
		return
	}
	m = &Mesh{
		X:     X,
		Y:     Y,
		Cells: make([][3]int, len(cells)),
		Edges: make(map[types.EdgeKey]*Edge),
	}
	for k, tri := range cells {
		for _, v := range tri {
			if v < 0 || v >= len(X) {
				err = fmt.Errorf("%w: cell %d references vertex %d, have %d vertices", ErrBadMesh, k, v, len(X))
				return nil, err
			}
		}
		area := signedArea(X, Y, tri)
		if math.Abs(area) == 0 {
			err = fmt.Errorf("%w: cell %d is degenerate", ErrBadMesh, k)
			return nil, err
		}
		if area < 0 {
			tri[1], tri[2] = tri[2], tri[1]
		}
		m.Cells[k] = tri
		for face := 0; face < 3; face++ {
			verts := [2]int{tri[face], tri[(face+1)%3]}
			en := types.NewEdgeKey(verts)
			e, ok := m.Edges[en]
			if !ok {
				e = &Edge{}
				m.Edges[en] = e
			} else if e.NumConnectedTris > 1 {
				err = fmt.Errorf("%w: edge %v has more than two connected triangles", ErrBadMesh, verts)
				return nil, err
			}
			e.ConnectedTris[e.NumConnectedTris] = k
			e.ConnectedTriEdgeNumber[e.NumConnectedTris] = face
			e.NumConnectedTris++
		}
	}
	m.EdgeKeys = make([]types.EdgeKey, 0, len(m.Edges))
	for en := range m.Edges {
		m.EdgeKeys = append(m.EdgeKeys, en)
	}
	sort.Slice(m.EdgeKeys, func(i, j int) bool { return m.EdgeKeys[i] < m.EdgeKeys[j] })
	for i, en := range m.EdgeKeys {
		e := m.Edges[en]
		e.Number = i
		if e.NumConnectedTris != 1 {
			continue
		}
		e.BoundaryID = boundaryIDs[en]
		k, face := e.ConnectedTris[0], e.ConnectedTriEdgeNumber[0]
		tri := m.Cells[k]
		m.BoundaryEdges = append(m.BoundaryEdges, BoundaryEdge{
			Cell:  k,
			Face:  face,
			Verts: [2]int{tri[face], tri[(face+1)%3]},
			ID:    e.BoundaryID,
		})
	}
	return
}

func signedArea(X, Y []float64, tri [3]int) float64 {
	x1, y1 := X[tri[0]], Y[tri[0]]
	x2, y2 := X[tri[1]], Y[tri[1]]
	x3, y3 := X[tri[2]], Y[tri[2]]
	return 0.5 * ((x2-x1)*(y3-y1) - (x3-x1)*(y2-y1))
}

func (m *Mesh) NumCells() int    { return len(m.Cells) }
func (m *Mesh) NumVertices() int { return len(m.X) }
func (m *Mesh) NumEdges() int    { return len(m.EdgeKeys) }

func (m *Mesh) CellArea(k int) float64 { return signedArea(m.X, m.Y, m.Cells[k]) }

// CellVertices returns the corner coordinates of cell k
func (m *Mesh) CellVertices(k int) (x, y [3]float64) {
	for i, v := range m.Cells[k] {
		x[i], y[i] = m.X[v], m.Y[v]
	}
	return
}

// CellEdgeNumbers returns the global edge number of each face of cell k
func (m *Mesh) CellEdgeNumbers(k int) (en [3]int) {
	tri := m.Cells[k]
	for face := 0; face < 3; face++ {
		en[face] = m.Edges[types.NewEdgeKey([2]int{tri[face], tri[(face+1)%3]})].Number
	}
	return
}

func (m *Mesh) EdgeLength(verts [2]int) float64 {
	dx, dy := m.X[verts[1]]-m.X[verts[0]], m.Y[verts[1]]-m.Y[verts[0]]
	return math.Hypot(dx, dy)
}

// Directed keeps the counter-clockwise traversal of the edge in its key
func (be BoundaryEdge) Directed() types.DirectedEdge { return types.NewDirectedEdge(be.Verts) }

// OutwardNormal is the unit normal of a boundary edge pointing out of its cell
func (m *Mesh) OutwardNormal(be BoundaryEdge) (n [2]float64) {
	return m.DirectedNormal(be.Directed())
}

// DirectedNormal is the unit normal to the right of the edge traversal direction
func (m *Mesh) DirectedNormal(de types.DirectedEdge) (n [2]float64) {
	var (
		verts  = de.GetVertices()
		v0, v1 = verts[0], verts[1]
		dx, dy = m.X[v1] - m.X[v0], m.Y[v1] - m.Y[v0]
		l      = math.Hypot(dx, dy)
	)
	n[0], n[1] = dy/l, -dx/l
	return
}

// BoundaryIDs lists the distinct segment ids present on the boundary in ascending order
func (m *Mesh) BoundaryIDs() (ids []int) {
	seen := make(map[int]bool)
	for _, be := range m.BoundaryEdges {
		if !seen[be.ID] {
			seen[be.ID] = true
			ids = append(ids, be.ID)
		}
	}
	sort.Ints(ids)
	return
}

// BoundaryType is the boundary condition selected by a segment id
func BoundaryType(id int) utils.BoundaryType {
	return utils.BoundaryType(id)
}

// Bounds is the axis aligned bounding box of the mesh
func (m *Mesh) Bounds() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = m.X[0], m.X[0]
	ymin, ymax = m.Y[0], m.Y[0]
	for i := range m.X {
		xmin, xmax = math.Min(xmin, m.X[i]), math.Max(xmax, m.X[i])
		ymin, ymax = math.Min(ymin, m.Y[i]), math.Max(ymax, m.Y[i])
	}
	return
}
