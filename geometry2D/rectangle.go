package geometry2D

import (
	"github.com/benhills/icepack/types"
)

// Side indices for NewRectangleMesh boundary ids
const (
	Left = iota
	Right
	Bottom
	Top
)

/*
NewRectangleMesh triangulates [0,Lx] x [0,Ly] with Nx x Ny quads, each split along its lower-left to upper-right
diagonal. ids gives the boundary segment id of the left, right, bottom and top sides, corners take the id of the
side the edge lies on.
*/
func NewRectangleMesh(Lx, Ly float64, Nx, Ny int, ids [4]int) (m *Mesh) {
	var (
		Nv    = (Nx + 1) * (Ny + 1)
		X     = make([]float64, Nv)
		Y     = make([]float64, Nv)
		cells = make([][3]int, 0, 2*Nx*Ny)
		bids  = make(map[types.EdgeKey]int)
		vert  = func(i, j int) int { return j*(Nx+1) + i }
	)
	for j := 0; j <= Ny; j++ {
		for i := 0; i <= Nx; i++ {
			X[vert(i, j)] = Lx * float64(i) / float64(Nx)
			Y[vert(i, j)] = Ly * float64(j) / float64(Ny)
		}
	}
	for j := 0; j < Ny; j++ {
		for i := 0; i < Nx; i++ {
			v00, v10, v11, v01 := vert(i, j), vert(i+1, j), vert(i+1, j+1), vert(i, j+1)
			cells = append(cells, [3]int{v00, v10, v11}, [3]int{v00, v11, v01})
		}
	}
	for j := 0; j < Ny; j++ {
		bids[types.NewEdgeKey([2]int{vert(0, j), vert(0, j+1)})] = ids[Left]
		bids[types.NewEdgeKey([2]int{vert(Nx, j), vert(Nx, j+1)})] = ids[Right]
	}
	for i := 0; i < Nx; i++ {
		bids[types.NewEdgeKey([2]int{vert(i, 0), vert(i+1, 0)})] = ids[Bottom]
		bids[types.NewEdgeKey([2]int{vert(i, Ny), vert(i+1, Ny)})] = ids[Top]
	}
	var err error
	if m, err = NewMesh(X, Y, cells, bids); err != nil {
		panic(err)
	}
	return
}
