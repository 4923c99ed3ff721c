package utils

import "strings"

// BoundaryType selects the boundary condition applied on a tagged boundary segment
type BoundaryType uint16

/*
Boundary segment ids on a mesh are small integers. The id of a segment is its BoundaryType, so an id read from a
mesh file can be used directly: 0 for the Dirichlet part of the boundary, 1 for the calving terminus.
*/
const (
	// BoundaryDirichlet fixes both velocity components (inflow or grounded margin)
	BoundaryDirichlet BoundaryType = iota
	// BoundaryCalvingFront carries the frontal stress of the ice/ocean interface
	BoundaryCalvingFront
	// BoundarySlipWall fixes the normal velocity component only, leaving the wall free of shear
	BoundarySlipWall
	// BoundaryNone marks a natural (stress free) boundary
	BoundaryNone
)

func (bt BoundaryType) String() string {
	names := map[BoundaryType]string{
		BoundaryDirichlet:    "Dirichlet",
		BoundaryCalvingFront: "CalvingFront",
		BoundarySlipWall:     "SlipWall",
		BoundaryNone:         "None",
	}

	if name, ok := names[bt]; ok {
		return name
	}
	return "Unknown"
}

// BoundaryNameMap provides a mapping from common boundary marker names to BoundaryType
// Keys are lowercase for case-insensitive matching
var BoundaryNameMap = map[string]BoundaryType{
	"inflow":    BoundaryDirichlet,
	"inlet":     BoundaryDirichlet,
	"grounded":  BoundaryDirichlet,
	"dirichlet": BoundaryDirichlet,
	"wall":      BoundaryDirichlet,
	"no_slip":   BoundaryDirichlet,

	"calving":       BoundaryCalvingFront,
	"calving_front": BoundaryCalvingFront,
	"terminus":      BoundaryCalvingFront,
	"front":         BoundaryCalvingFront,
	"ocean":         BoundaryCalvingFront,

	"slip":      BoundarySlipWall,
	"slip_wall": BoundarySlipWall,
	"side":      BoundarySlipWall,
	"symmetry":  BoundarySlipWall,

	"free":    BoundaryNone,
	"neumann": BoundaryNone,
	"none":    BoundaryNone,
}

// ParseBoundaryName converts a boundary marker name to BoundaryType
// The matching is case-insensitive and trims whitespace, unknown names are treated as Dirichlet
func ParseBoundaryName(name string) BoundaryType {
	lowerName := strings.ToLower(strings.TrimSpace(name))

	if bt, ok := BoundaryNameMap[lowerName]; ok {
		return bt
	}
	return BoundaryDirichlet
}
