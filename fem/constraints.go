package fem

import (
	"sort"

	"github.com/benhills/icepack/utils"
)

// Constraints is a set of DOFs whose values are prescribed, used for Dirichlet and slip conditions
type Constraints struct {
	dofs []int
}

func NewConstraints(dofLists ...[]int) (c *Constraints) {
	set := make(map[int]bool)
	for _, dofs := range dofLists {
		for _, d := range dofs {
			set[d] = true
		}
	}
	c = &Constraints{dofs: make([]int, 0, len(set))}
	for d := range set {
		c.dofs = append(c.dofs, d)
	}
	sort.Ints(c.dofs)
	return
}

func (c *Constraints) Dofs() []int { return c.dofs }

// Distribute zeroes the constrained entries of an increment or a residual
func (c *Constraints) Distribute(v []float64) {
	utils.Project(v, c.dofs)
}
