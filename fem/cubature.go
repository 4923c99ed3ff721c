package fem

import (
	"fmt"

	"gonum.org/v1/gonum/integrate/quad"
)

/*
Cubature holds a quadrature rule on the unit reference triangle with vertices (0,0), (1,0), (0,1). The weights sum
to the reference area of 1/2. Edge rules reuse the struct with S unset and weights summing to 1 on [0,1].
*/
type Cubature struct {
	R, S, W []float64
	Nq      int
}

// NewCubature returns a symmetric rule exact for polynomials of degree P, P <= 4
func NewCubature(P int) (cb *Cubature) {
	switch {
	case P <= 2:
		a, b := 1./6., 2./3.
		cb = &Cubature{
			R: []float64{a, b, a},
			S: []float64{a, a, b},
			W: []float64{1. / 6., 1. / 6., 1. / 6.},
		}
	case P <= 4:
		var (
			a, wa = 0.445948490915965, 0.5 * 0.223381589678011
			b, wb = 0.091576213509771, 0.5 * 0.109951743655322
		)
		cb = &Cubature{
			R: []float64{a, 1 - 2*a, a, b, 1 - 2*b, b},
			S: []float64{a, a, 1 - 2*a, b, b, 1 - 2*b},
			W: []float64{wa, wa, wa, wb, wb, wb},
		}
	default:
		panic(fmt.Errorf("no cubature rule of degree %d", P))
	}
	cb.Nq = len(cb.W)
	return
}

// NewEdgeCubature is the n point Gauss-Legendre rule on [0,1]
func NewEdgeCubature(n int) (cb *Cubature) {
	cb = &Cubature{
		R:  make([]float64, n),
		W:  make([]float64, n),
		Nq: n,
	}
	quad.Legendre{}.FixedLocations(cb.R, cb.W, 0, 1)
	return
}
