package InputParameters

import (
	"errors"
	"testing"

	"github.com/benhills/icepack/glacier"
	"github.com/benhills/icepack/inverse"
	"github.com/benhills/icepack/linsolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters(t *testing.T) {
	fileInput := []byte(`
Title: Test Shelf
PolynomialOrder: 2
Nx: 8
Ny: 2
Thickness: 400.
Temperature: 268.15
InflowVelocity: 100.
Newton:
  Tolerance: 1.e-8
  Damping: 1.
Linear:
  MaxIterations: 500
Regularization:
  L: 7500.
GaussNewton:
  RTol: 1.e-5
  MaxIterations: 20
  GradientTolerance: 1.e-3
BoundaryMarkers:
  lateral: 2
  front: 1
ParallelDegree: 4
Verbose: true
`)
	ip, err := ReadParameters(fileInput)
	require.NoError(t, err)
	assert.Equal(t, "Test Shelf", ip.Title)
	assert.Equal(t, 2, ip.PolynomialOrder)
	assert.Equal(t, 8, ip.Nx)
	assert.Equal(t, 20000., ip.Lx) // From the defaults
	assert.Equal(t, 400., ip.Thickness)
	assert.Equal(t, 2, ip.BoundaryMarkers["lateral"])
	assert.Equal(t, 1, ip.BoundaryMarkers["front"])
	ip.Print()
	{ // Test the conversions, unset nested keys keep their defaults
		c := ip.Constants()
		assert.Equal(t, 268.15, c.Temperature)
		assert.Equal(t, glacier.DefaultConstants().GlenExponent, c.GlenExponent)
		so := ip.SolverOptions()
		assert.Equal(t, 1.e-8, so.Tolerance)
		assert.Equal(t, glacier.DefaultSolverOptions().MaxIterations, so.MaxIterations)
		assert.Equal(t, 1., so.Damping)
		assert.Equal(t, 4, so.ParallelDegree)
		assert.True(t, so.Verbose)
		assert.Equal(t, 500, so.Linear.MaxIterations)
		assert.Equal(t, linsolve.DefaultSettings().Tolerance, so.Linear.Tolerance)
		o := ip.InverseOptions()
		assert.Equal(t, 7500., o.L)
		assert.Equal(t, 1., o.Theta)
		assert.Equal(t, 1.e-5, o.RTol)
		assert.Equal(t, inverse.DefaultOptions().ETol, o.ETol)
		assert.Equal(t, 20, o.MaxIterations)
		assert.Equal(t, 1.e-3, o.GradientTolerance)
		assert.True(t, o.Verbose)
	}
	{ // Test the physical constants, given in SI units
		ip, err := ReadParameters([]byte(`
Temperature: 253.15
Physics:
  RhoIce: 910.
  RhoWater: 1028.
  Gravity: 9.8
  GlenExponent: 4
  Fluidity: 2.5
`))
		require.NoError(t, err)
		c := ip.Constants()
		d := glacier.DefaultConstants()
		assert.InDelta(t, 910./1028., c.RhoIce/c.RhoWater, 1.e-14)
		assert.InDelta(t, 910.*9.8*1.e-6, c.RhoIce*c.Gravity, 1.e-15)
		assert.InDelta(t, 1028.*9.8*1.e-6, c.RhoWater*c.Gravity, 1.e-15)
		assert.Equal(t, 4., c.GlenExponent)
		assert.InDelta(t, 2.5, c.RateFactor(253.15), 1.e-12)
		assert.InDelta(t, d.RateFactor(270)/d.RateFactor(253.15), c.RateFactor(270)/c.RateFactor(253.15), 1.e-9)
		assert.Equal(t, d.QCold, c.QCold)
		assert.Equal(t, d.StrainRateMin, c.StrainRateMin)
	}
	{ // Test rejection of invalid values
		for _, doc := range []string{
			"PolynomialOrder: 3",
			"Thickness: -1",
			"Nx: 0",
			"Newton:\n  Damping: 1.5",
			"Linear:\n  Tolerance: 2",
			"Regularization:\n  Theta: 0",
			"ParallelDegree: 0",
			"Physics:\n  Gravity: -9.81",
			"Physics:\n  GlenExponent: 0.5",
			"Physics:\n  RhoIce: 1100.",
			"Physics:\n  Fluidity: -1",
			"GaussNewton:\n  GradientTolerance: -1",
		} {
			_, err := ReadParameters([]byte(doc))
			assert.True(t, errors.Is(err, ErrInvalidParameter), doc)
		}
		_, err := ReadParameters([]byte("Nx: [1, 2"))
		assert.Error(t, err)
	}
	{ // A mesh file replaces the rectangle
		ip, err := ReadParameters([]byte("MeshFile: shelf.su2\nNx: 0"))
		require.NoError(t, err)
		assert.Equal(t, "shelf.su2", ip.MeshFile)
	}
}
