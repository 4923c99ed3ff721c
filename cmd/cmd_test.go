package cmd

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/benhills/icepack/InputParameters"
	"github.com/benhills/icepack/glacier"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInput = `
Title: Test Case
PolynomialOrder: 1
Nx: 10
Ny: 2
Newton:
  Damping: 1.
Regularization:
  L: 500.
GaussNewton:
  RTol: 1.e-6
  ETol: 1.e-8
  MaxIterations: 30
`

// Inflow at x = 0, calving at x = 1, slip walls on both sides
const testSU2 = `NDIME= 2
NELEM= 4
5 0 1 4
5 0 4 3
5 1 2 5
5 1 5 4
NPOIN= 6
0 0
10000 0
20000 0
0 5000
10000 5000
20000 5000
NMARK= 3
MARKER_TAG= inflow
MARKER_ELEMS= 1
3 3 0
MARKER_TAG= calving
MARKER_ELEMS= 1
3 2 5
MARKER_TAG= lateral
MARKER_ELEMS= 4
3 0 1
3 1 2
3 5 4
3 4 3
`

func newTestCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	addInputFlags(c)
	return c
}

func TestParametersFromFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "params.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte(testInput), 0644))
	{ // Test a missing input file name
		_, err := parametersFromFlags(newTestCommand())
		assert.Error(t, err)
	}
	{
		c := newTestCommand()
		require.NoError(t, c.Flags().Set("inputConditionsFile", file))
		require.NoError(t, c.Flags().Set("gridFile", "shelf.su2"))
		viper.Set("verbose", true)
		defer viper.Set("verbose", false)
		ip, err := parametersFromFlags(c)
		require.NoError(t, err)
		assert.Equal(t, "Test Case", ip.Title)
		assert.Equal(t, "shelf.su2", ip.MeshFile)
		assert.True(t, ip.Verbose)
	}
	{ // Test the config file fallback
		viper.Set("input", file)
		defer viper.Set("input", "")
		ip, err := parametersFromFlags(newTestCommand())
		require.NoError(t, err)
		assert.Equal(t, 10, ip.Nx)
	}
	{
		viper.Set("profile", "gpu")
		defer viper.Set("profile", "")
		_, err := startProfile()
		assert.Error(t, err)
	}
}

func TestDiagnostic(t *testing.T) {
	ip, err := InputParameters.ReadParameters([]byte(testInput))
	require.NoError(t, err)
	cs, err := NewCase(ip)
	require.NoError(t, err)
	assert.Equal(t, 40, cs.Mesh.NumCells())
	u, res, err := cs.Diagnostic(nil)
	require.NoError(t, err)
	assert.Equal(t, glacier.Converged, res.State)
	// The initial guess is the exact spreading of the floating slab
	c := ip.Constants()
	rate := c.IceShelfStrainRate(c.RateFactor(c.Temperature), ip.Thickness)
	smin, smax := speedRange(u)
	assert.InDelta(t, 0., smin, 1.e-6*rate*ip.Lx)
	assert.InDelta(t, rate*ip.Lx, smax, 1.e-6*rate*ip.Lx)

	// Same shelf read from an SU2 file
	file := filepath.Join(t.TempDir(), "shelf.su2")
	require.NoError(t, ioutil.WriteFile(file, []byte(testSU2), 0644))
	ip.MeshFile = file
	ip.BoundaryMarkers = map[string]int{"lateral": 2}
	cs, err = NewCase(ip)
	require.NoError(t, err)
	assert.Equal(t, 4, cs.Mesh.NumCells())
	u, res, err = cs.Diagnostic(nil)
	require.NoError(t, err)
	assert.Equal(t, glacier.Converged, res.State)
	_, smax = speedRange(u)
	assert.InDelta(t, rate*ip.Lx, smax, 1.e-6*rate*ip.Lx)
}

func TestTwin(t *testing.T) {
	ip, err := InputParameters.ReadParameters([]byte(testInput))
	require.NoError(t, err)
	cs, err := NewCase(ip)
	require.NoError(t, err)
	tr, err := cs.Twin(false)
	require.NoError(t, err)
	assert.NotEqual(t, "MaxIterationsReached", tr.Status)
	assert.True(t, tr.Objective < 1.e-4*tr.InitialObjective, "J %g -> %g", tr.InitialObjective, tr.Objective)
	assert.True(t, tr.RelativeError < 5.e-2, "relative error %g", tr.RelativeError)
}
