package cmd

import (
	"fmt"
	"io/ioutil"
	"log"
	"math"

	"github.com/benhills/icepack/InputParameters"
	"github.com/benhills/icepack/fem"
	"github.com/benhills/icepack/geometry2D"
	"github.com/benhills/icepack/glacier"
	"github.com/benhills/icepack/readfiles"
	"github.com/benhills/icepack/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/floats"
)

const exampleFile = `
########################################
Title: "Ice shelf"
PolynomialOrder: 1
Lx: 20000.
Ly: 5000.
Nx: 20
Ny: 5
Thickness: 500.
Temperature: 263.15
InflowVelocity: 0.
Newton:
  Tolerance: 1.e-10
  Damping: 0.1
Regularization:
  L: 0.
  Theta: 1.
########################################
`

// Case is a shallow stream model with uniform thickness and friction, set up from the run parameters
type Case struct {
	Params     *InputParameters.Parameters
	Mesh       *geometry2D.Mesh
	Model      *glacier.ShallowStream
	S, H, Beta *fem.Field
	U0         *fem.VectorField // Initial guess, its Dirichlet values hold for every solve
}

func addInputFlags(c *cobra.Command) {
	c.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Thickness\n\t- Newton tolerance")
	c.Flags().StringP("gridFile", "F", "", "Mesh file to read in SU2 (.su2) format, overrides MeshFile")
}

// parametersFromFlags reads the input file named by -I, falling back on the "input" key of the config file
func parametersFromFlags(c *cobra.Command) (ip *InputParameters.Parameters, err error) {
	var (
		file, grid string
		data       []byte
	)
	if file, err = c.Flags().GetString("inputConditionsFile"); err != nil {
		return
	}
	if len(file) == 0 {
		file = viper.GetString("input")
	}
	if len(file) == 0 {
		fmt.Printf("Example File:%s\n", exampleFile)
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
	}
	if data, err = ioutil.ReadFile(file); err != nil {
		return
	}
	if ip, err = InputParameters.ReadParameters(data); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if grid, err = c.Flags().GetString("gridFile"); err != nil {
		return
	}
	if len(grid) != 0 {
		ip.MeshFile = grid
	}
	if viper.GetBool("verbose") {
		ip.Verbose = true
	}
	return
}

func NewCase(ip *InputParameters.Parameters) (cs *Case, err error) {
	cs = &Case{Params: ip}
	if len(ip.MeshFile) != 0 {
		if cs.Mesh, err = readfiles.ReadSU2(ip.MeshFile, ip.BoundaryMarkers, ip.Verbose); err != nil {
			return nil, err
		}
	} else {
		cs.Mesh = geometry2D.NewRectangleMesh(ip.Lx, ip.Ly, ip.Nx, ip.Ny, [4]int{
			int(utils.BoundaryDirichlet), int(utils.BoundaryCalvingFront),
			int(utils.BoundarySlipWall), int(utils.BoundarySlipWall)})
	}
	c := ip.Constants()
	if cs.Model, err = glacier.NewShallowStream(cs.Mesh, ip.PolynomialOrder, c, ip.SolverOptions()); err != nil {
		return nil, err
	}
	surface := ip.Surface
	if surface == 0 {
		surface = c.FlotationFactor() * ip.Thickness
	}
	cs.H = fem.NewConstantField(cs.Model.Scalar, ip.Thickness)
	cs.S = fem.NewConstantField(cs.Model.Scalar, surface)
	cs.Beta = fem.NewConstantField(cs.Model.Scalar, ip.Friction)
	// The inflow velocity plus the spreading rate of a free floating slab
	var (
		xmin, _, _, _ = cs.Mesh.Bounds()
		rate          = c.IceShelfStrainRate(c.RateFactor(c.Temperature), ip.Thickness)
	)
	cs.U0 = fem.InterpolateVector(cs.Model.Vector, func(x, y float64) [2]float64 {
		return [2]float64{ip.InflowVelocity + rate*(x-xmin), 0}
	})
	return
}

func speedRange(u *fem.VectorField) (smin, smax float64) {
	var (
		ux, uy = u.Component(0), u.Component(1)
		speed  = make([]float64, len(ux))
	)
	for i := range ux {
		speed[i] = math.Hypot(ux[i], uy[i])
	}
	return floats.Min(speed), floats.Max(speed)
}

func (cs *Case) Diagnostic(theta *fem.Field) (u *fem.VectorField, res glacier.DiagnosticResult, err error) {
	if u, res, err = cs.Model.DiagnosticSolve(cs.S, cs.H, cs.Beta, theta, cs.U0); err != nil {
		return
	}
	if cs.Params.Verbose {
		smin, smax := speedRange(u)
		log.Printf("diagnostic solve %s after %d iterations, relative residual %8.5e, speed %8.3f to %8.3f m/yr\n",
			res.State, res.Iterations, res.RelativeResidual, smin, smax)
		log.Println(utils.GetMemUsage())
	}
	return
}
