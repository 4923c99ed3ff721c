package InputParameters

import (
	"errors"
	"fmt"
	"sort"

	"github.com/benhills/icepack/glacier"
	"github.com/benhills/icepack/inverse"
	"github.com/benhills/icepack/linsolve"
	"github.com/ghodss/yaml"
)

var ErrInvalidParameter = errors.New("InputParameters: invalid parameter")

type NewtonParameters struct {
	Tolerance     float64 `json:"Tolerance"`
	MaxIterations int     `json:"MaxIterations"`
	Damping       float64 `json:"Damping"`
}

type LinearParameters struct {
	Tolerance     float64 `json:"Tolerance"`
	MaxIterations int     `json:"MaxIterations"`
}

type RegularizationParameters struct {
	L     float64 `json:"L"`
	Theta float64 `json:"Theta"`
}

type GaussNewtonParameters struct {
	RTol                float64 `json:"RTol"`
	ETol                float64 `json:"ETol"`
	ATol                float64 `json:"ATol"`
	MaxIterations       int     `json:"MaxIterations"`
	SearchMaxIterations int     `json:"SearchMaxIterations"`
	GradientTolerance   float64 `json:"GradientTolerance"` // L-BFGS only
}

/*
PhysicalParameters override the physical constants of the model, a zero or absent key keeps the default.
Densities are in kg/m^3, gravity in m/s^2 and the fluidity in MPa^-n/yr at the model temperature.
*/
type PhysicalParameters struct {
	RhoIce       float64 `json:"RhoIce"`
	RhoWater     float64 `json:"RhoWater"`
	Gravity      float64 `json:"Gravity"`
	GlenExponent float64 `json:"GlenExponent"`
	Fluidity     float64 `json:"Fluidity"`
}

/*
Parameters obtained from the YAML input file. ghodss/yaml converts the document to JSON before decoding, so the
field names are given as json tags. Lengths are in m, velocities in m/yr, temperature in K.
*/
type Parameters struct {
	Title           string                   `json:"Title"`
	PolynomialOrder int                      `json:"PolynomialOrder"`
	MeshFile        string                   `json:"MeshFile"`        // SU2 mesh, empty selects the rectangle
	BoundaryMarkers map[string]int           `json:"BoundaryMarkers"` // SU2 marker name to boundary id
	Lx              float64                  `json:"Lx"`
	Ly              float64                  `json:"Ly"`
	Nx              int                      `json:"Nx"`
	Ny              int                      `json:"Ny"`
	Thickness       float64                  `json:"Thickness"`
	Surface         float64                  `json:"Surface"` // Zero puts the surface at flotation
	Friction        float64                  `json:"Friction"`
	Temperature     float64                  `json:"Temperature"`
	InflowVelocity  float64                  `json:"InflowVelocity"`
	Physics         PhysicalParameters       `json:"Physics"`
	Newton          NewtonParameters         `json:"Newton"`
	Linear          LinearParameters         `json:"Linear"`
	Regularization  RegularizationParameters `json:"Regularization"`
	GaussNewton     GaussNewtonParameters    `json:"GaussNewton"`
	ParallelDegree  int                      `json:"ParallelDegree"`
	Verbose         bool                     `json:"Verbose"`
}

// Defaults describes a 20 km by 5 km floating shelf of 500 m thickness
func Defaults() (ip *Parameters) {
	var (
		c   = glacier.DefaultConstants()
		so  = glacier.DefaultSolverOptions()
		ls  = linsolve.DefaultSettings()
		inv = inverse.DefaultOptions()
	)
	return &Parameters{
		Title:           "Ice shelf",
		PolynomialOrder: 1,
		Lx:              20000,
		Ly:              5000,
		Nx:              20,
		Ny:              5,
		Thickness:       500,
		Temperature:     c.Temperature,
		Newton:          NewtonParameters{Tolerance: so.Tolerance, MaxIterations: so.MaxIterations, Damping: so.Damping},
		Linear:          LinearParameters{Tolerance: ls.Tolerance, MaxIterations: ls.MaxIterations},
		Regularization:  RegularizationParameters{L: inv.L, Theta: inv.Theta},
		GaussNewton: GaussNewtonParameters{RTol: inv.RTol, ETol: inv.ETol, ATol: inv.ATol,
			MaxIterations: inv.MaxIterations, SearchMaxIterations: inv.SearchMaxIterations},
		ParallelDegree: so.ParallelDegree,
	}
}

// Parse overlays the YAML document on the current values, keys absent from the document keep their values
func (ip *Parameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// ReadParameters parses data over the defaults and validates the result
func ReadParameters(data []byte) (ip *Parameters, err error) {
	ip = Defaults()
	if err = ip.Parse(data); err != nil {
		return nil, err
	}
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	return
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func (ip *Parameters) Validate() error {
	switch {
	case ip.PolynomialOrder != 1 && ip.PolynomialOrder != 2:
		return invalid("PolynomialOrder %d, must be 1 or 2", ip.PolynomialOrder)
	case len(ip.MeshFile) == 0 && (ip.Lx <= 0 || ip.Ly <= 0 || ip.Nx <= 0 || ip.Ny <= 0):
		return invalid("rectangle %g x %g with %d x %d cells", ip.Lx, ip.Ly, ip.Nx, ip.Ny)
	case ip.Thickness <= 0:
		return invalid("Thickness %g", ip.Thickness)
	case ip.Surface < 0:
		return invalid("Surface %g", ip.Surface)
	case ip.Friction < 0:
		return invalid("Friction %g", ip.Friction)
	case ip.Temperature <= 0:
		return invalid("Temperature %g", ip.Temperature)
	case ip.Physics.RhoIce < 0 || ip.Physics.RhoWater < 0 || ip.Physics.Gravity < 0 || ip.Physics.Fluidity < 0:
		return invalid("Physics %+v, values must not be negative", ip.Physics)
	case ip.Physics.GlenExponent != 0 && ip.Physics.GlenExponent < 1:
		return invalid("GlenExponent %g, must be at least 1", ip.Physics.GlenExponent)
	case ip.Constants().FlotationFactor() <= 0:
		return invalid("RhoIce must be less than RhoWater")
	case ip.Newton.Tolerance <= 0 || ip.Newton.MaxIterations <= 0:
		return invalid("Newton tolerance %g, iterations %d", ip.Newton.Tolerance, ip.Newton.MaxIterations)
	case ip.Newton.Damping <= 0 || ip.Newton.Damping > 1:
		return invalid("Newton damping %g outside (0,1]", ip.Newton.Damping)
	case ip.Linear.Tolerance <= 0 || ip.Linear.Tolerance >= 1 || ip.Linear.MaxIterations <= 0:
		return invalid("Linear tolerance %g, iterations %d", ip.Linear.Tolerance, ip.Linear.MaxIterations)
	case ip.ParallelDegree < 1:
		return invalid("ParallelDegree %d", ip.ParallelDegree)
	}
	if err := ip.InverseOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return nil
}

func (ip *Parameters) Constants() (c glacier.Constants) {
	var (
		ph = ip.Physics
	)
	c = glacier.DefaultConstants()
	c.Temperature = ip.Temperature
	if ph.RhoIce != 0 {
		c.RhoIce = glacier.DensityFromSI(ph.RhoIce)
	}
	if ph.RhoWater != 0 {
		c.RhoWater = glacier.DensityFromSI(ph.RhoWater)
	}
	if ph.Gravity != 0 {
		c.Gravity = glacier.AccelerationFromSI(ph.Gravity)
	}
	if ph.GlenExponent != 0 {
		c.GlenExponent = ph.GlenExponent
	}
	// Both branches of the Arrhenius law are scaled so that A(Temperature) is the given fluidity
	if ph.Fluidity != 0 && ip.Temperature > 0 {
		scale := ph.Fluidity / c.RateFactor(c.Temperature)
		c.A0Cold *= scale
		c.A0Warm *= scale
	}
	return
}

func (ip *Parameters) LinearSettings() (s linsolve.Settings) {
	s = linsolve.DefaultSettings()
	s.Tolerance = ip.Linear.Tolerance
	s.MaxIterations = ip.Linear.MaxIterations
	return
}

func (ip *Parameters) SolverOptions() (so glacier.SolverOptions) {
	so = glacier.DefaultSolverOptions()
	so.Tolerance = ip.Newton.Tolerance
	so.MaxIterations = ip.Newton.MaxIterations
	so.Damping = ip.Newton.Damping
	so.Linear = ip.LinearSettings()
	so.ParallelDegree = ip.ParallelDegree
	so.Verbose = ip.Verbose
	return
}

func (ip *Parameters) InverseOptions() (o inverse.Options) {
	o = inverse.DefaultOptions()
	o.L = ip.Regularization.L
	o.Theta = ip.Regularization.Theta
	o.RTol = ip.GaussNewton.RTol
	o.ETol = ip.GaussNewton.ETol
	o.ATol = ip.GaussNewton.ATol
	o.MaxIterations = ip.GaussNewton.MaxIterations
	o.SearchMaxIterations = ip.GaussNewton.SearchMaxIterations
	o.GradientTolerance = ip.GaussNewton.GradientTolerance
	o.Verbose = ip.Verbose
	return
}

func (ip *Parameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	if len(ip.MeshFile) != 0 {
		fmt.Printf("[%s]\t\t= Mesh File\n", ip.MeshFile)
	} else {
		fmt.Printf("%g x %g m, %d x %d\t= Rectangle\n", ip.Lx, ip.Ly, ip.Nx, ip.Ny)
	}
	fmt.Printf("%8.5f\t\t= Thickness\n", ip.Thickness)
	fmt.Printf("%8.5f\t\t= Surface\n", ip.Surface)
	fmt.Printf("%8.5f\t\t= Friction\n", ip.Friction)
	fmt.Printf("%8.5f\t\t= Temperature\n", ip.Temperature)
	fmt.Printf("%8.5f\t\t= Inflow Velocity\n", ip.InflowVelocity)
	fmt.Printf("%+v\t= Physics\n", ip.Physics)
	fmt.Printf("%v\t= Newton\n", ip.Newton)
	fmt.Printf("%v\t= Linear\n", ip.Linear)
	fmt.Printf("%v\t\t= Regularization\n", ip.Regularization)
	fmt.Printf("%v\t= Gauss-Newton\n", ip.GaussNewton)
	keys := make([]string, 0, len(ip.BoundaryMarkers))
	for k := range ip.BoundaryMarkers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BoundaryMarkers[%s] = %d\n", key, ip.BoundaryMarkers[key])
	}
}
