package fem

import (
	"fmt"
	"math"

	"github.com/benhills/icepack/utils"
	"gonum.org/v1/gonum/floats"
)

/*
Field is a scalar finite element function. It refers to, but does not own, its space, the coefficient vector always
has the length of the space's DOF count.
*/
type Field struct {
	space *Space
	coef  []float64
}

func NewField(sp *Space) *Field {
	if sp.Components != 1 {
		panic(fmt.Errorf("%w: scalar field on a %d component space", ErrSpaceMismatch, sp.Components))
	}
	return &Field{space: sp, coef: make([]float64, sp.NDofs())}
}

func NewConstantField(sp *Space, val float64) (f *Field) {
	f = NewField(sp)
	f.coef = utils.ConstArray(len(f.coef), val)
	return
}

// Interpolate sets the nodal values of a new field from a function of position
func Interpolate(sp *Space, fn func(x, y float64) float64) (f *Field) {
	f = NewField(sp)
	X, Y := sp.SupportPoints()
	for i := range f.coef {
		f.coef[i] = fn(X[i], Y[i])
	}
	return
}

func (f *Field) Space() *Space           { return f.space }
func (f *Field) Coefficients() []float64 { return f.coef }

func (f *Field) Copy() *Field {
	g := &Field{space: f.space, coef: make([]float64, len(f.coef))}
	copy(g.coef, f.coef)
	return g
}

func (f *Field) CopyFrom(g *Field) error {
	if err := f.CheckSameSpace(g); err != nil {
		return err
	}
	copy(f.coef, g.coef)
	return nil
}

func (f *Field) CheckSameSpace(g *Field) error {
	return f.space.CheckSameSpace(g.space)
}

// Add computes f += alpha * g
func (f *Field) Add(alpha float64, g *Field) error {
	if err := f.CheckSameSpace(g); err != nil {
		return err
	}
	floats.AddScaled(f.coef, alpha, g.coef)
	return nil
}

func (f *Field) ValueAt(cv *CellValues, q int) (val float64) {
	for i, d := range cv.Dofs {
		val += f.coef[d] * cv.Phi[q][i]
	}
	return
}

func (f *Field) GradientAt(cv *CellValues, q int) (grad [2]float64) {
	for i, d := range cv.Dofs {
		grad[0] += f.coef[d] * cv.Grad[q][i][0]
		grad[1] += f.coef[d] * cv.Grad[q][i][1]
	}
	return
}

func (f *Field) FaceValueAt(fv *FaceValues, q int) (val float64) {
	for i, d := range fv.Dofs {
		val += f.coef[d] * fv.Phi[q][i]
	}
	return
}

// Norm is the L2 norm over the mesh
func (f *Field) Norm() float64 {
	ip, _ := Inner(f, f)
	return math.Sqrt(ip)
}

// Inner is the L2 inner product of two scalar fields
func Inner(a, b *Field) (ip float64, err error) {
	if err = a.CheckSameSpace(b); err != nil {
		return
	}
	cv := a.space.NewCellValues()
	for k := 0; k < a.space.Mesh.NumCells(); k++ {
		cv.Reinit(k)
		for q := 0; q < cv.Nq; q++ {
			ip += a.ValueAt(cv, q) * b.ValueAt(cv, q) * cv.JxW[q]
		}
	}
	return
}

// VectorField is a 2-vector finite element function with interleaved component coefficients
type VectorField struct {
	space *Space
	coef  []float64
}

func NewVectorField(sp *Space) *VectorField {
	if sp.Components != 2 {
		panic(fmt.Errorf("%w: vector field on a %d component space", ErrSpaceMismatch, sp.Components))
	}
	return &VectorField{space: sp, coef: make([]float64, sp.NDofs())}
}

func InterpolateVector(sp *Space, fn func(x, y float64) [2]float64) (f *VectorField) {
	f = NewVectorField(sp)
	X, Y := sp.SupportPoints()
	for i := range X {
		v := fn(X[i], Y[i])
		f.coef[2*i], f.coef[2*i+1] = v[0], v[1]
	}
	return
}

func (f *VectorField) Space() *Space           { return f.space }
func (f *VectorField) Coefficients() []float64 { return f.coef }

func (f *VectorField) Copy() *VectorField {
	g := &VectorField{space: f.space, coef: make([]float64, len(f.coef))}
	copy(g.coef, f.coef)
	return g
}

func (f *VectorField) CopyFrom(g *VectorField) error {
	if err := f.CheckSameSpace(g); err != nil {
		return err
	}
	copy(f.coef, g.coef)
	return nil
}

func (f *VectorField) CheckSameSpace(g *VectorField) error {
	return f.space.CheckSameSpace(g.space)
}

func (f *VectorField) Add(alpha float64, g *VectorField) error {
	if err := f.CheckSameSpace(g); err != nil {
		return err
	}
	floats.AddScaled(f.coef, alpha, g.coef)
	return nil
}

// Component extracts one velocity component as a scalar coefficient array
func (f *VectorField) Component(c int) (v []float64) {
	v = make([]float64, len(f.coef)/2)
	for i := range v {
		v[i] = f.coef[2*i+c]
	}
	return
}

func (f *VectorField) ValueAt(cv *CellValues, q int) (val [2]float64) {
	for i, d := range cv.Dofs {
		val[0] += f.coef[2*d] * cv.Phi[q][i]
		val[1] += f.coef[2*d+1] * cv.Phi[q][i]
	}
	return
}

// GradientAt returns G[c][j] = d u_c / d x_j
func (f *VectorField) GradientAt(cv *CellValues, q int) (G [2][2]float64) {
	for i, d := range cv.Dofs {
		g := cv.Grad[q][i]
		for c := 0; c < 2; c++ {
			G[c][0] += f.coef[2*d+c] * g[0]
			G[c][1] += f.coef[2*d+c] * g[1]
		}
	}
	return
}

func (f *VectorField) FaceValueAt(fv *FaceValues, q int) (val [2]float64) {
	for i, d := range fv.Dofs {
		val[0] += f.coef[2*d] * fv.Phi[q][i]
		val[1] += f.coef[2*d+1] * fv.Phi[q][i]
	}
	return
}

func (f *VectorField) Norm() float64 {
	ip, _ := VectorInner(f, f)
	return math.Sqrt(ip)
}

func VectorInner(a, b *VectorField) (ip float64, err error) {
	if err = a.CheckSameSpace(b); err != nil {
		return
	}
	var (
		sp = a.space
		cv = sp.NewCellValues()
	)
	for k := 0; k < sp.Mesh.NumCells(); k++ {
		cv.Reinit(k)
		for q := 0; q < cv.Nq; q++ {
			va, vb := a.ValueAt(cv, q), b.ValueAt(cv, q)
			ip += (va[0]*vb[0] + va[1]*vb[1]) * cv.JxW[q]
		}
	}
	return
}
