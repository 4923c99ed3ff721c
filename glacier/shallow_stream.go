package glacier

import (
	"errors"
	"fmt"
	"math"

	"github.com/benhills/icepack/fem"
	"github.com/benhills/icepack/geometry2D"
	"github.com/benhills/icepack/utils"
)

var (
	ErrNegativeThickness = errors.New("glacier: negative ice thickness")
	ErrNotImplemented    = errors.New("glacier: not implemented")
	ErrNonFinite         = errors.New("glacier: non-finite residual")
)

/*
ShallowStream is the shallow stream approximation of ice flow, a membrane stress balance for the depth averaged
velocity of ice streams and ice shelves. Scalar inputs (thickness, surface, friction, log fluidity) live on Scalar,
velocities on Vector, both of the same degree on the same mesh.

Boundary segment ids follow utils.BoundaryType: Dirichlet segments hold the velocity at the value carried by the
initial guess, calving fronts receive the ice/ocean pressure imbalance, slip walls hold the normal velocity at zero.
*/
type ShallowStream struct {
	Scalar, Vector *fem.Space
	Constants      Constants
	Options        SolverOptions
	constraints    *fem.Constraints
}

// NewShallowStream builds the model on a mesh, zero valued solver options take their defaults
func NewShallowStream(m *geometry2D.Mesh, degree int, c Constants, opts SolverOptions) (ss *ShallowStream, err error) {
	def := DefaultSolverOptions()
	if opts.Tolerance == 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Damping == 0 {
		opts.Damping = def.Damping
	}
	ss = &ShallowStream{
		Constants: c,
		Options:   opts,
	}
	if ss.Scalar, err = fem.NewScalarSpace(m, degree); err != nil {
		return nil, err
	}
	if ss.Vector, err = fem.NewVectorSpace(m, degree); err != nil {
		return nil, err
	}
	ss.constraints = fem.NewConstraints(
		ss.Vector.BoundaryDofs([]int{int(utils.BoundaryDirichlet)}, -1),
		ss.Vector.NormalComponentDofs([]int{int(utils.BoundarySlipWall)}),
	)
	return
}

// Constraints are the velocity DOFs held fixed by Dirichlet and slip wall boundaries
func (ss *ShallowStream) Constraints() *fem.Constraints { return ss.constraints }

func (ss *ShallowStream) checkScalar(fields ...*fem.Field) error {
	for _, f := range fields {
		if f == nil {
			continue
		}
		if err := ss.Scalar.CheckSameSpace(f.Space()); err != nil {
			return err
		}
	}
	return nil
}

func (ss *ShallowStream) checkVector(fields ...*fem.VectorField) error {
	for _, f := range fields {
		if err := ss.Vector.CheckSameSpace(f.Space()); err != nil {
			return err
		}
	}
	return nil
}

func checkThickness(h *fem.Field) error {
	for i, v := range h.Coefficients() {
		if v < 0 {
			return fmt.Errorf("%w: h = %g at DOF %d", ErrNegativeThickness, v, i)
		}
	}
	return nil
}

// validate checks every precondition of an assembly before any work is done
func (ss *ShallowStream) validate(s, h, beta, theta *fem.Field, u ...*fem.VectorField) (err error) {
	if err = ss.checkScalar(s, h, beta, theta); err != nil {
		return
	}
	if err = ss.checkVector(u...); err != nil {
		return
	}
	return checkThickness(h)
}

// fluidity is A(T) exp(theta) at a cubature point, a nil theta is zero
func (ss *ShallowStream) fluidity(theta *fem.Field, cv *fem.CellValues, q int) float64 {
	A := ss.Constants.RateFactor(ss.Constants.Temperature)
	if theta != nil {
		A *= math.Exp(theta.ValueAt(cv, q))
	}
	return A
}

func valueAt(f *fem.Field, cv *fem.CellValues, q int) float64 {
	if f == nil {
		return 0
	}
	return f.ValueAt(cv, q)
}

/*
forEachCell evaluates local on every cell into a buffer of the given size, in parallel when ParallelDegree > 1, then
hands the buffers to accumulate serially in cell order. Accumulation into global storage is never concurrent.
*/
func (ss *ShallowStream) forEachCell(size int, local func(cv *fem.CellValues, out []float64),
	accumulate func(k int, out []float64)) {
	var (
		K    = ss.Vector.Mesh.NumCells()
		flat = make([]float64, K*size)
	)
	utils.ParallelFor(ss.Options.ParallelDegree, K, func(bucket, kMin, kMax int) {
		cv := ss.Vector.NewCellValues()
		for k := kMin; k < kMax; k++ {
			cv.Reinit(k)
			local(cv, flat[k*size:(k+1)*size])
		}
	})
	for k := 0; k < K; k++ {
		accumulate(k, flat[k*size:(k+1)*size])
	}
}

func (ss *ShallowStream) accumulateVector(dst []float64) func(k int, out []float64) {
	return func(k int, out []float64) {
		for a, d := range ss.Vector.CellDofs(k) {
			dst[d] += out[a]
		}
	}
}

/*
DrivingStress assembles the gravitational forcing, -rhoI g h grad(s) over the interior plus, on calving fronts, the
imbalance between the depth integrated ice overburden and the ocean pressure, 1/2 g (rhoI H^2 - rhoW D^2) n with
draft D = s - H. Land terminating fronts (D >= 0) carry no ocean pressure.
*/
func (ss *ShallowStream) DrivingStress(s, h *fem.Field) (tau *fem.VectorField, err error) {
	if err = ss.checkScalar(s, h); err != nil {
		return
	}
	var (
		c    = ss.Constants
		Np   = ss.Vector.Element.Np
		rhoG = c.RhoIce * c.Gravity
	)
	tau = fem.NewVectorField(ss.Vector)
	T := tau.Coefficients()
	ss.forEachCell(2*Np, func(cv *fem.CellValues, out []float64) {
		for q := 0; q < cv.Nq; q++ {
			var (
				H  = h.ValueAt(cv, q)
				gs = s.GradientAt(cv, q)
			)
			for i := 0; i < Np; i++ {
				phi := cv.Phi[q][i] * cv.JxW[q]
				out[2*i] += -rhoG * H * gs[0] * phi
				out[2*i+1] += -rhoG * H * gs[1] * phi
			}
		}
	}, ss.accumulateVector(T))

	fv := ss.Vector.NewFaceValues()
	for _, be := range ss.Vector.Mesh.BoundaryEdges {
		if be.ID != int(utils.BoundaryCalvingFront) {
			continue
		}
		fv.Reinit(be)
		for q := 0; q < fv.Nq; q++ {
			var (
				H     = h.FaceValueAt(fv, q)
				D     = s.FaceValueAt(fv, q) - H
				water float64
			)
			if D < 0 {
				water = c.RhoWater * D * D
			}
			stress := 0.5 * c.Gravity * (c.RhoIce*H*H - water) * fv.JxW[q]
			for i, d := range fv.Dofs {
				T[2*d] += fv.Phi[q][i] * stress * fv.Normal[0]
				T[2*d+1] += fv.Phi[q][i] * stress * fv.Normal[1]
			}
		}
	}
	return
}

/*
Residual is r = tau - div(2 h nu C eps(u)) - beta u, the last term only where the ice floats, assembled in weak form.
Entries on constrained DOFs are zero.
*/
func (ss *ShallowStream) Residual(s, h, beta, theta *fem.Field, u, tau *fem.VectorField) (r *fem.VectorField, err error) {
	if err = ss.validate(s, h, beta, theta, u, tau); err != nil {
		return
	}
	var (
		c  = ss.Constants
		Np = ss.Vector.Element.Np
	)
	r = tau.Copy()
	ss.forEachCell(2*Np, func(cv *fem.CellValues, out []float64) {
		for q := 0; q < cv.Nq; q++ {
			var (
				H   = h.ValueAt(cv, q)
				eps = StrainRate(u.GradientAt(cv, q))
				M   = c.NonlinearTensor(ss.fluidity(theta, cv, q), H, eps).Apply(eps)
				dx  = cv.JxW[q]
			)
			for i := 0; i < Np; i++ {
				g := cv.Grad[q][i]
				out[2*i] -= basisStrain(g, 0).Dot(M) * dx
				out[2*i+1] -= basisStrain(g, 1).Dot(M) * dx
			}
			if c.IceStateAt(s.ValueAt(cv, q), H) == Floating {
				var (
					uq = u.ValueAt(cv, q)
					b  = valueAt(beta, cv, q)
				)
				for i := 0; i < Np; i++ {
					phi := cv.Phi[q][i] * b * dx
					out[2*i] -= phi * uq[0]
					out[2*i+1] -= phi * uq[1]
				}
			}
		}
	}, ss.accumulateVector(r.Coefficients()))
	ss.constraints.Distribute(r.Coefficients())
	return
}

/*
VelocityMatrix assembles the derivative of the negative residual with respect to the velocity at u, using the
linearized constitutive tensor and the friction where the ice floats. Constraints are not applied.
*/
func (ss *ShallowStream) VelocityMatrix(s, h, beta, theta *fem.Field, u *fem.VectorField) (A *utils.CSR, err error) {
	if err = ss.validate(s, h, beta, theta, u); err != nil {
		return
	}
	var (
		c  = ss.Constants
		Np = ss.Vector.Element.Np
		n  = 2 * Np
	)
	A = ss.Vector.NewMatrix()
	ss.forEachCell(n*n, func(cv *fem.CellValues, K []float64) {
		var (
			epsPhi  = make([]Sym2, n)
			TepsPhi = make([]Sym2, n)
		)
		for q := 0; q < cv.Nq; q++ {
			var (
				H   = h.ValueAt(cv, q)
				eps = StrainRate(u.GradientAt(cv, q))
				T   = c.LinearizedTensor(ss.fluidity(theta, cv, q), H, eps)
				dx  = cv.JxW[q]
			)
			for i := 0; i < Np; i++ {
				for comp := 0; comp < 2; comp++ {
					epsPhi[2*i+comp] = basisStrain(cv.Grad[q][i], comp)
					TepsPhi[2*i+comp] = T.Apply(epsPhi[2*i+comp])
				}
			}
			for a := 0; a < n; a++ {
				for b := 0; b < n; b++ {
					K[a*n+b] += epsPhi[a].Dot(TepsPhi[b]) * dx
				}
			}
			if c.IceStateAt(s.ValueAt(cv, q), H) == Floating {
				bq := valueAt(beta, cv, q) * dx
				for i := 0; i < Np; i++ {
					for j := 0; j < Np; j++ {
						val := bq * cv.Phi[q][i] * cv.Phi[q][j]
						K[(2*i)*n+2*j] += val
						K[(2*i+1)*n+2*j+1] += val
					}
				}
			}
		}
	}, func(k int, K []float64) {
		A.AddLocal(ss.Vector.CellDofs(k), K)
	})
	return
}

/*
PrognosticSolve would advance the thickness over one time step of length dt under accumulation a and velocity u.
Thickness evolution is not part of this model, a copy of h0 is returned with ErrNotImplemented.
*/
func (ss *ShallowStream) PrognosticSolve(dt float64, h0, a *fem.Field, u *fem.VectorField) (*fem.Field, error) {
	return h0.Copy(), ErrNotImplemented
}
