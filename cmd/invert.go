/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log"
	"math"

	"github.com/benhills/icepack/fem"
	"github.com/benhills/icepack/inverse"
	"github.com/benhills/icepack/utils"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

// InvertCmd represents the invert command
var InvertCmd = &cobra.Command{
	Use:   "invert",
	Short: "Synthetic estimation of the fluidity from velocities",
	Long: `
Generates velocities from a known fluidity perturbation, then recovers the perturbation from those velocities with
the Gauss-Newton method, or with L-BFGS when --bfgs is given.

icepack invert -I params.yaml`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			cs  *Case
			res *TwinResult
		)
		ip, err := parametersFromFlags(cmd)
		if err != nil {
			return
		}
		ip.Print()
		bfgs, _ := cmd.Flags().GetBool("bfgs")
		prof, err := startProfile()
		if err != nil {
			return
		}
		defer prof.Stop()
		if cs, err = NewCase(ip); err != nil {
			return
		}
		if res, err = cs.Twin(bfgs); err != nil {
			return
		}
		fmt.Printf("%s after %d iterations, J %8.5e -> %8.5e, relative parameter error %8.5e\n",
			res.Status, res.Iterations, res.InitialObjective, res.Objective, res.RelativeError)
		return
	},
}

func init() {
	rootCmd.AddCommand(InvertCmd)
	addInputFlags(InvertCmd)
	InvertCmd.Flags().Bool("bfgs", false, "use L-BFGS instead of Gauss-Newton")
}

type TwinResult struct {
	Status                      string
	Iterations                  int
	InitialObjective, Objective float64
	RelativeError               float64
	ThetaTrue, Theta            *fem.Field
}

/*
Twin runs a synthetic experiment: velocities from a forward solve with the fluidity perturbation
theta = 0.1 sin(pi (x - xmin) / (xmax - xmin)) serve as observations with unit standard deviation, and the
perturbation is estimated starting from zero.
*/
func (cs *Case) Twin(bfgs bool) (tr *TwinResult, err error) {
	var (
		ip               = cs.Params
		opts             = ip.InverseOptions()
		sp               = cs.Model.Scalar
		xmin, xmax, _, _ = cs.Mesh.Bounds()
		uObs             *fem.VectorField
		misfit           *inverse.Misfit
		p                *inverse.Problem
		sigma            = fem.NewConstantField(sp, 1)
		thetaTrue        = fem.Interpolate(sp, func(x, y float64) float64 {
			return 0.1 * math.Sin(math.Pi*(x-xmin)/(xmax-xmin))
		})
	)
	if err = opts.Validate(); err != nil {
		return
	}
	if uObs, _, err = cs.Diagnostic(thetaTrue); err != nil {
		return
	}
	if misfit, err = inverse.NewMisfit(uObs, sigma, sigma); err != nil {
		return
	}
	reg := inverse.NewRegularization(sp, opts.L, opts.Theta)
	if p, err = inverse.NewProblem(cs.Model, cs.S, cs.H, cs.Beta, cs.U0, fem.NewField(sp), misfit, reg); err != nil {
		return
	}
	tr = &TwinResult{InitialObjective: p.Objective(), ThetaTrue: thetaTrue}
	if bfgs {
		var b *inverse.BFGSSolver
		if b, err = inverse.NewBFGSSolver(p, opts); err != nil {
			return
		}
		result, err := b.Solve(opts.MaxIterations)
		if err != nil {
			return nil, err
		}
		tr.Status, tr.Iterations = result.Status.String(), result.Stats.MajorIterations
	} else {
		var gn *inverse.GaussNewtonSolver
		callback := func(gn *inverse.GaussNewtonSolver) {
			if ip.Verbose {
				log.Printf("iteration %d: J = %8.5e, R = %8.5e, expected decrease %8.5e\n", gn.Iteration(),
					gn.Objective(), gn.RegularizationValue(), gn.ExpectedDecrease())
			}
		}
		if gn, err = inverse.NewGaussNewtonSolver(p, opts, callback); err != nil {
			return
		}
		if tr.Iterations, err = gn.Run(); err != nil {
			return
		}
		tr.Status = gn.State().String()
	}
	tr.Objective = p.Objective()
	tr.Theta = p.Theta.Copy()
	d := utils.CopyOf(p.Theta.Coefficients())
	floats.Sub(d, thetaTrue.Coefficients())
	tr.RelativeError = utils.Norm2(d) / utils.Norm2(thetaTrue.Coefficients())
	return
}
