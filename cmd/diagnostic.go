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

	"github.com/spf13/cobra"
)

// DiagnosticCmd represents the diagnostic command
var DiagnosticCmd = &cobra.Command{
	Use:   "diagnostic",
	Short: "Velocity in balance with the driving stress",
	Long: `
Solves the shallow stream equations for the ice velocity on a rectangle or an SU2 mesh with uniform thickness,
friction and temperature.

icepack diagnostic -I params.yaml [-F mesh.su2]`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			cs *Case
		)
		ip, err := parametersFromFlags(cmd)
		if err != nil {
			return
		}
		ip.Print()
		prof, err := startProfile()
		if err != nil {
			return
		}
		defer prof.Stop()
		if cs, err = NewCase(ip); err != nil {
			return
		}
		u, res, err := cs.Diagnostic(nil)
		if err != nil {
			return
		}
		smin, smax := speedRange(u)
		fmt.Printf("%s after %d Newton iterations, relative residual %8.5e\n", res.State, res.Iterations,
			res.RelativeResidual)
		fmt.Printf("speed range [%8.3f, %8.3f] m/yr on %d cells\n", smin, smax, cs.Mesh.NumCells())
		return
	},
}

func init() {
	rootCmd.AddCommand(DiagnosticCmd)
	addInputFlags(DiagnosticCmd)
}
