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

// BenchCmd represents the bench command
var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Hardware instruction count of a diagnostic solve",
	Long: `
Counts the CPU instructions retired during one diagnostic solve using the perf events interface, linux only.

icepack bench -I params.yaml`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			cs    *Case
			count uint64
		)
		ip, err := parametersFromFlags(cmd)
		if err != nil {
			return
		}
		if cs, err = NewCase(ip); err != nil {
			return
		}
		if count, err = countInstructions(func() error {
			_, _, err := cs.Diagnostic(nil)
			return err
		}); err != nil {
			return
		}
		fmt.Printf("%d instructions for a diagnostic solve on %d cells, degree %d\n", count, cs.Mesh.NumCells(),
			ip.PolynomialOrder)
		return
	},
}

func init() {
	rootCmd.AddCommand(BenchCmd)
	addInputFlags(BenchCmd)
}
