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
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "icepack",
	Short: "Shallow stream ice flow solver with adjoint based parameter estimation",
	Long: `
Finite element solver for the shallow stream approximation of glacier and ice shelf flow. Computes velocities in
balance with the driving stress and estimates the ice fluidity from observed velocities.

icepack diagnostic -I params.yaml [-F mesh.su2]
icepack invert -I params.yaml`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.icepack.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print solver progress")
	rootCmd.PersistentFlags().String("profile", "", "write a profile of the run: cpu or mem")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".icepack")
	}
	viper.SetEnvPrefix("icepack")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

type stopper interface{ Stop() }

type noProfile struct{}

func (noProfile) Stop() {}

// startProfile begins the profile selected by the --profile flag, writing into the working directory
func startProfile() (s stopper, err error) {
	switch mode := viper.GetString("profile"); mode {
	case "":
		return noProfile{}, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	default:
		return nil, fmt.Errorf("unknown profile mode %q, use cpu or mem", mode)
	}
}
