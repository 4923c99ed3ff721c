package main

import "github.com/benhills/icepack/cmd"

func main() {
	cmd.Execute()
}
