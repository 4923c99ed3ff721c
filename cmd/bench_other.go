//go:build !linux

package cmd

import "errors"

func countInstructions(f func() error) (uint64, error) {
	return 0, errors.New("instruction counting needs linux perf events")
}
