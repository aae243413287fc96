// Command frontierctl plots the Pareto front of a study snapshot file
// without a running service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
