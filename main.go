// Package main is the entry point for the compas CLI.
package main

import (
	"os"

	"github.com/AmirTlinov/compas/cmd"
	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/internal/history"
)

func main() {
	code := run()
	os.Exit(code)
}

// run executes the CLI and returns the gate exit code. Deferred cleanup
// runs before the process exits.
func run() int {
	defer history.CloseStores()

	cmd.SetStoreManager(history.Manager)

	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error starting CLI", err)
	}

	if err := cmd.StopProfiling(); err != nil {
		contract.LogFatal("Error stopping profiling", err)
	}
	return cmd.ExitCode()
}
