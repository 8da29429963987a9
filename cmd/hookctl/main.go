// METADATA
//
// Command hookctl - event-driven hook dispatcher CLI
//
// Purpose & Function
//
// Entry point for every operation a host process or an operator runs
// against the dispatcher: one event through the pipeline ("dispatch"),
// resource pool introspection ("pool"), external tool diagnostics
// ("probe"), and registry validation ("registry").
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

// run is the named entry point main() delegates to immediately, kept
// separate so it returns an exit code instead of calling os.Exit itself.
func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
