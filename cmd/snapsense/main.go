// Package main is the entry point for the snapsense CLI.
//
// Usage:
//
//	snapsense [flags] <command> [subcommand] [args]
//
// Commands:
//
//	run      - Run the detection engine over a recording
//	model    - Inspect and validate classifier models
//	events   - Browse the persisted event log
//	profile  - Manage detector profiles
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/snapsense/snapsense/cmd/snapsense/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
