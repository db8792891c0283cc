// Package main is the entry point for the slidex server CLI.
//
// Usage:
//
//	slidex [flags] <command> [args]
//
// Commands:
//
//	serve      - Run the presentation generation server
//	config     - Show the active configuration
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/slidex/slidex/cmd/slidex/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
