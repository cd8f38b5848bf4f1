// Command wers-report runs the WERS code reconciliation over documents on
// disk and prints the result as text, JSON or YAML.
package main

import (
	"fmt"
	"os"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
