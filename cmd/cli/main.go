// Package main is the entry point for ddfctl, the terminal client for the
// monitor's status API.
package main

import (
	"os"

	"ddfmonitor/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
