// Package main provides the leappanel CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leappanel/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
