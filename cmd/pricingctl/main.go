// Package main is the entry point for the pricingctl operator CLI.
package main

import (
	"os"

	"github.com/Simplici0/estimator/cmd/pricingctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
