// Package main is the entry point for the recdiff CLI binary.
package main

import (
	"os"

	cli "recdiff/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
