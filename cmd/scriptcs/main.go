// Package main provides the scriptcs command-line interface.
package main

import (
	"os"

	"github.com/toddmeinershagen/scriptcs/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
