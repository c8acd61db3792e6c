// Package main provides the entry point for starledger.
//
// starledger watches a directory of save games, one subdirectory per game
// session, and keeps a queryable history of what changed between saves.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/starledger/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
