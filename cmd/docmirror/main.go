// Package main provides the entry point for docmirror.
//
// docmirror exports document collections into point-in-time JSON
// snapshots and restores them incrementally, touching only the
// documents that differ.
package main

import (
	"fmt"
	"os"

	"github.com/docmirror/docmirror-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
