// Package main provides the entry point for snapwatch-cli.
//
// snapwatch-cli compares configuration documents offline and inspects a
// running snapwatch-server:
//
//	snapwatch-cli diff old.yaml new.yaml
//	snapwatch-cli watch app.yaml
//	snapwatch-cli seed ./data app.yaml --prefix app/
//	snapwatch-cli -s localhost:5480 sources changes app
//	snapwatch-cli live set flags beta on
package main

import (
	"os"

	"github.com/yndnr/snapwatch-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
