// Package main is the entry point for the berth CLI.
//
// The binary turns a fresh Ubuntu host into a running application stack
// and can re-run safely to converge an already-provisioned host. All
// command logic lives in internal/cli; main only injects build metadata
// and hands control to cobra.
package main

import (
	"github.com/mmr-tortoise/berth/internal/cli"
)

// version, commit, and date are stamped at release time via ldflags.
// Development builds keep the placeholder values.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
