package main

import (
	"os"

	"github.com/matheus-maram/concilia-powerline/cmd/concilia/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Set version information
	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.NewErrorHandler().HandleError(err))
	}
}
