package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "biodb",
		Short:   "biodb — schema-grounded analysis of scientific SQLite databases",
		Version: version,
	}

	root.AddCommand(
		newDiscoverCmd(),
		newAnalyzeCmd(),
		newExportCmd(),
		newCacheCmd(),
		newHistoryCmd(),
		newMCPCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
