package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/biodb-ai/biodb/pkg/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analyzer as an MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.New(a.analyzer, a.reader, a.store, a.history, version)
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "biodb.yaml", "path to config file")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite database")
	return cmd
}
