package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/biodb-ai/biodb/pkg/db"
	"github.com/biodb-ai/biodb/pkg/schema"
)

func newDiscoverCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Inspect the database structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(configPath, dbPath)
			if err != nil {
				return err
			}
			reader, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = reader.Close() }()

			fp, err := schema.Build(ctx, reader)
			if err != nil {
				return err
			}

			tables := fp.TableNames()
			fmt.Printf("%s: %s\n", cfg.DBPath, db.DetectKind(tables))
			fmt.Printf("Schema hash: %s\n\n", fp.ContentHash())

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tROWS\tCOLUMNS\tPRIMARY KEY\tFOREIGN KEYS")
			for _, name := range tables {
				count, err := reader.RowCount(ctx, name)
				if err != nil {
					return err
				}
				tbl := fp.Tables[name]

				var fks []string
				for _, fk := range fp.ForeignKeys[name] {
					fks = append(fks, fmt.Sprintf("%s -> %s(%s)",
						strings.Join(fk.Columns, ","), fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ",")))
				}

				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					name, humanize.Comma(count), len(tbl.Columns),
					strings.Join(tbl.PrimaryKey, ","), strings.Join(fks, "; "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "biodb.yaml", "path to config file")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite database")
	return cmd
}
