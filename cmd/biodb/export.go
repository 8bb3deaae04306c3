package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/biodb-ai/biodb/pkg/db"
	"github.com/biodb-ai/biodb/pkg/schema"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
		format     string
		out        string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "export [table]",
		Short: "Export the schema, or a table's rows",
		Long: `Export the structural fingerprint of the database as JSON, or the rows
of one table as JSON or CSV.`,
		Args: cobra.MaximumNArgs(1),
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

			w := io.Writer(os.Stdout)
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			if len(args) == 0 {
				if format == "csv" {
					return fmt.Errorf("schema export supports json only")
				}
				fp, err := schema.Build(ctx, reader)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(fp)
			}

			table := args[0]
			rows, err := reader.SampleRows(ctx, table, limit)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			case "csv":
				return writeCSV(ctx, w, reader, table, rows)
			default:
				return fmt.Errorf("unknown format %q (want json or csv)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "biodb.yaml", "path to config file")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite database")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	cmd.Flags().IntVar(&limit, "limit", 10000, "maximum rows to export")
	return cmd
}

// writeCSV emits rows in declared column order with a header line.
func writeCSV(ctx context.Context, w io.Writer, reader db.Reader, table string, rows []map[string]any) error {
	cols, err := reader.TableColumns(ctx, table)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			v := row[c.Name]
			if v == nil {
				record[i] = ""
			} else {
				record[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
