package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/biodb-ai/biodb/pkg/config"
	"github.com/biodb-ai/biodb/pkg/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		configPath string
		limit      int
		summary    bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show generation history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			rec, err := history.New(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer func() { _ = rec.Close() }()

			ctx := cmd.Context()

			if summary {
				summaries, err := rec.Summary(ctx)
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					fmt.Println("No history found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KIND\tREQUESTS\tCACHE HITS\tAVG CONFIDENCE\tAVG LATENCY")
				for _, s := range summaries {
					fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%dms\n",
						s.Kind, s.Requests, s.CacheHits, s.AvgConfidence, s.AvgLatencyMs)
				}
				return w.Flush()
			}

			recs, err := rec.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("No history found.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tKIND\tMODEL\tCACHE\tCONFIDENCE\tVALID\tLATENCY")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%v\t%dms\n",
					r.CreatedAt.Format("2006-01-02T15:04:05"), r.Kind, r.Model,
					r.CacheState, r.Confidence, r.SchemaValid, r.LatencyMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "biodb.yaml", "path to config file")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of records to show")
	cmd.Flags().BoolVar(&summary, "summary", false, "aggregate by analysis kind")
	return cmd
}
