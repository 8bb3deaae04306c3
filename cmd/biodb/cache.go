package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	cachepkg "github.com/biodb-ai/biodb/pkg/cache/sqlite"
	"github.com/biodb-ai/biodb/pkg/config"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis cache",
	}

	openStore := func() (*cachepkg.Store, error) {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return nil, err
		}
		return cachepkg.New(cfg.CachePath, cachepkg.Config{
			MaxSizeBytes:        cfg.Cache.MaxSizeBytes,
			MaxAge:              cfg.Cache.MaxAge,
			ConfidenceThreshold: cfg.Cache.ConfidenceThreshold,
		})
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stats, err := c.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("Entries:       %s\n", humanize.Comma(stats.Entries))
			fmt.Printf("Size:          %s\n", humanize.Bytes(uint64(stats.CurrentSizeBytes)))
			fmt.Printf("Hits:          %d\n", stats.Hits)
			fmt.Printf("Misses:        %d\n", stats.Misses)
			fmt.Printf("Evictions:     %d\n", stats.Evictions)
			fmt.Printf("Invalidations: %d\n", stats.Invalidations)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}

	evictCmd := &cobra.Command{
		Use:   "evict",
		Short: "Enforce the size budget now",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.EnforceSizeBudget(); err != nil {
				return err
			}
			stats, err := c.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("Cache holds %s in %s entries.\n",
				humanize.Bytes(uint64(stats.CurrentSizeBytes)), humanize.Comma(stats.Entries))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "biodb.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd, evictCmd)
	return cmd
}
