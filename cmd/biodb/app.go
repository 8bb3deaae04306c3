package main

import (
	"context"
	"fmt"

	"github.com/biodb-ai/biodb/pkg/analyzer"
	cachepkg "github.com/biodb-ai/biodb/pkg/cache/sqlite"
	"github.com/biodb-ai/biodb/pkg/config"
	"github.com/biodb-ai/biodb/pkg/db"
	"github.com/biodb-ai/biodb/pkg/history"
	"github.com/biodb-ai/biodb/pkg/ollama"
)

// sampleLimit is how many rows per table are included in prompts.
const sampleLimit = 5

// app bundles the wired components behind a CLI command.
type app struct {
	cfg      *config.Config
	reader   db.Reader
	store    *cachepkg.Store
	history  *history.Recorder
	analyzer *analyzer.Analyzer
}

func loadConfig(configPath, dbPath string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("no database specified: set db_path in config or pass --db")
	}
	return cfg, nil
}

// newApp opens the database, the cache, the history, and the backend client,
// and builds the analyzer with its schema fingerprint.
func newApp(ctx context.Context, configPath, dbPath string) (*app, error) {
	cfg, err := loadConfig(configPath, dbPath)
	if err != nil {
		return nil, err
	}

	reader, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store, err := cachepkg.New(cfg.CachePath, cachepkg.Config{
		MaxSizeBytes:        cfg.Cache.MaxSizeBytes,
		MaxAge:              cfg.Cache.MaxAge,
		ConfidenceThreshold: cfg.Cache.ConfidenceThreshold,
	})
	if err != nil {
		reader.Close()
		return nil, err
	}

	hist, err := history.New(cfg.HistoryPath)
	if err != nil {
		reader.Close()
		store.Close()
		return nil, err
	}

	a, err := analyzer.New(ctx, reader, cfg.DBPath, store, ollama.New(cfg.Ollama), cfg, hist)
	if err != nil {
		reader.Close()
		store.Close()
		hist.Close()
		return nil, err
	}

	return &app{cfg: cfg, reader: reader, store: store, history: hist, analyzer: a}, nil
}

func (a *app) Close() {
	_ = a.reader.Close()
	_ = a.store.Close()
	_ = a.history.Close()
}

// collectSamples reads a few rows from each table for prompt context.
func (a *app) collectSamples(ctx context.Context, tables []string) (map[string]any, error) {
	samples := make(map[string]any, len(tables))
	for _, table := range tables {
		rows, err := a.reader.SampleRows(ctx, table, sampleLimit)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", table, err)
		}
		samples[table] = rows
	}
	return samples, nil
}
