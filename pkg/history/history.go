// Package history records one row per orchestrated analysis request so cache
// effectiveness and generation quality can be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/biodb-ai/biodb/pkg/models"
)

// Recorder stores and queries generation records in SQLite.
type Recorder struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS generation_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	cache_key TEXT NOT NULL,
	model TEXT NOT NULL,
	cache_state TEXT NOT NULL,
	confidence REAL NOT NULL,
	schema_valid INTEGER NOT NULL,
	latency_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_history_kind_time ON generation_history(kind, created_at);
`

// New creates a Recorder and runs auto-migration.
func New(dbPath string) (*Recorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Record stores one generation record.
func (r *Recorder) Record(ctx context.Context, rec models.GenerationRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO generation_history (kind, cache_key, model, cache_state, confidence, schema_valid, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Kind, rec.CacheKey, rec.Model, rec.CacheState, rec.Confidence,
		boolInt(rec.SchemaValid), rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, cache_key, model, cache_state, confidence, schema_valid, latency_ms, created_at
		 FROM generation_history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var recs []models.GenerationRecord
	for rows.Next() {
		var rec models.GenerationRecord
		var valid int
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.CacheKey, &rec.Model, &rec.CacheState,
			&rec.Confidence, &valid, &rec.LatencyMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.SchemaValid = valid != 0
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Summary returns aggregated history grouped by analysis kind.
func (r *Recorder) Summary(ctx context.Context) ([]models.GenerationSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, COUNT(*),
		        SUM(CASE WHEN cache_state = 'hit' THEN 1 ELSE 0 END),
		        AVG(confidence), CAST(AVG(latency_ms) AS INTEGER)
		 FROM generation_history GROUP BY kind ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("history summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.GenerationSummary
	for rows.Next() {
		var s models.GenerationSummary
		if err := rows.Scan(&s.Kind, &s.Requests, &s.CacheHits, &s.AvgConfidence, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan history summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Close releases the database connection.
func (r *Recorder) Close() error {
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
