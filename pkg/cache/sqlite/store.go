// Package sqlite persists validated analysis results in a SQLite-backed,
// content-addressed store with age expiry, a confidence gate, and
// byte-budgeted LRU eviction. An in-memory LRU in front of the rows absorbs
// repeated reads of hot keys; validity checks apply identically on both
// levels.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	_ "modernc.org/sqlite"

	"github.com/biodb-ai/biodb/pkg/models"
)

// hotLayerSize bounds the in-memory level; the SQLite rows are authoritative.
const hotLayerSize = 256

// Config controls entry validity and the size budget.
type Config struct {
	// MaxSizeBytes is the eviction budget for the sum of stored record sizes.
	MaxSizeBytes int64
	// MaxAge is the maximum age of a usable entry.
	MaxAge time.Duration
	// ConfidenceThreshold is the minimum confidence of a usable entry.
	ConfidenceThreshold float64
}

// Store is the persistent analysis cache. All operations are serialized by a
// store mutex, which is stronger than the per-key exclusion the contract
// requires and keeps the eviction scan consistent with concurrent reads.
// The guarded sections only touch local SQLite state, never a backend.
type Store struct {
	db  *sql.DB
	cfg Config

	mu sync.Mutex
	l1 *expirable.LRU[string, models.CacheEntry]

	hits          atomic.Int64
	misses        atomic.Int64
	evictions     atomic.Int64
	invalidations atomic.Int64

	now func() time.Time
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS analysis_cache (
	key TEXT PRIMARY KEY,
	document BLOB NOT NULL,
	confidence REAL NOT NULL,
	schema_valid INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	last_accessed_at DATETIME NOT NULL,
	size_bytes INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_lru ON analysis_cache(last_accessed_at);
`

// record is the self-describing document persisted per key.
type record struct {
	Payload     models.AnalysisResult `json:"payload"`
	Confidence  float64               `json:"confidence"`
	SchemaValid bool                  `json:"schema_valid"`
	CreatedAt   time.Time             `json:"created_at"`
}

// New opens (or creates) the cache database at path.
func New(path string, cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{
		db:  db,
		cfg: cfg,
		l1:  expirable.NewLRU[string, models.CacheEntry](hotLayerSize, nil, cfg.MaxAge),
		now: time.Now,
	}, nil
}

// Get returns the entry for key if it exists, is younger than MaxAge, and
// meets the confidence threshold. A stale or under-confidence entry is purged
// and reported as absent. A corrupt record is deleted and reported as absent.
func (s *Store) Get(key string) (models.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.l1.Get(key)
	if !ok {
		entry, ok = s.load(key)
	}
	if !ok {
		s.misses.Add(1)
		return models.CacheEntry{}, false
	}

	if !s.usable(entry) {
		s.purge(key)
		s.invalidations.Add(1)
		s.misses.Add(1)
		return models.CacheEntry{}, false
	}

	entry.LastAccessedAt = s.now().UTC()
	if _, err := s.db.Exec(
		`UPDATE analysis_cache SET last_accessed_at = ? WHERE key = ?`,
		entry.LastAccessedAt, key,
	); err != nil {
		// The entry itself is fine; a failed access-time update only skews
		// eviction order.
		s.misses.Add(1)
		return models.CacheEntry{}, false
	}
	s.l1.Add(key, entry)

	s.hits.Add(1)
	return entry, true
}

// Put stores a new entry for key, overwriting any existing one, then enforces
// the size budget. On failure the store keeps its prior state.
func (s *Store) Put(key string, payload models.AnalysisResult, conf float64, schemaValid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now().UTC()
	doc, err := json.Marshal(record{
		Payload:     payload,
		Confidence:  conf,
		SchemaValid: schemaValid,
		CreatedAt:   createdAt,
	})
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	_, err = tx.Exec(
		`INSERT OR REPLACE INTO analysis_cache
		 (key, document, confidence, schema_valid, created_at, last_accessed_at, size_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key, doc, conf, boolInt(schemaValid), createdAt, createdAt, int64(len(doc)),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("cache put: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}

	s.l1.Add(key, models.CacheEntry{
		Key:            key,
		Payload:        payload,
		Confidence:     conf,
		SchemaValid:    schemaValid,
		CreatedAt:      createdAt,
		LastAccessedAt: createdAt,
		SizeBytes:      int64(len(doc)),
	})

	return s.enforceSizeBudget()
}

// EnforceSizeBudget evicts least-recently-accessed entries until the total
// stored size fits the budget.
func (s *Store) EnforceSizeBudget() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enforceSizeBudget()
}

func (s *Store) enforceSizeBudget() error {
	total, err := s.totalSize()
	if err != nil {
		return err
	}
	if total <= s.cfg.MaxSizeBytes {
		return nil
	}

	rows, err := s.db.Query(
		`SELECT key, size_bytes FROM analysis_cache ORDER BY last_accessed_at ASC, key ASC`)
	if err != nil {
		return fmt.Errorf("eviction scan: %w", err)
	}
	type victim struct {
		key  string
		size int64
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.key, &v.size); err != nil {
			rows.Close()
			return fmt.Errorf("scan eviction candidate: %w", err)
		}
		victims = append(victims, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, v := range victims {
		if total <= s.cfg.MaxSizeBytes {
			break
		}
		if _, err := s.db.Exec(`DELETE FROM analysis_cache WHERE key = ?`, v.key); err != nil {
			return fmt.Errorf("evict %s: %w", v.key, err)
		}
		s.l1.Remove(v.key)
		s.evictions.Add(1)
		total -= v.size
	}
	return nil
}

// Clear removes all entries and resets the evictions and invalidations
// counters. Hits and misses are process-lifetime and survive Clear.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM analysis_cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	s.l1.Purge()
	s.evictions.Store(0)
	s.invalidations.Store(0)
	return nil
}

// Stats reports counters and the current stored size.
func (s *Store) Stats() (models.CacheStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries, size int64
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM analysis_cache`,
	).Scan(&entries, &size)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}

	return models.CacheStats{
		Hits:             s.hits.Load(),
		Misses:           s.misses.Load(),
		Evictions:        s.evictions.Load(),
		Invalidations:    s.invalidations.Load(),
		Entries:          entries,
		CurrentSizeBytes: size,
	}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// load reads one record from the rows. A row that cannot be read or decoded
// is deleted and reported as absent.
func (s *Store) load(key string) (models.CacheEntry, bool) {
	var doc []byte
	var lastAccessed time.Time
	var size int64
	err := s.db.QueryRow(
		`SELECT document, last_accessed_at, size_bytes FROM analysis_cache WHERE key = ?`,
		key,
	).Scan(&doc, &lastAccessed, &size)
	if err != nil {
		if err != sql.ErrNoRows {
			s.purge(key)
		}
		return models.CacheEntry{}, false
	}

	var rec record
	if err := json.Unmarshal(doc, &rec); err != nil {
		s.purge(key)
		return models.CacheEntry{}, false
	}

	return models.CacheEntry{
		Key:            key,
		Payload:        rec.Payload,
		Confidence:     rec.Confidence,
		SchemaValid:    rec.SchemaValid,
		CreatedAt:      rec.CreatedAt,
		LastAccessedAt: lastAccessed,
		SizeBytes:      size,
	}, true
}

func (s *Store) usable(e models.CacheEntry) bool {
	if s.now().Sub(e.CreatedAt) > s.cfg.MaxAge {
		return false
	}
	return e.Confidence >= s.cfg.ConfidenceThreshold
}

func (s *Store) purge(key string) {
	_, _ = s.db.Exec(`DELETE FROM analysis_cache WHERE key = ?`, key)
	s.l1.Remove(key)
}

func (s *Store) totalSize() (int64, error) {
	var total int64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(size_bytes), 0) FROM analysis_cache`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("cache size: %w", err)
	}
	return total, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
