package models

import "time"

// CacheEntry is one stored analysis result together with the metadata the
// store uses to decide validity and eviction order. Callers receive copies;
// store-held state is never handed out for mutation.
type CacheEntry struct {
	Key            string         `json:"key"`
	Payload        AnalysisResult `json:"payload"`
	Confidence     float64        `json:"confidence"`
	SchemaValid    bool           `json:"schema_valid"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	SizeBytes      int64          `json:"size_bytes"`
}

// CacheStats reports process-lifetime cache counters and the current size.
// Hits and misses survive Clear; evictions and invalidations do not.
type CacheStats struct {
	Hits             int64 `json:"hits"`
	Misses           int64 `json:"misses"`
	Evictions        int64 `json:"evictions"`
	Invalidations    int64 `json:"invalidations"`
	Entries          int64 `json:"entries"`
	CurrentSizeBytes int64 `json:"current_size_bytes"`
}
