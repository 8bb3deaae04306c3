package models

import "time"

// GenerationRecord logs one orchestrated analysis request: which kind ran,
// whether the cache answered it, and how the generation scored.
type GenerationRecord struct {
	ID          int64        `json:"id"`
	Kind        AnalysisKind `json:"kind"`
	CacheKey    string       `json:"cache_key"`
	Model       string       `json:"model"`
	CacheState  string       `json:"cache_state"` // "hit" or "miss"
	Confidence  float64      `json:"confidence"`
	SchemaValid bool         `json:"schema_valid"`
	LatencyMs   int64        `json:"latency_ms"`
	CreatedAt   time.Time    `json:"created_at"`
}

// GenerationSummary aggregates history rows per analysis kind.
type GenerationSummary struct {
	Kind          AnalysisKind `json:"kind"`
	Requests      int64        `json:"requests"`
	CacheHits     int64        `json:"cache_hits"`
	AvgConfidence float64      `json:"avg_confidence"`
	AvgLatencyMs  int64        `json:"avg_latency_ms"`
}
