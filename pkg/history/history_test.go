package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/biodb-ai/biodb/pkg/models"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history_test.db")
	r, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordAndRecent(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, state := range []string{"miss", "hit"} {
		err := r.Record(ctx, models.GenerationRecord{
			Kind:        models.KindDatabaseAnalysis,
			CacheKey:    "abc123",
			Model:       "mistral",
			CacheState:  state,
			Confidence:  0.9,
			SchemaValid: true,
			LatencyMs:   int64(100 * (i + 1)),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	recs, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].CacheState != "hit" {
		t.Errorf("expected newest record first, got %+v", recs[0])
	}
	if !recs[0].SchemaValid {
		t.Error("schema_valid flag lost in round trip")
	}
}

func TestSummary(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	now := time.Now().UTC()
	states := []string{"miss", "hit", "hit"}
	for _, state := range states {
		if err := r.Record(ctx, models.GenerationRecord{
			Kind:       models.KindVisualization,
			CacheKey:   "k",
			Model:      "mistral",
			CacheState: state,
			Confidence: 0.6,
			LatencyMs:  200,
			CreatedAt:  now,
		}); err != nil {
			t.Fatal(err)
		}
	}

	summaries, err := r.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(summaries))
	}
	s := summaries[0]
	if s.Requests != 3 || s.CacheHits != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.AvgLatencyMs != 200 {
		t.Errorf("expected 200ms average latency, got %d", s.AvgLatencyMs)
	}
}
