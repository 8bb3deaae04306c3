package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/biodb-ai/biodb/pkg/config"
	"github.com/biodb-ai/biodb/pkg/db"
	"github.com/biodb-ai/biodb/pkg/models"
)

type fakeBackend struct {
	calls    atomic.Int64
	response string
	err      error
	block    chan struct{}
}

func (b *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	b.calls.Add(1)
	if b.block != nil {
		<-b.block
	}
	return b.response, b.err
}

func (b *fakeBackend) Model() string { return "mistral" }

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]models.CacheEntry
	putErr  error
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.CacheEntry)}
}

func (c *fakeCache) Get(key string) (models.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *fakeCache) Put(key string, payload models.AnalysisResult, confidence float64, schemaValid bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.puts++
	c.entries[key] = models.CacheEntry{Key: key, Payload: payload, Confidence: confidence, SchemaValid: schemaValid}
	return nil
}

type fakeReader struct {
	rowCount    int64
	rowCountErr error
}

func (r *fakeReader) ListTables(ctx context.Context) ([]string, error) {
	return []string{"genes", "samples"}, nil
}

func (r *fakeReader) TableColumns(ctx context.Context, table string) ([]db.Column, error) {
	switch table {
	case "genes":
		return []db.Column{{Name: "id", Type: "INTEGER"}, {Name: "symbol", Type: "TEXT"}}, nil
	default:
		return []db.Column{{Name: "id", Type: "INTEGER"}, {Name: "gene_id", Type: "INTEGER"}}, nil
	}
}

func (r *fakeReader) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	return []string{"id"}, nil
}

func (r *fakeReader) ForeignKeys(ctx context.Context, table string) ([]db.ForeignKey, error) {
	return nil, nil
}

func (r *fakeReader) RowCount(ctx context.Context, table string) (int64, error) {
	return r.rowCount, r.rowCountErr
}

func (r *fakeReader) SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	return nil, nil
}

func (r *fakeReader) Close() error { return nil }

func newTestAnalyzer(t *testing.T, cache Cache, backend Generator) *Analyzer {
	t.Helper()
	cfg := config.Default()
	a, err := New(context.Background(), &fakeReader{rowCount: 1000}, "test.db", cache, backend, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestAnalyzeDatabaseMissGeneratesAndCaches(t *testing.T) {
	cache := newFakeCache()
	// 12 table references: strict score is min(1, 12/10) * 0.9 = 0.9.
	backend := &fakeBackend{response: strings.Repeat("genes ", 7) + strings.Repeat("samples ", 5)}
	a := newTestAnalyzer(t, cache, backend)

	res, err := a.AnalyzeDatabase(context.Background(), []string{"genes", "samples"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if backend.calls.Load() != 1 {
		t.Errorf("expected 1 backend call, got %d", backend.calls.Load())
	}
	if res.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", res.Confidence)
	}
	if !res.SchemaValid {
		t.Error("expected schema-valid result")
	}
	if cache.puts != 1 {
		t.Errorf("expected 1 cache write, got %d", cache.puts)
	}
}

func TestCachedResultSkipsBackend(t *testing.T) {
	cache := newFakeCache()
	backend := &fakeBackend{response: "genes genes genes genes genes genes genes genes genes genes"}
	a := newTestAnalyzer(t, cache, backend)
	ctx := context.Background()

	if _, err := a.AnalyzeRelationships(ctx, []string{"genes"}, nil); err != nil {
		t.Fatal(err)
	}
	if backend.calls.Load() != 1 {
		t.Fatalf("expected 1 backend call after first request, got %d", backend.calls.Load())
	}

	// Non-strict default would score 1.0 here, but Default() is strict, so
	// the cached confidence is 0.9 and the second request regenerates.
	a.strict = false
	cache.entries = make(map[string]models.CacheEntry)
	if _, err := a.AnalyzeRelationships(ctx, []string{"genes"}, nil); err != nil {
		t.Fatal(err)
	}
	res, err := a.AnalyzeRelationships(ctx, []string{"genes"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if backend.calls.Load() != 2 {
		t.Errorf("expected cached third request, got %d backend calls", backend.calls.Load())
	}
	if res.Confidence != 1.0 {
		t.Errorf("expected cached confidence 1.0, got %v", res.Confidence)
	}
}

func TestLowConfidenceHitRegenerates(t *testing.T) {
	cache := newFakeCache()
	backend := &fakeBackend{response: "some prose about genes"}
	a := newTestAnalyzer(t, cache, backend)
	ctx := context.Background()

	if _, err := a.AnalyzeDatabase(ctx, []string{"genes"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AnalyzeDatabase(ctx, []string{"genes"}, nil); err != nil {
		t.Fatal(err)
	}
	if backend.calls.Load() != 2 {
		t.Errorf("low-confidence hit should regenerate, got %d backend calls", backend.calls.Load())
	}
}

func TestVisualizationFragmentFiltering(t *testing.T) {
	cache := newFakeCache()
	backend := &fakeBackend{response: strings.Join([]string{
		"1. A scatter plot of genes.symbol counts",
		"2. A bar chart from the proteins table",
		"3. Some unrelated narrative line",
		"4. A heatmap graph of samples.gene_id",
	}, "\n")}
	a := newTestAnalyzer(t, cache, backend)

	res, err := a.SuggestVisualizations(context.Background(), "genes", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Visualizations) != 2 {
		t.Fatalf("expected 2 valid visualizations, got %v", res.Visualizations)
	}
	for _, v := range res.Visualizations {
		if strings.Contains(v, "proteins") {
			t.Errorf("fragment referencing unknown table survived: %q", v)
		}
	}
}

func TestResearchQuestionExtraction(t *testing.T) {
	cache := newFakeCache()
	backend := &fakeBackend{response: strings.Join([]string{
		"Here are some questions:",
		"- How do genes.symbol values cluster across samples?",
		"- What drives variance in ghosts.value over time?",
		"not a bullet line",
	}, "\n")}
	a := newTestAnalyzer(t, cache, backend)

	res, err := a.GenerateResearchQuestions(context.Background(), []string{"genes", "samples"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"How do genes.symbol values cluster across samples?"}
	if len(res.ResearchQuestions) != 1 || res.ResearchQuestions[0] != want[0] {
		t.Errorf("expected %v, got %v", want, res.ResearchQuestions)
	}
}

func TestBackendErrorSurfacesWithoutRetry(t *testing.T) {
	cache := newFakeCache()
	wantErr := errors.New("backend down")
	backend := &fakeBackend{err: wantErr}
	a := newTestAnalyzer(t, cache, backend)

	_, err := a.AnalyzeDatabase(context.Background(), []string{"genes"}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if backend.calls.Load() != 1 {
		t.Errorf("expected exactly 1 backend call, got %d", backend.calls.Load())
	}
	if cache.puts != 0 {
		t.Errorf("failed generation must not be cached, got %d writes", cache.puts)
	}
}

func TestCacheWriteFailureStillReturnsResult(t *testing.T) {
	cache := newFakeCache()
	cache.putErr = errors.New("disk full")
	backend := &fakeBackend{response: "genes genes genes"}
	a := newTestAnalyzer(t, cache, backend)

	res, err := a.AnalyzeDatabase(context.Background(), []string{"genes"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Response == "" {
		t.Error("expected fresh result despite cache write failure")
	}
}

func TestConcurrentSameKeySharesOneGeneration(t *testing.T) {
	cache := newFakeCache()
	backend := &fakeBackend{response: "genes genes", block: make(chan struct{})}
	a := newTestAnalyzer(t, cache, backend)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]models.AnalysisResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := a.AnalyzeDatabase(ctx, []string{"genes"}, nil)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = res
		}(i)
	}

	// Give every goroutine a chance to reach the flight group before the
	// leader finishes.
	time.Sleep(50 * time.Millisecond)
	close(backend.block)
	wg.Wait()

	if got := backend.calls.Load(); got != 1 {
		t.Errorf("expected a single shared generation, got %d", got)
	}
	for _, res := range results {
		if res.Response != results[0].Response {
			t.Errorf("followers must see the leader's result: %+v", res)
		}
	}
}

func TestDeriveKeyDeterminism(t *testing.T) {
	k1 := DeriveKey(models.KindDatabaseAnalysis, "hash", "payload")
	k2 := DeriveKey(models.KindDatabaseAnalysis, "hash", "payload")
	if k1 != k2 {
		t.Error("same inputs must derive the same key")
	}
	if DeriveKey(models.KindVisualization, "hash", "payload") == k1 {
		t.Error("kind must contribute to the key")
	}
	if DeriveKey(models.KindDatabaseAnalysis, "other", "payload") == k1 {
		t.Error("schema hash must contribute to the key")
	}
}

func TestAnalyzeDataQualityUsesRowCount(t *testing.T) {
	cache := newFakeCache()
	backend := &fakeBackend{response: "quality of genes looks fine"}
	a := newTestAnalyzer(t, cache, backend)

	if _, err := a.AnalyzeDataQuality(context.Background(), "genes", nil); err != nil {
		t.Fatal(err)
	}

	a.reader = &fakeReader{rowCountErr: errors.New("no such table")}
	if _, err := a.AnalyzeDataQuality(context.Background(), "ghosts", nil); err == nil {
		t.Error("expected error when row count fails")
	}
}

func TestSampleSize(t *testing.T) {
	a := newTestAnalyzer(t, newFakeCache(), &fakeBackend{response: "x"})

	// With the default sampling policy the 10% cap dominates mid-size tables,
	// the minimum floor dominates small ones, and the absolute maximum caps
	// the rest. A floor larger than the table clamps to the table size.
	cases := []struct {
		tableSize int64
		want      int64
	}{
		{0, 0},
		{50, 50},
		{500, 100},
		{5000, 500},
		{1e6, 10000},
		{1e9, 10000},
	}
	for _, tc := range cases {
		if got := a.SampleSize(tc.tableSize); got != tc.want {
			t.Errorf("SampleSize(%d) = %d, want %d", tc.tableSize, got, tc.want)
		}
	}
}
