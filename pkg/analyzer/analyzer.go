// Package analyzer orchestrates schema-grounded analysis requests: it derives
// cache keys from request content, consults the analysis cache, calls the
// generation backend on a miss, and gates every result through the
// confidence scorer before it is cached or returned.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/biodb-ai/biodb/pkg/confidence"
	"github.com/biodb-ai/biodb/pkg/config"
	"github.com/biodb-ai/biodb/pkg/db"
	"github.com/biodb-ai/biodb/pkg/models"
	"github.com/biodb-ai/biodb/pkg/prompts"
	"github.com/biodb-ai/biodb/pkg/schema"
)

// fastTrustThreshold is the fixed confidence above which a cached result is
// returned without re-validation. It is distinct from the store's own
// confidence threshold, which governs whether an entry is usable at all.
const fastTrustThreshold = 0.95

// Cache is the store contract the orchestrator consumes.
type Cache interface {
	Get(key string) (models.CacheEntry, bool)
	Put(key string, payload models.AnalysisResult, confidence float64, schemaValid bool) error
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// HistoryRecorder logs orchestrated requests. May be nil.
type HistoryRecorder interface {
	Record(ctx context.Context, rec models.GenerationRecord) error
}

// Analyzer owns one schema fingerprint and one cache for its lifetime.
// It is safe for concurrent use; requests resolving to the same cache key
// share a single in-flight generation.
type Analyzer struct {
	dbPath  string
	reader  db.Reader
	fp      *schema.Fingerprint
	scorer  *confidence.Scorer
	cache   Cache
	backend Generator
	history HistoryRecorder

	strict   bool
	sampling config.SamplingConfig

	group singleflight.Group
	now   func() time.Time
}

// New builds the fingerprint through the reader and wires the orchestrator.
// A reader failure here is fatal: no analysis can be grounded without a
// fingerprint. Schema drift after construction is not tracked; open a new
// Analyzer for a changed database.
func New(ctx context.Context, reader db.Reader, dbPath string, cache Cache, backend Generator, cfg *config.Config, hist HistoryRecorder) (*Analyzer, error) {
	fp, err := schema.Build(ctx, reader)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		dbPath:   dbPath,
		reader:   reader,
		fp:       fp,
		scorer:   confidence.New(),
		cache:    cache,
		backend:  backend,
		history:  hist,
		strict:   cfg.Validation.StrictMode,
		sampling: cfg.Sampling,
		now:      time.Now,
	}, nil
}

// Fingerprint returns the schema fingerprint built at construction.
func (a *Analyzer) Fingerprint() *schema.Fingerprint {
	return a.fp
}

// DeriveKey computes the deterministic cache key for a request. Keying is
// schema-level, not data-level: identical structure and request content
// collide to the same key across different database files.
func DeriveKey(kind models.AnalysisKind, schemaHash, payload string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(schemaHash))
	h.Write([]byte{0})
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzeDatabase produces a narrative analysis of the whole database.
func (a *Analyzer) AnalyzeDatabase(ctx context.Context, tables []string, sample map[string]any) (models.AnalysisResult, error) {
	req := models.AnalysisRequest{Kind: models.KindDatabaseAnalysis, Tables: tables, SampleData: sample}
	return a.run(ctx, req, prompts.DatabaseAnalysis(a.dbPath, tables, sampleJSON(sample)))
}

// AnalyzeRelationships produces a narrative analysis of table relationships.
func (a *Analyzer) AnalyzeRelationships(ctx context.Context, tables []string, sample map[string]any) (models.AnalysisResult, error) {
	req := models.AnalysisRequest{Kind: models.KindRelationshipAnalysis, Tables: tables, SampleData: sample}
	return a.run(ctx, req, prompts.RelationshipAnalysis(tables, sampleJSON(sample)))
}

// SuggestVisualizations produces schema-validated visualization suggestions
// for one table.
func (a *Analyzer) SuggestVisualizations(ctx context.Context, table string, sample map[string]any) (models.AnalysisResult, error) {
	req := models.AnalysisRequest{Kind: models.KindVisualization, Table: table, SampleData: sample}
	return a.run(ctx, req, prompts.Visualization(table, sampleJSON(sample)))
}

// GenerateAnalysisPlan produces a schema-validated analysis plan for a
// research question.
func (a *Analyzer) GenerateAnalysisPlan(ctx context.Context, question string, tables []string, sample map[string]any) (models.AnalysisResult, error) {
	req := models.AnalysisRequest{Kind: models.KindAnalysisPlan, ResearchQuestion: question, Tables: tables, SampleData: sample}
	return a.run(ctx, req, prompts.AnalysisPlan(question, tables, sampleJSON(sample)))
}

// AnalyzeDataQuality produces a schema-validated data quality report for one
// table, sized by the statistical sample calculation.
func (a *Analyzer) AnalyzeDataQuality(ctx context.Context, table string, sample map[string]any) (models.AnalysisResult, error) {
	tableSize, err := a.reader.RowCount(ctx, table)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("data quality of %s: %w", table, err)
	}
	sampleSize := a.SampleSize(tableSize)

	req := models.AnalysisRequest{Kind: models.KindDataQuality, Table: table, SampleData: sample}
	return a.run(ctx, req, prompts.DataQuality(table, tableSize, sampleSize, sampleJSON(sample)))
}

// GenerateResearchQuestions produces schema-validated research questions.
func (a *Analyzer) GenerateResearchQuestions(ctx context.Context, tables []string, sample map[string]any) (models.AnalysisResult, error) {
	req := models.AnalysisRequest{Kind: models.KindResearchQuestion, Tables: tables, SampleData: sample}
	return a.run(ctx, req, prompts.ResearchQuestions(tables, sampleJSON(sample)))
}

// run executes the request state machine: KeyDerive, CacheProbe, BackendCall,
// ResultAssemble, CacheWrite. Concurrent callers with the same key share one
// in-flight execution; followers wait for the leader's result.
func (a *Analyzer) run(ctx context.Context, req models.AnalysisRequest, prompt string) (models.AnalysisResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("normalize request: %w", err)
	}
	key := DeriveKey(req.Kind, a.fp.ContentHash(), string(payload))

	start := a.now()
	v, err, _ := a.group.Do(key, func() (any, error) {
		if entry, ok := a.cache.Get(key); ok && entry.Confidence >= fastTrustThreshold {
			a.record(ctx, req.Kind, key, "hit", entry.Confidence, entry.SchemaValid, start)
			return entry.Payload, nil
		}

		text, err := a.backend.Generate(ctx, prompt)
		if err != nil {
			return nil, err
		}

		result := a.assemble(req.Kind, text)
		if err := a.cache.Put(key, result, result.Confidence, result.SchemaValid); err != nil {
			// Cache durability is best-effort; the fresh result still stands.
			log.Printf("cache write failed for %s: %v", req.Kind, err)
		}
		a.record(ctx, req.Kind, key, "miss", result.Confidence, result.SchemaValid, start)
		return result, nil
	})
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return v.(models.AnalysisResult), nil
}

// assemble scores the generated text and attaches the validated fragments
// for the kinds that produce structured lists.
func (a *Analyzer) assemble(kind models.AnalysisKind, text string) models.AnalysisResult {
	result := models.AnalysisResult{
		Kind:        kind,
		Response:    text,
		Confidence:  a.scorer.Score(text, a.fp, a.strict),
		SchemaValid: confidence.ValidateFragment(text, a.fp),
		Timestamp:   a.now().UTC(),
	}

	switch kind {
	case models.KindVisualization:
		result.Visualizations = a.validFragments(extractVisualizations(text))
	case models.KindAnalysisPlan:
		result.AnalysisSteps = a.validFragments(extractAnalysisSteps(text))
	case models.KindDataQuality:
		result.QualityMetrics = a.validFragments(extractQualityMetrics(text))
	case models.KindResearchQuestion:
		result.ResearchQuestions = a.validFragments(extractQuestions(text))
	}
	return result
}

func (a *Analyzer) validFragments(fragments []string) []string {
	var valid []string
	for _, f := range fragments {
		if confidence.ValidateFragment(f, a.fp) {
			valid = append(valid, f)
		}
	}
	return valid
}

func (a *Analyzer) record(ctx context.Context, kind models.AnalysisKind, key, state string, conf float64, schemaValid bool, start time.Time) {
	if a.history == nil {
		return
	}
	rec := models.GenerationRecord{
		Kind:        kind,
		CacheKey:    key,
		Model:       a.backend.Model(),
		CacheState:  state,
		Confidence:  conf,
		SchemaValid: schemaValid,
		LatencyMs:   a.now().Sub(start).Milliseconds(),
		CreatedAt:   a.now().UTC(),
	}
	if err := a.history.Record(ctx, rec); err != nil {
		log.Printf("history record failed: %v", err)
	}
}

func sampleJSON(sample map[string]any) string {
	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
