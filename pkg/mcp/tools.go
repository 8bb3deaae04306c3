package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/biodb-ai/biodb/pkg/models"
)

// sampleLimit is how many rows per table the analyze tool feeds into prompts.
const sampleLimit = 5

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"biodb_schema":      handleSchema,
	"biodb_analyze":     handleAnalyze,
	"biodb_cache_stats": handleCacheStats,
	"biodb_history":     handleHistory,
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "biodb_schema",
		Description: "Show the database structure: tables, columns, keys, row counts, and the schema content hash.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "biodb_analyze",
		Description: "Run a schema-grounded analysis. Results are confidence-scored against the real schema and served from the cache when a trusted entry exists.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"kind"},
			"properties": map[string]any{
				"kind": map[string]any{
					"type":        "string",
					"enum":        []string{"database_analysis", "relationship_analysis", "visualization", "analysis_plan", "data_quality", "research_question"},
					"description": "The analysis to run",
				},
				"table": map[string]any{
					"type":        "string",
					"description": "Target table (required for visualization and data_quality)",
				},
				"question": map[string]any{
					"type":        "string",
					"description": "Research question (required for analysis_plan)",
				},
			},
		},
	},
	{
		Name:        "biodb_cache_stats",
		Description: "Show analysis cache statistics (entries, size, hits, misses, evictions, invalidations).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "biodb_history",
		Description: "Show recent generation history, or a per-kind summary.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Number of records to show (default 50)",
				},
				"summary": map[string]any{
					"type":        "boolean",
					"description": "Aggregate by analysis kind instead of listing records",
				},
			},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

func handleSchema(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	fp := s.analysis.Fingerprint()
	counts := make(map[string]int64, len(fp.Tables))
	for _, table := range fp.TableNames() {
		n, err := s.reader.RowCount(ctx, table)
		if err != nil {
			return errorResult("Error counting rows: " + err.Error())
		}
		counts[table] = n
	}
	return textResult(formatSchema(fp, counts))
}

type analyzeArgs struct {
	Kind     string `json:"kind"`
	Table    string `json:"table"`
	Question string `json:"question"`
}

func handleAnalyze(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args analyzeArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	res, err := s.runAnalysis(ctx, args)
	if err != nil {
		return errorResult("Analysis failed: " + err.Error())
	}
	return textResult(formatResult(res))
}

func (s *Server) runAnalysis(ctx context.Context, args analyzeArgs) (models.AnalysisResult, error) {
	tables := s.analysis.Fingerprint().TableNames()

	switch models.AnalysisKind(args.Kind) {
	case models.KindDatabaseAnalysis:
		samples, err := s.collectSamples(ctx, tables)
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return s.analysis.AnalyzeDatabase(ctx, tables, samples)
	case models.KindRelationshipAnalysis:
		samples, err := s.collectSamples(ctx, tables)
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return s.analysis.AnalyzeRelationships(ctx, tables, samples)
	case models.KindVisualization:
		if args.Table == "" {
			return models.AnalysisResult{}, fmt.Errorf("visualization requires a table")
		}
		samples, err := s.collectSamples(ctx, []string{args.Table})
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return s.analysis.SuggestVisualizations(ctx, args.Table, samples)
	case models.KindAnalysisPlan:
		if args.Question == "" {
			return models.AnalysisResult{}, fmt.Errorf("analysis_plan requires a question")
		}
		samples, err := s.collectSamples(ctx, tables)
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return s.analysis.GenerateAnalysisPlan(ctx, args.Question, tables, samples)
	case models.KindDataQuality:
		if args.Table == "" {
			return models.AnalysisResult{}, fmt.Errorf("data_quality requires a table")
		}
		samples, err := s.collectSamples(ctx, []string{args.Table})
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return s.analysis.AnalyzeDataQuality(ctx, args.Table, samples)
	case models.KindResearchQuestion:
		samples, err := s.collectSamples(ctx, tables)
		if err != nil {
			return models.AnalysisResult{}, err
		}
		return s.analysis.GenerateResearchQuestions(ctx, tables, samples)
	default:
		return models.AnalysisResult{}, fmt.Errorf("unknown analysis kind: %q", args.Kind)
	}
}

func (s *Server) collectSamples(ctx context.Context, tables []string) (map[string]any, error) {
	samples := make(map[string]any, len(tables))
	for _, table := range tables {
		rows, err := s.reader.SampleRows(ctx, table, sampleLimit)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", table, err)
		}
		samples[table] = rows
	}
	return samples, nil
}

func handleCacheStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := s.cache.Stats()
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}

type historyArgs struct {
	Limit   int  `json:"limit"`
	Summary bool `json:"summary"`
}

func handleHistory(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.history == nil {
		return textResult("History is not configured.")
	}
	var args historyArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	if args.Summary {
		rows, err := s.history.Summary(ctx)
		if err != nil {
			return errorResult("Error fetching history summary: " + err.Error())
		}
		return textResult(formatHistorySummary(rows))
	}

	recs, err := s.history.Recent(ctx, args.Limit)
	if err != nil {
		return errorResult("Error fetching history: " + err.Error())
	}
	return textResult(formatHistory(recs))
}
