package models

import "time"

// AnalysisKind identifies one of the supported analysis request types.
type AnalysisKind string

const (
	KindDatabaseAnalysis     AnalysisKind = "database_analysis"
	KindRelationshipAnalysis AnalysisKind = "relationship_analysis"
	KindVisualization        AnalysisKind = "visualization"
	KindAnalysisPlan         AnalysisKind = "analysis_plan"
	KindDataQuality          AnalysisKind = "data_quality"
	KindResearchQuestion     AnalysisKind = "research_question"
)

// AnalysisRequest carries the caller-supplied fields of one analysis request.
// Its canonical JSON form is the normalized payload used for cache keying.
type AnalysisRequest struct {
	Kind             AnalysisKind   `json:"kind"`
	Tables           []string       `json:"tables,omitempty"`
	Table            string         `json:"table,omitempty"`
	ResearchQuestion string         `json:"research_question,omitempty"`
	SampleData       map[string]any `json:"sample_data,omitempty"`
}

// AnalysisResult is the payload returned to callers and persisted in the cache.
// Fragment lists are populated only for the kinds that produce them, and only
// with fragments that passed schema validation.
type AnalysisResult struct {
	Kind              AnalysisKind `json:"kind"`
	Response          string       `json:"response"`
	Confidence        float64      `json:"confidence"`
	SchemaValid       bool         `json:"schema_valid"`
	Timestamp         time.Time    `json:"timestamp"`
	Visualizations    []string     `json:"visualizations,omitempty"`
	AnalysisSteps     []string     `json:"analysis_steps,omitempty"`
	QualityMetrics    []string     `json:"quality_metrics,omitempty"`
	ResearchQuestions []string     `json:"research_questions,omitempty"`
}
