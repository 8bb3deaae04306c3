package mcp

import (
	"fmt"
	"strings"

	"github.com/biodb-ai/biodb/pkg/models"
	"github.com/biodb-ai/biodb/pkg/schema"
)

// formatSchema formats the fingerprint as a text table.
func formatSchema(fp *schema.Fingerprint, counts map[string]int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema hash: %s\n\n", fp.ContentHash())
	fmt.Fprintf(&b, "%-25s %10s %8s %-20s %s\n", "Table", "Rows", "Columns", "Primary Key", "Foreign Keys")
	b.WriteString(strings.Repeat("-", 100) + "\n")
	for _, name := range fp.TableNames() {
		tbl := fp.Tables[name]
		var fks []string
		for _, fk := range fp.ForeignKeys[name] {
			fks = append(fks, fmt.Sprintf("%s -> %s(%s)",
				strings.Join(fk.Columns, ","), fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ",")))
		}
		fmt.Fprintf(&b, "%-25s %10d %8d %-20s %s\n",
			name, counts[name], len(tbl.Columns), strings.Join(tbl.PrimaryKey, ","), strings.Join(fks, "; "))
	}
	return b.String()
}

// formatResult formats one analysis result, fragments included.
func formatResult(res models.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(res.Response)
	fmt.Fprintf(&b, "\n\nConfidence: %.2f  Schema valid: %v\n", res.Confidence, res.SchemaValid)

	writeFragments(&b, "Validated visualizations", res.Visualizations)
	writeFragments(&b, "Validated analysis steps", res.AnalysisSteps)
	writeFragments(&b, "Validated quality metrics", res.QualityMetrics)
	writeFragments(&b, "Validated research questions", res.ResearchQuestions)
	return b.String()
}

func writeFragments(b *strings.Builder, label string, fragments []string) {
	if len(fragments) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", label)
	for _, f := range fragments {
		fmt.Fprintf(b, "  - %s\n", f)
	}
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:       %d\n"+
		"  Size:          %d bytes\n"+
		"  Hits:          %d\n"+
		"  Misses:        %d\n"+
		"  Hit Rate:      %.1f%%\n"+
		"  Evictions:     %d\n"+
		"  Invalidations: %d\n",
		stats.Entries, stats.CurrentSizeBytes, stats.Hits, stats.Misses, hitRate,
		stats.Evictions, stats.Invalidations)
}

// formatHistory formats generation records as a text table.
func formatHistory(recs []models.GenerationRecord) string {
	if len(recs) == 0 {
		return "No history found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-22s %-6s %10s %6s %9s\n",
		"Time", "Kind", "Cache", "Confidence", "Valid", "Latency")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "%-20s %-22s %-6s %10.2f %6v %7dms\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Kind, r.CacheState,
			r.Confidence, r.SchemaValid, r.LatencyMs)
	}
	return b.String()
}

// formatHistorySummary formats per-kind aggregates as a text table.
func formatHistorySummary(rows []models.GenerationSummary) string {
	if len(rows) == 0 {
		return "No history found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-22s %8s %10s %14s %11s\n",
		"Kind", "Requests", "Cache Hits", "Avg Confidence", "Avg Latency")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	for _, s := range rows {
		fmt.Fprintf(&b, "%-22s %8d %10d %14.2f %9dms\n",
			s.Kind, s.Requests, s.CacheHits, s.AvgConfidence, s.AvgLatencyMs)
	}
	return b.String()
}
