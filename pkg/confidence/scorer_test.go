package confidence

import (
	"math"
	"strings"
	"testing"

	"github.com/biodb-ai/biodb/pkg/schema"
)

func genesFingerprint() *schema.Fingerprint {
	return schema.FromStructure(map[string]schema.Table{
		"genes": {
			Columns:    map[string]string{"id": "INTEGER", "name": "TEXT"},
			PrimaryKey: []string{"id"},
		},
		"samples": {
			Columns:    map[string]string{"id": "INTEGER", "gene_id": "INTEGER"},
			PrimaryKey: []string{"id"},
		},
	}, nil)
}

func TestScoreStrictScenario(t *testing.T) {
	fp := genesFingerprint()

	// Twelve schema references in strict mode score min(1.0, 12/10)*0.9 = 0.9.
	text := strings.Repeat("genes ", 7) + strings.Repeat("samples ", 5)
	got := New().Score(text, fp, true)
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("expected 0.9, got %v", got)
	}
}

func TestScoreNonStrict(t *testing.T) {
	fp := genesFingerprint()

	text := strings.Repeat("genes ", 12)
	got := New().Score(text, fp, false)
	if got != 1.0 {
		t.Errorf("expected clamp to 1.0, got %v", got)
	}
}

func TestScoreUngroundedText(t *testing.T) {
	fp := genesFingerprint()

	got := New().Score("nothing relevant here at all", fp, true)
	if got != 0 {
		t.Errorf("expected 0 for ungrounded text, got %v", got)
	}
}

func TestScoreCountsDottedPairs(t *testing.T) {
	fp := genesFingerprint()
	s := New()

	// "genes.id" counts both the table mention and the table.column pair.
	bare := s.Score("genes", fp, false)
	dotted := s.Score("genes.id", fp, false)
	if dotted <= bare {
		t.Errorf("expected table.column pair to add a reference: bare=%v dotted=%v", bare, dotted)
	}
}

func TestScoreCaseInsensitive(t *testing.T) {
	fp := genesFingerprint()
	s := New()

	if s.Score("GENES Samples", fp, false) != s.Score("genes samples", fp, false) {
		t.Error("expected case-insensitive counting")
	}
}

func TestValidateFragment(t *testing.T) {
	fp := genesFingerprint()

	cases := []struct {
		fragment string
		want     bool
	}{
		{"Scatter plot of genes.id against samples.gene_id", true},
		{"Heatmap over the genes table", true},
		{"Bar chart from proteins grouped by family", false},
		{"Line plot of ghosts.value over time", false},
		{"A generic suggestion with no schema references", true},
		{"JOIN Samples on gene identity", true},
		{"1. Scatter plot of genes.id per sample", true},
		{"See the samples table.", true},
		{"Counts drawn from the samples table", true},
		{"Counts drawn from the proteins table", false},
	}
	for _, c := range cases {
		if got := ValidateFragment(c.fragment, fp); got != c.want {
			t.Errorf("ValidateFragment(%q) = %v, want %v", c.fragment, got, c.want)
		}
	}
}
