// Package confidence scores generated text by how strongly it is grounded in
// real schema elements. The score is a grounding proxy, not a correctness
// proof: it rewards mentions of real tables and columns and penalizes generic
// prose.
package confidence

import (
	"strings"

	"github.com/biodb-ai/biodb/pkg/schema"
)

// Default policy constants. These are compatibility-sensitive: changing them
// changes which cached results pass the confidence gate.
const (
	DefaultNormalizer     = 10.0
	DefaultStrictDiscount = 0.9
)

// Scorer computes grounding scores against a schema fingerprint.
type Scorer struct {
	// Normalizer divides the raw reference count before clamping to [0,1].
	Normalizer float64
	// StrictDiscount multiplies the score in strict mode.
	StrictDiscount float64
}

// New returns a Scorer with the default policy constants.
func New() *Scorer {
	return &Scorer{
		Normalizer:     DefaultNormalizer,
		StrictDiscount: DefaultStrictDiscount,
	}
}

// Score counts case-insensitive occurrences of known table names and known
// table.column pairs in text, normalizes by the policy constant, applies the
// strict discount, and clamps to [0,1].
func (s *Scorer) Score(text string, fp *schema.Fingerprint, strict bool) float64 {
	refs := s.countReferences(text, fp)

	score := float64(refs) / s.Normalizer
	if score > 1.0 {
		score = 1.0
	}
	if strict {
		score *= s.StrictDiscount
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (s *Scorer) countReferences(text string, fp *schema.Fingerprint) int {
	lower := strings.ToLower(text)
	count := 0
	for _, table := range fp.TableNames() {
		lt := strings.ToLower(table)
		count += strings.Count(lower, lt)
		for col := range fp.Tables[table].Columns {
			count += strings.Count(lower, lt+"."+strings.ToLower(col))
		}
	}
	return count
}

// ValidateFragment reports whether every table a fragment references exists
// in the fingerprint. A token references a table when it is the head of a
// dotted pair ("genes.id") or directly follows "table", "tables", "from", or
// "join". Fragments referencing no tables at all are valid.
func ValidateFragment(fragment string, fp *schema.Fingerprint) bool {
	for _, table := range referencedTables(fragment) {
		if !fp.ContainsTable(table) {
			return false
		}
	}
	return true
}

func referencedTables(fragment string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(fragment), func(r rune) bool {
		return !(r == '.' || r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	var refs []string
	expectTable := false
	for _, tok := range tokens {
		if head, tail, ok := strings.Cut(tok, "."); ok {
			// A trailing dot ("genes.") is sentence punctuation and a
			// numeric head ("1.") is list numbering, not a table reference.
			if head != "" && tail != "" && !numeric(head) {
				refs = append(refs, head)
			}
			expectTable = false
			continue
		}
		if expectTable {
			switch tok {
			case "the", "a", "an":
				// Articles sit between the trigger word and the name.
			default:
				refs = append(refs, tok)
				expectTable = false
			}
		}
		switch tok {
		case "table", "tables", "from", "join":
			expectTable = true
		}
	}
	return refs
}

func numeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
