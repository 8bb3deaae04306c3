package analyzer

import "strings"

// Fragment extraction is keyword-driven: a line belongs to a structured list
// when it mentions one of the kind's marker words. Extracted fragments still
// have to pass schema validation before they reach the result.

func extractVisualizations(text string) []string {
	return linesContaining(text, "plot", "chart", "graph")
}

func extractAnalysisSteps(text string) []string {
	return linesContaining(text, "step", "analysis", "procedure")
}

func extractQualityMetrics(text string) []string {
	return linesContaining(text, "metric", "quality", "issue")
}

// extractQuestions collects markdown bullet lines, bullet stripped.
func extractQuestions(text string) []string {
	var questions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			questions = append(questions, strings.TrimSpace(strings.TrimPrefix(line, "- ")))
		}
	}
	return questions
}

func linesContaining(text string, keywords ...string) []string {
	var matched []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, line)
				break
			}
		}
	}
	return matched
}
