// Package prompts builds the kind-specific prompts sent to the generation
// backend.
package prompts

import (
	"fmt"
	"strings"
)

// System is prepended to every prompt.
const System = `You are a bioinformatics database analyst. Your role is to analyze scientific databases and provide insights.
Focus on biological and genomic data patterns, relationships, and potential research questions.
Provide clear, structured responses with scientific context.`

const databaseAnalysisTmpl = `Please analyze this database:

Database: %s

Tables:
%s

Sample Data:
%s

Please provide:
1. A summary of the database structure and its potential biological significance
2. Potential relationships between tables and their biological implications
3. Suggested analyses that could be performed based on the data structure
4. Any patterns or insights you notice in the data that could be biologically relevant
5. Potential research questions that could be explored based on this data

Format your response in markdown with clear sections.`

const relationshipAnalysisTmpl = `Please analyze the relationships between these tables:

Tables:
%s

Sample Data:
%s

Please provide:
1. Potential relationships between tables
2. Biological significance of these relationships
3. Suggested joins and queries to explore these relationships
4. Potential research questions based on these relationships

Format your response in markdown with clear sections.`

const visualizationTmpl = `You are a bioinformatics visualization expert. Please suggest visualizations for this data:

Table: %s

Sample Data:
%s

Please provide:
1. Recommended visualization types (e.g., scatter plot, heatmap, etc.)
2. Key variables to plot
3. Biological insights that could be gained from these visualizations
4. Any data preprocessing needed before visualization

Format your response in markdown with clear sections.`

const analysisPlanTmpl = `You are a bioinformatics researcher. Please create an analysis plan for this research question:

Research Question: %s

Available Data:
Tables: %s

Sample Data:
%s

Please provide:
1. Required data preprocessing steps
2. Statistical methods to use
3. Expected results and interpretations
4. Potential challenges and solutions
5. Next steps for the analysis

Format your response in markdown with clear sections.`

const dataQualityTmpl = `Please analyze the data quality:

Table: %s
Table size: %d rows
Sample size: %d rows

Sample Data:
%s

Please provide:
1. Data completeness analysis
2. Potential data quality issues
3. Recommendations for data cleaning
4. Impact of data quality on analysis

Format your response in markdown with clear sections.`

const researchQuestionTmpl = `Based on this database structure and sample data:

Tables:
%s

Sample Data:
%s

Please generate potential research questions that could be explored with this data.
Focus on questions that have biological significance and research value.

Format your response as a markdown list, one question per "- " bullet.`

// DatabaseAnalysis builds the whole-database analysis prompt.
func DatabaseAnalysis(dbPath string, tables []string, sampleJSON string) string {
	return withSystem(fmt.Sprintf(databaseAnalysisTmpl, dbPath, strings.Join(tables, ", "), sampleJSON))
}

// RelationshipAnalysis builds the table-relationship prompt.
func RelationshipAnalysis(tables []string, sampleJSON string) string {
	return withSystem(fmt.Sprintf(relationshipAnalysisTmpl, strings.Join(tables, ", "), sampleJSON))
}

// Visualization builds the visualization-suggestion prompt for one table.
func Visualization(table, sampleJSON string) string {
	return withSystem(fmt.Sprintf(visualizationTmpl, table, sampleJSON))
}

// AnalysisPlan builds the research-plan prompt.
func AnalysisPlan(question string, tables []string, sampleJSON string) string {
	return withSystem(fmt.Sprintf(analysisPlanTmpl, question, strings.Join(tables, ", "), sampleJSON))
}

// DataQuality builds the data-quality prompt for one table.
func DataQuality(table string, tableSize, sampleSize int64, sampleJSON string) string {
	return withSystem(fmt.Sprintf(dataQualityTmpl, table, tableSize, sampleSize, sampleJSON))
}

// ResearchQuestions builds the research-question prompt.
func ResearchQuestions(tables []string, sampleJSON string) string {
	return withSystem(fmt.Sprintf(researchQuestionTmpl, strings.Join(tables, ", "), sampleJSON))
}

func withSystem(prompt string) string {
	return System + "\n\n" + prompt
}
