package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/biodb-ai/biodb/pkg/models"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run schema-grounded analyses against the generation backend",
	}

	withApp := func(run func(ctx context.Context, a *app, args []string) (models.AnalysisResult, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := run(ctx, a, args)
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		}
	}

	databaseCmd := &cobra.Command{
		Use:   "database",
		Short: "Analyze the whole database structure and contents",
		RunE: withApp(func(ctx context.Context, a *app, args []string) (models.AnalysisResult, error) {
			tables := a.analyzer.Fingerprint().TableNames()
			samples, err := a.collectSamples(ctx, tables)
			if err != nil {
				return models.AnalysisResult{}, err
			}
			return a.analyzer.AnalyzeDatabase(ctx, tables, samples)
		}),
	}

	relationshipsCmd := &cobra.Command{
		Use:   "relationships",
		Short: "Analyze relationships between tables",
		RunE: withApp(func(ctx context.Context, a *app, args []string) (models.AnalysisResult, error) {
			tables := a.analyzer.Fingerprint().TableNames()
			samples, err := a.collectSamples(ctx, tables)
			if err != nil {
				return models.AnalysisResult{}, err
			}
			return a.analyzer.AnalyzeRelationships(ctx, tables, samples)
		}),
	}

	visualizeCmd := &cobra.Command{
		Use:   "visualize <table>",
		Short: "Suggest visualizations for a table",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) (models.AnalysisResult, error) {
			samples, err := a.collectSamples(ctx, args[:1])
			if err != nil {
				return models.AnalysisResult{}, err
			}
			return a.analyzer.SuggestVisualizations(ctx, args[0], samples)
		}),
	}

	planCmd := &cobra.Command{
		Use:   "plan <research question>",
		Short: "Generate an analysis plan for a research question",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) (models.AnalysisResult, error) {
			tables := a.analyzer.Fingerprint().TableNames()
			samples, err := a.collectSamples(ctx, tables)
			if err != nil {
				return models.AnalysisResult{}, err
			}
			return a.analyzer.GenerateAnalysisPlan(ctx, strings.Join(args, " "), tables, samples)
		}),
	}

	qualityCmd := &cobra.Command{
		Use:   "quality <table>",
		Short: "Analyze the data quality of a table",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) (models.AnalysisResult, error) {
			samples, err := a.collectSamples(ctx, args[:1])
			if err != nil {
				return models.AnalysisResult{}, err
			}
			return a.analyzer.AnalyzeDataQuality(ctx, args[0], samples)
		}),
	}

	questionsCmd := &cobra.Command{
		Use:   "questions",
		Short: "Generate research questions grounded in the schema",
		RunE: withApp(func(ctx context.Context, a *app, args []string) (models.AnalysisResult, error) {
			tables := a.analyzer.Fingerprint().TableNames()
			samples, err := a.collectSamples(ctx, tables)
			if err != nil {
				return models.AnalysisResult{}, err
			}
			return a.analyzer.GenerateResearchQuestions(ctx, tables, samples)
		}),
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "biodb.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database")
	cmd.AddCommand(databaseCmd, relationshipsCmd, visualizeCmd, planCmd, qualityCmd, questionsCmd)
	return cmd
}

func printResult(res models.AnalysisResult) {
	fmt.Println(res.Response)
	fmt.Printf("\nConfidence: %.2f  Schema valid: %v\n", res.Confidence, res.SchemaValid)

	printFragments("Validated visualizations", res.Visualizations)
	printFragments("Validated analysis steps", res.AnalysisSteps)
	printFragments("Validated quality metrics", res.QualityMetrics)
	printFragments("Validated research questions", res.ResearchQuestions)
}

func printFragments(label string, fragments []string) {
	if len(fragments) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", label)
	for _, f := range fragments {
		fmt.Printf("  - %s\n", f)
	}
}
