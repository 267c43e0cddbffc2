package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/parthgeek/tally/internal/dispatch"
	"github.com/parthgeek/tally/internal/evaluation"
	"github.com/parthgeek/tally/internal/llm"
	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/rules"
	"github.com/parthgeek/tally/internal/taxonomy"
)

func evaluateCmd() *cobra.Command {
	var (
		datasetPath string
		mode        string
		industry    string
		batchSize   int
		concurrency int
		threshold   float64
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Replay a labelled dataset and score the classifier",
		Long: `Reads a JSON dataset of transactions with optional ground-truth labels,
runs the chosen classifier path over it without touching the live
database, and prints accuracy, confidence, and latency statistics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			dataset, err := loadDataset(datasetPath)
			if err != nil {
				return err
			}

			registry := taxonomy.Default()

			var pass2 dispatch.Pass2
			if evaluation.Mode(mode) != evaluation.ModePass1 {
				classifier, err := llm.NewClassifier(modelConfig(), registry, slog.Default())
				if err != nil {
					return fmt.Errorf("failed to create model classifier: %w", err)
				}
				defer classifier.Close()
				pass2 = classifier
			}

			bar := progressbar.NewOptions(len(dataset),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Evaluating..."),
			)

			runner := evaluation.NewRunner(rules.MustNewClassifier(), pass2, registry, slog.Default())
			report, err := runner.Run(ctx, dataset, evaluation.Options{
				Progress:        func(done, _ int) { _ = bar.Set(done) },
				Mode:            evaluation.Mode(mode),
				Industry:        industry,
				BatchSize:       batchSize,
				Concurrency:     concurrency,
				HybridThreshold: threshold,
			})
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
			_ = bar.Finish()

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			printEvaluation(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "path to the JSON dataset (required)")
	cmd.Flags().StringVar(&mode, "mode", string(evaluation.ModePass1), "classifier path: pass1, pass2, or hybrid")
	cmd.Flags().StringVar(&industry, "industry", "", "industry used for category filtering")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "dataset chunk size (0 = default)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "workers per chunk (0 = default)")
	cmd.Flags().Float64Var(&threshold, "threshold", dispatch.DefaultEscalationThreshold, "escalation threshold for hybrid mode")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the full report as JSON")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func loadDataset(path string) ([]evaluation.DatasetEntry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied dataset path
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var dataset []evaluation.DatasetEntry
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if len(dataset) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}

	return dataset, nil
}

func printEvaluation(report *evaluation.Report) {
	m := report.Metrics

	fmt.Printf("\nStatus: %s\n", report.Status)
	fmt.Printf("Samples: %d (%d errors)\n", m.Total, m.Errors)

	engines := make([]model.EngineTag, 0, len(m.ByEngine))
	for tag := range m.ByEngine {
		engines = append(engines, tag)
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i] < engines[j] })
	for _, tag := range engines {
		fmt.Printf("  %-6s %d\n", tag, m.ByEngine[tag])
	}

	fmt.Printf("\nConfidence: mean %.3f over %d defined\n", m.Confidence.Mean, m.Confidence.Defined)
	fmt.Printf("Latency: mean %s  p50 %s  p95 %s  p99 %s\n",
		m.Latency.Mean, m.Latency.P50, m.Latency.P95, m.Latency.P99)

	if m.Accuracy == nil {
		fmt.Println("\nNo ground truth in dataset; accuracy not computed.")
		return
	}

	fmt.Printf("\nAccuracy: %.1f%% (%d/%d)\n", m.Accuracy.Overall*100, m.Accuracy.Correct, m.Accuracy.Total)

	slugs := make([]string, 0, len(m.Accuracy.PerCategory))
	for slug := range m.Accuracy.PerCategory {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	fmt.Printf("%-28s %9s %9s %9s %9s\n", "category", "precision", "recall", "f1", "support")
	for _, slug := range slugs {
		s := m.Accuracy.PerCategory[slug]
		fmt.Printf("%-28s %9.3f %9.3f %9.3f %9d\n", slug, s.Precision, s.Recall, s.F1, s.Support)
	}
}
