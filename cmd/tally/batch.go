package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parthgeek/tally/internal/dispatch"
	"github.com/parthgeek/tally/internal/engine"
	"github.com/parthgeek/tally/internal/llm"
	"github.com/parthgeek/tally/internal/rules"
	"github.com/parthgeek/tally/internal/telemetry"
)

func batchCmd() *cobra.Command {
	var (
		orgID       string
		industry    string
		maxBatches  int
		batchSize   int
		timeout     time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Categorize pending transactions",
		Long: `Runs the hybrid engine over uncategorized transactions. With --org it
covers a single organization; otherwise every organization with pending
work is scheduled under the admission caps.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			registry, err := loadRegistry(ctx, store)
			if err != nil {
				return err
			}

			pass2, err := llm.NewClassifier(modelConfig(), registry, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create model classifier: %w", err)
			}
			defer pass2.Close()

			dispatcher := dispatch.New(
				rules.MustNewClassifier(),
				pass2,
				registry,
				dispatch.Config{
					EscalationThreshold: viper.GetFloat64("engine.escalation_threshold"),
					FallbackConfidence:  viper.GetFloat64("engine.fallback_confidence"),
				},
				slog.Default(),
			)

			if metricsAddr != "" {
				go serveMetrics(metricsAddr)
			}

			cfg := engine.DefaultConfig()
			if batchSize > 0 {
				cfg.BatchSize = batchSize
			}
			cfg.RunTimeout = timeout
			if t := viper.GetFloat64("engine.auto_apply_threshold"); t > 0 {
				cfg.AutoApplyThreshold = t
			}

			eng := engine.New(store, dispatcher, registry, nil, telemetry.NewSlogSink(slog.Default()), cfg, slog.Default())

			report, err := eng.Run(ctx, engine.BatchRunOptions{
				OrgID:      orgID,
				Industry:   industry,
				MaxBatches: maxBatches,
			})
			if err != nil {
				return fmt.Errorf("batch run failed: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}

			if report.TimeoutReached {
				slog.Warn("run stopped at the wall-clock budget", "remaining", report.Remaining)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "limit the run to one organization")
	cmd.Flags().StringVar(&industry, "industry", "", "industry used for category filtering and prompts")
	cmd.Flags().IntVar(&maxBatches, "max-batches", 0, "stop each organization after this many batches (0 = unlimited)")
	cmd.Flags().IntVar(&batchSize, "batch-size", engine.DefaultBatchSize, "transactions fetched per batch")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "wall-clock budget for the whole run (0 = none)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	viper.SetDefault("engine.escalation_threshold", dispatch.DefaultEscalationThreshold)
	viper.SetDefault("engine.fallback_confidence", dispatch.DefaultFallbackConfidence)
	viper.SetDefault("engine.auto_apply_threshold", engine.DefaultAutoApplyThreshold)

	return cmd
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}
