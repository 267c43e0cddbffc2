package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/parthgeek/tally/internal/common"
	"github.com/parthgeek/tally/internal/dispatch"
	"github.com/parthgeek/tally/internal/model"
	"github.com/parthgeek/tally/internal/taxonomy"
)

// Mode selects which classifier path the evaluation exercises.
type Mode string

// Evaluation modes. Pass-1-only runs are fully deterministic; the other two
// are best-effort deterministic because they call the model.
const (
	ModePass1  Mode = "pass1"
	ModePass2  Mode = "pass2"
	ModeHybrid Mode = "hybrid"
)

// Status reports how an evaluation run concluded.
type Status string

// Run status constants.
const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// DatasetEntry is one labelled evaluation input.
type DatasetEntry struct {
	Txn   model.Transaction `json:"transaction"`
	Truth string            `json:"truth,omitempty"` // Expected category slug
}

// Options configures an evaluation run.
type Options struct {
	Progress        func(done, total int)
	Mode            Mode
	Industry        string
	BatchSize       int
	Concurrency     int
	HybridThreshold float64
}

// Report is the evaluation-run entrypoint response.
type Report struct {
	Status  Status
	Results []model.CategorizationResult
	Errors  []string
	Metrics Metrics
}

// Runner replays a labelled dataset through a classifier path and scores the
// output. It operates entirely off the live path: nothing is persisted.
type Runner struct {
	pass1    dispatch.Pass1
	pass2    dispatch.Pass2
	registry *taxonomy.Registry
	logger   *slog.Logger
}

// NewRunner creates an evaluation runner. pass2 may be nil when only
// ModePass1 will be used.
func NewRunner(pass1 dispatch.Pass1, pass2 dispatch.Pass2, registry *taxonomy.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{pass1: pass1, pass2: pass2, registry: registry, logger: logger}
}

// Run evaluates the dataset. A malformed dataset is rejected before any
// processing with a validation error; per-sample failures afterwards are
// line items that degrade the status to partial.
func (r *Runner) Run(ctx context.Context, dataset []DatasetEntry, opts Options) (*Report, error) {
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if (opts.Mode == ModePass2 || opts.Mode == ModeHybrid) && r.pass2 == nil {
		return nil, fmt.Errorf("%w: mode %s requires a model classifier", common.ErrInvalidConfig, opts.Mode)
	}

	for i := range dataset {
		if err := dataset[i].Txn.Validate(); err != nil {
			return nil, fmt.Errorf("%w: dataset entry %d: %v", common.ErrValidation, i, err)
		}
	}

	classify := r.classifierFor(opts)

	samples := make([]Sample, len(dataset))
	var done int
	var doneMu sync.Mutex

	// A semaphore channel caps in-flight classifications per batch.
	for start := 0; start < len(dataset); start += opts.BatchSize {
		if ctx.Err() != nil {
			break
		}
		end := start + opts.BatchSize
		if end > len(dataset) {
			end = len(dataset)
		}

		sem := make(chan struct{}, opts.Concurrency)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()

				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					samples[idx] = Sample{Truth: dataset[idx].Truth, Err: ctx.Err().Error()}
					return
				}

				began := time.Now()
				outcome := classify(ctx, dataset[idx].Txn)
				sample := Sample{
					Result:  outcome.Result,
					Truth:   dataset[idx].Truth,
					Latency: time.Since(began),
				}
				if outcome.Status == model.OutcomeFallback {
					sample.Err = outcome.Reason
				}
				if outcome.Status == model.OutcomeFatal {
					sample.Err = outcome.Err.Error()
				}
				samples[idx] = sample

				if opts.Progress != nil {
					doneMu.Lock()
					done++
					current := done
					doneMu.Unlock()
					opts.Progress(current, len(dataset))
				}
			}(i)
		}
		wg.Wait()
	}

	report := &Report{Metrics: Compute(samples)}
	for _, s := range samples {
		report.Results = append(report.Results, s.Result)
		if s.Err != "" {
			report.Errors = append(report.Errors, s.Err)
		}
	}
	report.Status = statusFor(len(samples), len(report.Errors))

	r.logger.Info("evaluation run complete",
		"mode", string(opts.Mode),
		"samples", len(samples),
		"errors", len(report.Errors),
		"status", string(report.Status))

	return report, nil
}

// classifierFor binds the selected mode to a single classify function
// returning a tagged outcome.
func (r *Runner) classifierFor(opts Options) func(ctx context.Context, txn model.Transaction) model.Outcome {
	switch opts.Mode {
	case ModePass1:
		return func(_ context.Context, txn model.Transaction) model.Outcome {
			result := r.pass1.Classify(txn)
			if !result.HasCategory() {
				return model.Fallback(result, "no rule signal matched")
			}
			return model.Ok(result)
		}
	case ModePass2:
		return func(ctx context.Context, txn model.Transaction) model.Outcome {
			return r.pass2.Classify(ctx, txn, opts.Industry, nil)
		}
	default:
		d := dispatch.New(r.pass1, r.pass2, r.registry, dispatch.Config{
			EscalationThreshold: opts.HybridThreshold,
		}, r.logger)
		return func(ctx context.Context, txn model.Transaction) model.Outcome {
			return d.Categorize(ctx, txn, opts.Industry)
		}
	}
}

func statusFor(total, failed int) Status {
	switch {
	case failed == 0:
		return StatusSuccess
	case failed >= total && total > 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
