package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clarityhq/claritymark/internal/config"
	"github.com/clarityhq/claritymark/internal/model"
)

// BatchProcessor handles concurrent processing of multiple claims.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-run execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
//
// Each job gets its own pipeline and therefore its own document:
// highlights are not additive, so claims sharing a source must not
// share a parsed tree.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each run.
	// We use a factory to ensure each run gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed jobs.
	// Access is synchronized via mutex.
	results []*Job
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is config.DefaultConcurrency if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each run to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak
// between runs and allows for per-run customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultConcurrency,
		results:         make([]*Job, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs multiple jobs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each job gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns the reports of all jobs in input order, even for runs that
// failed. The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) ([]*model.RunReport, error) {
	bp.logger.Info("starting batch processing",
		"total_jobs", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*Job, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("running job",
				"source", job.Source,
				"index", i+1,
				"total", len(jobs),
			)

			pipeline := bp.pipelineFactory()
			err := pipeline.Execute(ctx, job)

			// Store result regardless of error
			// The report contains error information if the run failed
			bp.mu.Lock()
			bp.results[i] = job
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("run failed",
					"source", job.Source,
					"error", err,
				)
				// Don't return the error to the errgroup - we want the
				// other runs to continue. The error is recorded in the
				// report.
				return nil
			}

			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_jobs", len(jobs),
		"elapsed", elapsed,
	)

	reports := make([]*model.RunReport, 0, len(jobs))
	for _, job := range bp.results {
		if job != nil {
			reports = append(reports, job.Report)
		}
	}

	return reports, err
}

// Jobs returns the completed jobs from the last batch, in input order.
// Callers use this to access the rewritten HTML of each run.
func (bp *BatchProcessor) Jobs() []*Job {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.results
}
