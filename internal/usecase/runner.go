package usecase

import (
	"context"
	"log/slog"
	"time"

	"regintel/internal/ports"
)

// Runner wires the interval scheduler to recurring full-domain runs of
// every configured pipeline.
type Runner struct {
	driver    ports.Scheduler
	pipelines []*Pipeline
	logger    *slog.Logger
}

// NewRunner returns a helper to start/stop recurring polls.
func NewRunner(driver ports.Scheduler, pipelines []*Pipeline, log *slog.Logger) *Runner {
	return &Runner{driver: driver, pipelines: pipelines, logger: log}
}

// Start registers the poll job with the scheduler. Each tick runs every
// pipeline sequentially with an unfiltered, non-full-scan request.
func (r *Runner) Start(ctx context.Context) error {
	if r.driver == nil || len(r.pipelines) == 0 {
		return nil
	}

	job := func(trigger time.Time) {
		for _, pipeline := range r.pipelines {
			summary, err := pipeline.Run(ctx, RunRequest{})
			if err != nil {
				if r.logger != nil {
					r.logger.Error("scheduled run failed", "domain", pipeline.Domain(), "error", err)
				}
				continue
			}
			if r.logger != nil {
				r.logger.Info("scheduled run complete",
					"domain", pipeline.Domain(),
					"status", summary.Status,
					"processed", summary.RecordsProcessed,
					"new", summary.NewItemsFound)
			}
		}
	}

	return r.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (r *Runner) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}
	return r.driver.Stop(ctx)
}
