package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// LocalDispatcher runs the pipeline in-process on a background goroutine.
type LocalDispatcher struct {
	base     context.Context
	stages   *Stages
	retry    RetryPolicy
	reporter ports.RunReporter
	logger   *slog.Logger
	wg       sync.WaitGroup
}

var _ ports.Dispatcher = (*LocalDispatcher)(nil)

// NewLocalDispatcher ties background runs to base, which outlives individual requests.
func NewLocalDispatcher(base context.Context, stages *Stages, retry RetryPolicy, reporter ports.RunReporter, log *slog.Logger) *LocalDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &LocalDispatcher{base: base, stages: stages, retry: retry, reporter: reporter, logger: log}
}

// Trigger starts a run and returns its id immediately.
func (d *LocalDispatcher) Trigger(ctx context.Context, topic string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runID := uuid.NewString()
	topic = domain.NormalizeTopic(topic)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_, _ = d.run(d.base, runID, topic)
	}()
	return runID, nil
}

// RunNow executes a run synchronously.
func (d *LocalDispatcher) RunNow(ctx context.Context, topic string) (domain.RunSummary, error) {
	return d.run(ctx, uuid.NewString(), domain.NormalizeTopic(topic))
}

// Wait blocks until background runs have finished.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

func (d *LocalDispatcher) run(ctx context.Context, runID, topic string) (domain.RunSummary, error) {
	d.logger.Info("run started", "run_id", runID, "topic", topic)
	steps := NewLocalSteps(ctx, runID, d.stages, d.retry, d.logger)
	summary, err := RunPipeline(steps, topic)
	ReportRun(ctx, d.reporter, d.logger, summary, err)
	return summary, err
}

// ReportRun forwards a finished run to the operator channel, if any.
func ReportRun(ctx context.Context, reporter ports.RunReporter, log *slog.Logger, summary domain.RunSummary, runErr error) {
	if runErr != nil {
		log.Error("run failed", "run_id", summary.RunID, "topic", summary.Topic, "err", runErr)
	}
	if reporter == nil {
		return
	}
	if err := reporter.ReportRun(context.WithoutCancel(ctx), summary, runErr); err != nil {
		log.Warn("run report failed", "run_id", summary.RunID, "err", err)
	}
}

