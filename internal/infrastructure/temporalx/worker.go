package temporalx

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"IdeaScanner/internal/usecase"
)

// registry is satisfied by worker.Worker and the test workflow environment.
type registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register binds the workflow and every step activity under their stable names.
func Register(r registry, acts *Activities) {
	r.RegisterWorkflowWithOptions(SyncTopicWorkflow, workflow.RegisterOptions{Name: WorkflowName})
	for name, fn := range acts.byName() {
		r.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
}

func (a *Activities) byName() map[string]interface{} {
	return map[string]interface{}{
		usecase.StepEnsureTopic: a.EnsureTopic,
		usecase.StepFetch:       a.Fetch,
		usecase.StepAnalyze:     a.Analyze,
		usecase.StepGenerate:    a.Generate,
		usecase.StepPersist:     a.Persist,
		usecase.StepNotify:      a.Notify,
		usecase.StepStamp:       a.Stamp,
	}
}

// Worker polls one task queue until its context ends.
type Worker struct {
	w      worker.Worker
	queue  string
	logger *slog.Logger
}

// NewWorker registers the sync workflow on taskQueue.
func NewWorker(c client.Client, taskQueue string, acts *Activities, concurrency int, log *slog.Logger) (*Worker, error) {
	if c == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil || acts.Stages == nil {
		return nil, fmt.Errorf("temporal worker missing stages")
	}
	if concurrency < 1 {
		concurrency = 4
	}
	w := worker.New(c, taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	Register(w, acts)
	if log == nil {
		log = slog.Default()
	}
	return &Worker{w: w, queue: taskQueue, logger: log}, nil
}

// Run starts polling and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.w.Start(); err != nil {
		return fmt.Errorf("start temporal worker: %w", err)
	}
	w.logger.Info("temporal worker started", "task_queue", w.queue)
	<-ctx.Done()
	w.w.Stop()
	w.logger.Info("temporal worker stopped", "task_queue", w.queue)
	return nil
}
