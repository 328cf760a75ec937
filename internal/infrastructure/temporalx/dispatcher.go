package temporalx

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
	"IdeaScanner/internal/usecase"
)

// Dispatcher starts SyncTopicWorkflow executions on a task queue.
type Dispatcher struct {
	client    client.Client
	taskQueue string
	base      context.Context
	reporter  ports.RunReporter
	logger    *slog.Logger
	wg        sync.WaitGroup
}

var _ ports.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher watches started runs under base so reports outlive the request.
func NewDispatcher(base context.Context, c client.Client, taskQueue string, reporter ports.RunReporter, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{client: c, taskQueue: taskQueue, base: base, reporter: reporter, logger: log}
}

// Trigger starts a run and returns once the server has accepted it.
func (d *Dispatcher) Trigger(ctx context.Context, topic string) (string, error) {
	runID, run, err := d.start(ctx, topic)
	if err != nil {
		return "", err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.await(d.base, run)
	}()
	return runID, nil
}

// RunNow starts a run and waits for its result.
func (d *Dispatcher) RunNow(ctx context.Context, topic string) (domain.RunSummary, error) {
	_, run, err := d.start(ctx, topic)
	if err != nil {
		return domain.RunSummary{}, err
	}
	return d.await(ctx, run)
}

// Wait blocks until watched runs have reported.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) start(ctx context.Context, topic string) (string, client.WorkflowRun, error) {
	runID := uuid.NewString()
	topic = domain.NormalizeTopic(topic)
	opts := client.StartWorkflowOptions{
		ID:        "sync-" + topic + "-" + runID,
		TaskQueue: d.taskQueue,
	}
	run, err := d.client.ExecuteWorkflow(ctx, opts, WorkflowName, SyncInput{Topic: topic, RunID: runID})
	if err != nil {
		return "", nil, err
	}
	d.logger.Info("workflow started", "run_id", runID, "topic", topic, "workflow_id", run.GetID())
	return runID, run, nil
}

func (d *Dispatcher) await(ctx context.Context, run client.WorkflowRun) (domain.RunSummary, error) {
	var summary domain.RunSummary
	err := run.Get(ctx, &summary)
	if err != nil {
		summary = SummaryFromError(err, summary)
	}
	usecase.ReportRun(ctx, d.reporter, d.logger, summary, err)
	return summary, err
}

// SummaryFromError recovers the partial summary a failed workflow attached to its error.
func SummaryFromError(err error, fallback domain.RunSummary) domain.RunSummary {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != ErrTypeRunFail || !appErr.HasDetails() {
		return fallback
	}
	var summary domain.RunSummary
	if appErr.Details(&summary) != nil {
		return fallback
	}
	return summary
}
