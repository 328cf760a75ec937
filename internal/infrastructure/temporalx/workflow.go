package temporalx

import (
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/usecase"
)

const (
	WorkflowName   = "SyncTopicWorkflow"
	ErrTypeRunFail = "RunFailed"
)

// SyncInput starts one run. RunID defaults to the workflow id.
type SyncInput struct {
	Topic string `json:"topic"`
	RunID string `json:"run_id,omitempty"`
}

// ActivityOptions applies to every step; schema errors are never retried.
var ActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 5 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:        time.Second,
		BackoffCoefficient:     2.0,
		MaximumInterval:        30 * time.Second,
		MaximumAttempts:        3,
		NonRetryableErrorTypes: []string{ErrTypeSchema},
	},
}

// SyncTopicWorkflow runs the pipeline with each step as an activity. A failed
// run returns an application error carrying the partial summary as details.
func SyncTopicWorkflow(ctx workflow.Context, in SyncInput) (domain.RunSummary, error) {
	runID := strings.TrimSpace(in.RunID)
	if runID == "" {
		runID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}
	ctx = workflow.WithActivityOptions(ctx, ActivityOptions)

	summary, err := usecase.RunPipeline(&workflowSteps{ctx: ctx, runID: runID}, in.Topic)
	if err != nil {
		return summary, temporal.NewNonRetryableApplicationError("sync of topic "+summary.Topic+" failed", ErrTypeRunFail, err, summary)
	}
	return summary, nil
}

// workflowSteps adapts the pipeline steps onto activities.
type workflowSteps struct {
	ctx   workflow.Context
	runID string
}

var _ usecase.Steps = (*workflowSteps)(nil)

func (s *workflowSteps) RunID() string  { return s.runID }
func (s *workflowSteps) Now() time.Time { return workflow.Now(s.ctx).UTC() }

func (s *workflowSteps) Log(msg string, keyvals ...any) {
	workflow.GetLogger(s.ctx).Info(msg, keyvals...)
}

func (s *workflowSteps) EnsureTopic(topic string) (domain.Topic, error) {
	var out domain.Topic
	err := workflow.ExecuteActivity(s.ctx, usecase.StepEnsureTopic, topic).Get(s.ctx, &out)
	return out, err
}

func (s *workflowSteps) Fetch(topic string) (usecase.FetchResult, error) {
	var out usecase.FetchResult
	err := workflow.ExecuteActivity(s.ctx, usecase.StepFetch, topic).Get(s.ctx, &out)
	return out, err
}

func (s *workflowSteps) Analyze(items []domain.SourceItem) ([]domain.PainPoint, error) {
	var out []domain.PainPoint
	err := workflow.ExecuteActivity(s.ctx, usecase.StepAnalyze, items).Get(s.ctx, &out)
	return out, err
}

func (s *workflowSteps) Generate(painPoints []domain.PainPoint) ([]domain.ConceptDraft, error) {
	var out []domain.ConceptDraft
	err := workflow.ExecuteActivity(s.ctx, usecase.StepGenerate, painPoints).Get(s.ctx, &out)
	return out, err
}

func (s *workflowSteps) Persist(runID, topic string, drafts []domain.ConceptDraft) ([]domain.Concept, error) {
	var out []domain.Concept
	err := workflow.ExecuteActivity(s.ctx, usecase.StepPersist, runID, topic, drafts).Get(s.ctx, &out)
	return out, err
}

func (s *workflowSteps) Notify(concepts []domain.Concept) (domain.NotifyReport, error) {
	var out domain.NotifyReport
	err := workflow.ExecuteActivity(s.ctx, usecase.StepNotify, concepts).Get(s.ctx, &out)
	return out, err
}

func (s *workflowSteps) Stamp(topic string) (time.Time, error) {
	var out time.Time
	err := workflow.ExecuteActivity(s.ctx, usecase.StepStamp, topic).Get(s.ctx, &out)
	return out, err
}
