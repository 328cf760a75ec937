package usecase

import (
	"fmt"
	"time"

	"IdeaScanner/internal/domain"
)

// Step names shared by the local runner, Temporal activities and traces.
const (
	StepEnsureTopic = "ensure-topic"
	StepFetch       = "fetch-items"
	StepAnalyze     = "analyze-pain-points"
	StepGenerate    = "generate-concepts"
	StepPersist     = "persist-concepts"
	StepNotify      = "notify-subscribers"
	StepStamp       = "stamp-topic"
)

// Steps is what a run needs from its execution substrate. Each call is one
// named, independently retried step. Methods take no context so a Temporal
// workflow can implement them deterministically.
type Steps interface {
	RunID() string
	Now() time.Time
	EnsureTopic(topic string) (domain.Topic, error)
	Fetch(topic string) (FetchResult, error)
	Analyze(items []domain.SourceItem) ([]domain.PainPoint, error)
	Generate(painPoints []domain.PainPoint) ([]domain.ConceptDraft, error)
	Persist(runID, topic string, drafts []domain.ConceptDraft) ([]domain.Concept, error)
	Notify(concepts []domain.Concept) (domain.NotifyReport, error)
	Stamp(topic string) (time.Time, error)
	Log(msg string, keyvals ...any)
}

// StepError names the step a run failed in.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// RunPipeline drives one run through the state machine:
// ensure topic, fetch, (empty exit | analyze, generate, persist, notify if
// anything was inserted), stamp. Stamping is the last action of every
// successful run, including the empty one.
func RunPipeline(steps Steps, topic string) (domain.RunSummary, error) {
	topic = domain.NormalizeTopic(topic)
	summary := domain.RunSummary{
		RunID:     steps.RunID(),
		Topic:     topic,
		State:     domain.StatePending,
		StartedAt: steps.Now(),
	}
	fail := func(step string, err error) (domain.RunSummary, error) {
		steps.Log("run failed", "run_id", summary.RunID, "topic", topic, "step", step, "state", summary.State, "err", err)
		summary.State = domain.StateFailed
		summary.Message = fmt.Sprintf("failed in %s: %v", step, err)
		return summary, &StepError{Step: step, Err: err}
	}
	finish := func() (domain.RunSummary, error) {
		summary.State = domain.StateStamping
		at, err := steps.Stamp(topic)
		if err != nil {
			return fail(StepStamp, err)
		}
		summary.SyncedAt = &at
		summary.State = domain.StateDone
		steps.Log("run complete", "run_id", summary.RunID, "topic", topic, "origin", summary.Origin,
			"items", summary.ItemsFetched, "inserted", summary.ConceptsInserted, "emails_sent", summary.EmailsSent)
		return summary, nil
	}

	summary.State = domain.StateEnsureTopic
	if _, err := steps.EnsureTopic(topic); err != nil {
		return fail(StepEnsureTopic, err)
	}

	summary.State = domain.StateFetching
	fetched, err := steps.Fetch(topic)
	if err != nil {
		return fail(StepFetch, err)
	}
	summary.ItemsFetched = len(fetched.Items)
	summary.Origin = fetched.Origin

	if len(fetched.Items) == 0 {
		summary.State = domain.StateEmptyExit
		summary.Message = fmt.Sprintf("No items found for topic %q. Skipping analysis and ideation.", topic)
		if fetched.Origin == domain.OriginUnavailable {
			summary.Message = fmt.Sprintf("Source unavailable for topic %q. Skipping analysis and ideation.", topic)
		}
		steps.Log("empty fetch, stamping", "run_id", summary.RunID, "topic", topic, "origin", fetched.Origin)
		return finish()
	}

	summary.State = domain.StateAnalyzing
	painPoints, err := steps.Analyze(fetched.Items)
	if err != nil {
		return fail(StepAnalyze, err)
	}
	summary.PainPointsFound = len(painPoints)

	summary.State = domain.StateGenerating
	drafts, err := steps.Generate(painPoints)
	if err != nil {
		return fail(StepGenerate, err)
	}
	summary.ConceptsGenerated = len(drafts)

	summary.State = domain.StatePersisting
	inserted, err := steps.Persist(summary.RunID, topic, drafts)
	if err != nil {
		return fail(StepPersist, err)
	}
	summary.ConceptsInserted = len(inserted)

	if len(inserted) > 0 {
		summary.State = domain.StateNotifying
		report, err := steps.Notify(inserted)
		if err != nil {
			return fail(StepNotify, err)
		}
		summary.EmailsSent = report.Sent
		summary.EmailsFailed = report.Failed
		summary.Deliveries = report.Deliveries
	} else if len(drafts) > 0 {
		summary.Message = fmt.Sprintf("All %d concepts were already stored for run %s; notification skipped.", len(drafts), summary.RunID)
		steps.Log("persist was a replay, skipping notify", "run_id", summary.RunID, "topic", topic, "drafts", len(drafts))
	}

	return finish()
}
