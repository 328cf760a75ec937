package temporalx

import (
	"context"
	"time"

	"go.temporal.io/sdk/temporal"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/usecase"
)

// ErrTypeSchema is the application error type for model output that failed validation.
const ErrTypeSchema = "SchemaError"

// Activities exposes each pipeline step as a Temporal activity.
type Activities struct {
	Stages *usecase.Stages
}

func (a *Activities) EnsureTopic(ctx context.Context, topic string) (domain.Topic, error) {
	t, err := a.Stages.EnsureTopic(ctx, topic)
	return t, classify(err)
}

func (a *Activities) Fetch(ctx context.Context, topic string) (usecase.FetchResult, error) {
	res, err := a.Stages.Fetch(ctx, topic)
	return res, classify(err)
}

func (a *Activities) Analyze(ctx context.Context, items []domain.SourceItem) ([]domain.PainPoint, error) {
	out, err := a.Stages.Analyze(ctx, items)
	return out, classify(err)
}

func (a *Activities) Generate(ctx context.Context, painPoints []domain.PainPoint) ([]domain.ConceptDraft, error) {
	out, err := a.Stages.Generate(ctx, painPoints)
	return out, classify(err)
}

func (a *Activities) Persist(ctx context.Context, runID, topic string, drafts []domain.ConceptDraft) ([]domain.Concept, error) {
	out, err := a.Stages.Persist(ctx, runID, topic, drafts)
	return out, classify(err)
}

func (a *Activities) Notify(ctx context.Context, concepts []domain.Concept) (domain.NotifyReport, error) {
	out, err := a.Stages.Notify(ctx, concepts)
	return out, classify(err)
}

func (a *Activities) Stamp(ctx context.Context, topic string) (time.Time, error) {
	at, err := a.Stages.Stamp(ctx, topic)
	return at, classify(err)
}

// classify marks schema errors non-retryable so the server does not retry them.
// The cause carries the error text; the message only names the class.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsPermanent(err) {
		return temporal.NewNonRetryableApplicationError("model output failed validation", ErrTypeSchema, err)
	}
	return err
}
