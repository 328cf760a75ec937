package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"IdeaScanner/internal/domain"
)

const tracerName = "IdeaScanner/internal/usecase"

// RetryPolicy bounds the in-process retries of one step.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy mirrors the Temporal activity retry settings.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, InitialInterval: time.Second, MaxInterval: 30 * time.Second}

// LocalSteps runs every step in-process with bounded retries and one span per step.
type LocalSteps struct {
	ctx    context.Context
	runID  string
	stages *Stages
	retry  RetryPolicy
	tracer trace.Tracer
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

var _ Steps = (*LocalSteps)(nil)

// NewLocalSteps binds a run to ctx.
func NewLocalSteps(ctx context.Context, runID string, stages *Stages, retry RetryPolicy, log *slog.Logger) *LocalSteps {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy
	}
	if log == nil {
		log = slog.Default()
	}
	return &LocalSteps{
		ctx:    ctx,
		runID:  runID,
		stages: stages,
		retry:  retry,
		tracer: otel.Tracer(tracerName),
		logger: log.With("run_id", runID),
		sleep:  sleepCtx,
	}
}

func (s *LocalSteps) RunID() string  { return s.runID }
func (s *LocalSteps) Now() time.Time { return s.stages.Now() }

func (s *LocalSteps) Log(msg string, keyvals ...any) {
	s.logger.Info(msg, keyvals...)
}

func (s *LocalSteps) EnsureTopic(topic string) (domain.Topic, error) {
	return runStep(s, StepEnsureTopic, func(ctx context.Context) (domain.Topic, error) {
		return s.stages.EnsureTopic(ctx, topic)
	})
}

func (s *LocalSteps) Fetch(topic string) (FetchResult, error) {
	return runStep(s, StepFetch, func(ctx context.Context) (FetchResult, error) {
		return s.stages.Fetch(ctx, topic)
	})
}

func (s *LocalSteps) Analyze(items []domain.SourceItem) ([]domain.PainPoint, error) {
	return runStep(s, StepAnalyze, func(ctx context.Context) ([]domain.PainPoint, error) {
		return s.stages.Analyze(ctx, items)
	})
}

func (s *LocalSteps) Generate(painPoints []domain.PainPoint) ([]domain.ConceptDraft, error) {
	return runStep(s, StepGenerate, func(ctx context.Context) ([]domain.ConceptDraft, error) {
		return s.stages.Generate(ctx, painPoints)
	})
}

func (s *LocalSteps) Persist(runID, topic string, drafts []domain.ConceptDraft) ([]domain.Concept, error) {
	return runStep(s, StepPersist, func(ctx context.Context) ([]domain.Concept, error) {
		return s.stages.Persist(ctx, runID, topic, drafts)
	})
}

func (s *LocalSteps) Notify(concepts []domain.Concept) (domain.NotifyReport, error) {
	return runStep(s, StepNotify, func(ctx context.Context) (domain.NotifyReport, error) {
		return s.stages.Notify(ctx, concepts)
	})
}

func (s *LocalSteps) Stamp(topic string) (time.Time, error) {
	return runStep(s, StepStamp, func(ctx context.Context) (time.Time, error) {
		return s.stages.Stamp(ctx, topic)
	})
}

// runStep executes fn until it succeeds, fails permanently, or runs out of attempts.
func runStep[T any](s *LocalSteps, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(s.ctx, name, trace.WithAttributes(attribute.String("run.id", s.runID)))
	defer span.End()

	var zero T
	for attempt := 1; ; attempt++ {
		span.SetAttributes(attribute.Int("step.attempt", attempt))
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if domain.IsPermanent(err) || attempt >= s.retry.MaxAttempts || ctx.Err() != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return zero, err
		}
		wait := clampBackoff(s.retry.InitialInterval, s.retry.MaxInterval, attempt)
		s.logger.Warn("step failed, retrying", "step", name, "attempt", attempt, "wait", wait, "err", err)
		if err := s.sleep(ctx, wait); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return zero, err
		}
	}
}

func clampBackoff(base time.Duration, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if max > 0 && sleep >= max {
			return max
		}
	}
	if max > 0 && sleep > max {
		return max
	}
	return sleep
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
