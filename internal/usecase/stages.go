package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// StagesDeps wires every adapter a run touches.
type StagesDeps struct {
	Topics    ports.TopicStore
	Source    ports.ItemSource
	Analyzer  *Analyzer
	Generator *Generator
	Persister *Persister
	Notifier  *Notifier
	Clock     func() time.Time
	Logger    *slog.Logger
}

// Stages exposes each pipeline step as a context-aware call. Both the local
// runner and the Temporal activities delegate here.
type Stages struct {
	topics    ports.TopicStore
	source    ports.ItemSource
	analyzer  *Analyzer
	generator *Generator
	persister *Persister
	notifier  *Notifier
	clock     func() time.Time
	logger    *slog.Logger
}

// NewStages constructs the step implementations.
func NewStages(deps StagesDeps) *Stages {
	s := &Stages{
		topics:    deps.Topics,
		source:    deps.Source,
		analyzer:  deps.Analyzer,
		generator: deps.Generator,
		persister: deps.Persister,
		notifier:  deps.Notifier,
		clock:     deps.Clock,
		logger:    deps.Logger,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Now returns the stage clock in UTC.
func (s *Stages) Now() time.Time {
	return s.clock().UTC()
}

// EnsureTopic creates the topic row if absent without touching last_synced_at.
func (s *Stages) EnsureTopic(ctx context.Context, topic string) (domain.Topic, error) {
	t, err := s.topics.EnsureTopic(ctx, topic)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("ensure topic: %w", err)
	}
	return t, nil
}

// Fetch resolves items for the topic through the configured source.
func (s *Stages) Fetch(ctx context.Context, topic string) (FetchResult, error) {
	res, err := fetchFrom(ctx, s.source, topic)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetch items: %w", err)
	}
	return res, nil
}

// Analyze extracts pain points.
func (s *Stages) Analyze(ctx context.Context, items []domain.SourceItem) ([]domain.PainPoint, error) {
	return s.analyzer.Analyze(ctx, items)
}

// Generate produces one draft per pain point.
func (s *Stages) Generate(ctx context.Context, painPoints []domain.PainPoint) ([]domain.ConceptDraft, error) {
	return s.generator.Generate(ctx, painPoints)
}

// Persist writes drafts for runID and returns the inserted rows.
func (s *Stages) Persist(ctx context.Context, runID, topic string, drafts []domain.ConceptDraft) ([]domain.Concept, error) {
	return s.persister.Persist(ctx, runID, topic, drafts)
}

// Notify dispatches digests for newly inserted concepts.
func (s *Stages) Notify(ctx context.Context, concepts []domain.Concept) (domain.NotifyReport, error) {
	if s.notifier == nil {
		return domain.NotifyReport{Deliveries: []domain.Delivery{}}, nil
	}
	return s.notifier.Notify(ctx, concepts)
}

// Stamp records completion. The forward-only upsert is tried first and a
// direct update is the fallback.
func (s *Stages) Stamp(ctx context.Context, topic string) (time.Time, error) {
	at := s.Now()
	err := s.topics.StampTopic(ctx, topic, at)
	if err == nil {
		return at, nil
	}
	s.logger.Warn("stamp upsert failed, falling back to update", "topic", topic, "err", err)
	if fbErr := s.topics.UpdateTopicSynced(ctx, topic, at); fbErr != nil {
		return time.Time{}, fmt.Errorf("stamp topic: %w", errors.Join(err, fbErr))
	}
	return at, nil
}
