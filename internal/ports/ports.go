package ports

import (
	"context"
	"time"

	"IdeaScanner/internal/domain"
)

// ItemSource returns discussion items for a topic, newest first.
type ItemSource interface {
	Fetch(ctx context.Context, topic string) ([]domain.SourceItem, error)
}

// ItemStore persists source items. It is both the cache and the audit log.
type ItemStore interface {
	FreshItems(ctx context.Context, topic string, since time.Time) ([]domain.SourceItem, error)
	RecentItems(ctx context.Context, topic string, limit int) ([]domain.SourceItem, error)
	UpsertItems(ctx context.Context, items []domain.SourceItem) error
}

// ItemCache is an optional hot tier in front of the ItemStore.
type ItemCache interface {
	GetItems(ctx context.Context, topic string) ([]domain.SourceItem, bool, error)
	SetItems(ctx context.Context, topic string, items []domain.SourceItem, ttl time.Duration) error
}

// TopicStore owns topic rows and the last_synced_at completion signal.
type TopicStore interface {
	EnsureTopic(ctx context.Context, name string) (domain.Topic, error)
	GetTopic(ctx context.Context, name string) (domain.Topic, error)
	StampTopic(ctx context.Context, name string, at time.Time) error
	UpdateTopicSynced(ctx context.Context, name string, at time.Time) error
}

// ConceptStore appends concepts. InsertConcepts returns the rows actually inserted.
type ConceptStore interface {
	InsertConcepts(ctx context.Context, concepts []domain.Concept) ([]domain.Concept, error)
	ConceptsSince(ctx context.Context, since time.Time, limit int) ([]domain.Concept, error)
}

// SubscriberStore reads and toggles subscriptions.
type SubscriberStore interface {
	ListSubscribers(ctx context.Context) ([]domain.Subscriber, error)
	EnsureSubscriber(ctx context.Context, email string) (domain.Subscriber, error)
	SetSubscriberTopics(ctx context.Context, id string, topics []string) error
}

// IdeaModel is the LLM backend behind analysis and generation.
type IdeaModel interface {
	AnalyzePainPoints(ctx context.Context, items []domain.SourceItem) ([]domain.PainPoint, error)
	GenerateConcept(ctx context.Context, painPoint string) (domain.ConceptDraft, error)
}

// Email is a transactional message.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer sends transactional email and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, email Email) (string, error)
}

// RunReporter publishes finished run summaries to an operator channel.
type RunReporter interface {
	ReportRun(ctx context.Context, summary domain.RunSummary, runErr error) error
}

// Dispatcher starts a workflow run without waiting for it.
type Dispatcher interface {
	Trigger(ctx context.Context, topic string) (string, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
