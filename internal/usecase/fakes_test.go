package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
	"IdeaScanner/internal/scanner"
)

// memStore is an in-memory implementation of every store port.
type memStore struct {
	mu          sync.Mutex
	items       map[string]domain.SourceItem
	topics      map[string]domain.Topic
	concepts    []domain.Concept
	subscribers []domain.Subscriber
	upserts     int

	stampErr    error
	updateErr   error
	insertErr   error
	stampCalls  int
	updateCalls int
}

func newMemStore() *memStore {
	return &memStore{items: map[string]domain.SourceItem{}, topics: map[string]domain.Topic{}}
}

func (m *memStore) FreshItems(_ context.Context, topic string, since time.Time) ([]domain.SourceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SourceItem
	for _, it := range m.items {
		if it.Topic == topic && !it.FetchedAt.Before(since) {
			out = append(out, it)
		}
	}
	sortItems(out)
	return out, nil
}

func (m *memStore) RecentItems(_ context.Context, topic string, limit int) ([]domain.SourceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SourceItem
	for _, it := range m.items {
		if topic == "" || it.Topic == topic {
			out = append(out, it)
		}
	}
	sortItems(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpsertItems(_ context.Context, items []domain.SourceItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	for _, it := range items {
		m.items[it.ExternalID] = it
	}
	return nil
}

func sortItems(items []domain.SourceItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].FetchedAt.Equal(items[j].FetchedAt) {
			return items[i].FetchedAt.After(items[j].FetchedAt)
		}
		return items[i].ExternalID < items[j].ExternalID
	})
}

func (m *memStore) EnsureTopic(_ context.Context, name string) (domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = domain.NormalizeTopic(name)
	if t, ok := m.topics[name]; ok {
		return t, nil
	}
	t := domain.Topic{Name: name}
	m.topics[name] = t
	return t, nil
}

func (m *memStore) GetTopic(_ context.Context, name string) (domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[domain.NormalizeTopic(name)]
	if !ok {
		return domain.Topic{}, domain.ErrNotFound
	}
	return t, nil
}

func (m *memStore) StampTopic(_ context.Context, name string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stampCalls++
	if m.stampErr != nil {
		return m.stampErr
	}
	t := m.topics[name]
	t.Name = name
	if t.LastSyncedAt == nil || t.LastSyncedAt.Before(at) {
		t.LastSyncedAt = &at
	}
	m.topics[name] = t
	return nil
}

func (m *memStore) UpdateTopicSynced(_ context.Context, name string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	t, ok := m.topics[name]
	if !ok {
		return domain.ErrNotFound
	}
	t.LastSyncedAt = &at
	m.topics[name] = t
	return nil
}

func (m *memStore) InsertConcepts(_ context.Context, concepts []domain.Concept) ([]domain.Concept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	var inserted []domain.Concept
	for _, c := range concepts {
		dup := false
		for _, existing := range m.concepts {
			if existing.RunID == c.RunID && existing.Ordinal == c.Ordinal {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		c.ID = int64(len(m.concepts) + 1)
		m.concepts = append(m.concepts, c)
		inserted = append(inserted, c)
	}
	return inserted, nil
}

func (m *memStore) ConceptsSince(_ context.Context, since time.Time, limit int) ([]domain.Concept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Concept
	for _, c := range m.concepts {
		if !c.CreatedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) ListSubscribers(context.Context) ([]domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Subscriber(nil), m.subscribers...), nil
}

func (m *memStore) EnsureSubscriber(_ context.Context, email string) (domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscribers {
		if s.Email == email {
			return s, nil
		}
	}
	s := domain.Subscriber{ID: fmt.Sprintf("sub-%d", len(m.subscribers)+1), Email: email}
	m.subscribers = append(m.subscribers, s)
	return s, nil
}

func (m *memStore) SetSubscriberTopics(_ context.Context, id string, topics []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subscribers {
		if m.subscribers[i].ID == id {
			m.subscribers[i].Topics = topics
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) topic(name string) domain.Topic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topics[name]
}

var (
	_ ports.ItemStore       = (*memStore)(nil)
	_ ports.TopicStore      = (*memStore)(nil)
	_ ports.ConceptStore    = (*memStore)(nil)
	_ ports.SubscriberStore = (*memStore)(nil)
)

// stubScanner returns canned results and counts calls.
type stubScanner struct {
	name  string
	items []domain.SourceItem
	err   error
	calls int
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(context.Context, scanner.Request) ([]domain.SourceItem, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.SourceItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

// stubModel is a scripted IdeaModel.
type stubModel struct {
	mu          sync.Mutex
	painPoints  []domain.PainPoint
	analyzeErrs []error
	drafts      map[string]domain.ConceptDraft
	generateErr error
	analyzeHits int
}

func (m *stubModel) AnalyzePainPoints(context.Context, []domain.SourceItem) ([]domain.PainPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzeHits++
	if len(m.analyzeErrs) > 0 {
		err := m.analyzeErrs[0]
		m.analyzeErrs = m.analyzeErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.painPoints, nil
}

func (m *stubModel) GenerateConcept(_ context.Context, painPoint string) (domain.ConceptDraft, error) {
	if m.generateErr != nil {
		return domain.ConceptDraft{}, m.generateErr
	}
	if d, ok := m.drafts[painPoint]; ok {
		return d, nil
	}
	return domain.ConceptDraft{Title: "Idea for " + painPoint, Pitch: "pitch", TargetAudience: "founders", Score: 60}, nil
}

// recordingMailer fails for configured addresses.
type recordingMailer struct {
	mu     sync.Mutex
	sent   []ports.Email
	failTo map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, email ports.Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[email.To] {
		return "", errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, email)
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}

func item(id, topic string, fetched time.Time) domain.SourceItem {
	return domain.SourceItem{ExternalID: id, Topic: topic, Title: "title " + id, FetchedAt: fetched}
}
