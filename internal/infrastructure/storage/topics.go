package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

var _ ports.TopicStore = (*Store)(nil)

var topicColumns = []string{"name", "category", "last_synced_at", "created_at", "updated_at"}

// EnsureTopic returns the topic row, creating it on first use.
func (s *Store) EnsureTopic(ctx context.Context, name string) (domain.Topic, error) {
	name = domain.NormalizeTopic(name)
	return getOrCreate(ctx,
		func(ctx context.Context) (domain.Topic, error) { return s.GetTopic(ctx, name) },
		func(ctx context.Context) error {
			now := s.d.timeValue(s.now())
			_, err := s.exec(ctx, s.db, s.sb.Insert("topics").
				Columns("name", "category", "created_at", "updated_at").
				Values(name, "", now, now).
				Suffix("ON CONFLICT (name) DO NOTHING"))
			if err != nil {
				return fmt.Errorf("insert topic %s: %w", name, err)
			}
			return nil
		})
}

// GetTopic reads a topic by name. Missing rows yield domain.ErrNotFound.
func (s *Store) GetTopic(ctx context.Context, name string) (domain.Topic, error) {
	name = domain.NormalizeTopic(name)
	row, err := s.queryRow(ctx, s.sb.Select(topicColumns...).From("topics").Where(sq.Eq{"name": name}))
	if err != nil {
		return domain.Topic{}, err
	}
	topic, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Topic{}, fmt.Errorf("topic %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("get topic %s: %w", name, err)
	}
	return topic, nil
}

// ListTopics returns every tracked topic ordered by name.
func (s *Store) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	rows, err := s.query(ctx, s.sb.Select(topicColumns...).From("topics").OrderBy("name"))
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return collect(rows, scanTopic)
}

// StampTopic upserts the topic and moves last_synced_at forward. Older stamps are ignored.
func (s *Store) StampTopic(ctx context.Context, name string, at time.Time) error {
	name = domain.NormalizeTopic(name)
	stamp := s.d.timeValue(at)
	now := s.d.timeValue(s.now())
	_, err := s.exec(ctx, s.db, s.sb.Insert("topics").
		Columns("name", "category", "last_synced_at", "created_at", "updated_at").
		Values(name, "", stamp, now, now).
		Suffix(`ON CONFLICT (name) DO UPDATE SET last_synced_at = excluded.last_synced_at, updated_at = excluded.updated_at
WHERE topics.last_synced_at IS NULL OR topics.last_synced_at < excluded.last_synced_at`))
	if err != nil {
		return fmt.Errorf("stamp topic %s: %w", name, err)
	}
	return nil
}

// UpdateTopicSynced is the plain UPDATE used when the upsert path fails.
func (s *Store) UpdateTopicSynced(ctx context.Context, name string, at time.Time) error {
	name = domain.NormalizeTopic(name)
	stamp := s.d.timeValue(at)
	res, err := s.exec(ctx, s.db, s.sb.Update("topics").
		Set("last_synced_at", stamp).
		Set("updated_at", s.d.timeValue(s.now())).
		Where(sq.Eq{"name": name}).
		Where(sq.Or{sq.Eq{"last_synced_at": nil}, sq.LtOrEq{"last_synced_at": stamp}}))
	if err != nil {
		return fmt.Errorf("update topic %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := s.GetTopic(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func scanTopic(row rowScanner) (domain.Topic, error) {
	var (
		t                   domain.Topic
		synced, created, up dbTime
	)
	if err := row.Scan(&t.Name, &t.Category, &synced, &created, &up); err != nil {
		return domain.Topic{}, err
	}
	t.LastSyncedAt = synced.ptr()
	t.CreatedAt = created.Time
	t.UpdatedAt = up.Time
	return t, nil
}
