package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

var _ ports.SubscriberStore = (*Store)(nil)

var subscriberColumns = []string{"id", "email", "topics", "created_at", "updated_at"}

// ListSubscribers returns every subscriber ordered by creation time.
func (s *Store) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := s.query(ctx, s.sb.Select(subscriberColumns...).From("subscribers").OrderBy("created_at", "email"))
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return collect(rows, s.scanSubscriber)
}

// EnsureSubscriber returns the subscriber for email, creating it with no topics.
func (s *Store) EnsureSubscriber(ctx context.Context, email string) (domain.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return getOrCreate(ctx,
		func(ctx context.Context) (domain.Subscriber, error) { return s.subscriberByEmail(ctx, email) },
		func(ctx context.Context) error {
			now := s.d.timeValue(s.now())
			_, err := s.exec(ctx, s.db, s.sb.Insert("subscribers").
				Columns(subscriberColumns...).
				Values(uuid.NewString(), email, s.d.listValue(nil), now, now).
				Suffix("ON CONFLICT (email) DO NOTHING"))
			if err != nil {
				return fmt.Errorf("insert subscriber: %w", err)
			}
			return nil
		})
}

// SetSubscriberTopics replaces the topic tags of one subscriber.
func (s *Store) SetSubscriberTopics(ctx context.Context, id string, topics []string) error {
	res, err := s.exec(ctx, s.db, s.sb.Update("subscribers").
		Set("topics", s.d.listValue(topics)).
		Set("updated_at", s.d.timeValue(s.now())).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("update subscriber topics: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("subscriber %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) subscriberByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	row, err := s.queryRow(ctx, s.sb.Select(subscriberColumns...).From("subscribers").Where(sq.Eq{"email": email}))
	if err != nil {
		return domain.Subscriber{}, err
	}
	sub, err := s.scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subscriber{}, fmt.Errorf("subscriber %s: %w", email, domain.ErrNotFound)
	}
	return sub, err
}

func (s *Store) scanSubscriber(row rowScanner) (domain.Subscriber, error) {
	var (
		sub          domain.Subscriber
		created, upd dbTime
	)
	if err := row.Scan(&sub.ID, &sub.Email, s.d.listDest(&sub.Topics), &created, &upd); err != nil {
		return domain.Subscriber{}, err
	}
	sub.CreatedAt = created.Time
	sub.UpdatedAt = upd.Time
	return sub, nil
}
