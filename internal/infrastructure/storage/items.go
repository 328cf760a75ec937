package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

var _ ports.ItemStore = (*Store)(nil)

var itemColumns = []string{"external_id", "topic", "title", "body", "payload", "fetched_at"}

// UpsertItems writes items keyed by external id. Existing rows take the newer fetch.
func (s *Store) UpsertItems(ctx context.Context, items []domain.SourceItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert items: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range items {
		payload := string(it.Payload)
		if payload == "" {
			payload = "{}"
		}
		var body any
		if it.Body != nil {
			body = *it.Body
		}
		_, err := s.exec(ctx, tx, s.sb.Insert("source_items").
			Columns(itemColumns...).
			Values(it.ExternalID, domain.NormalizeTopic(it.Topic), it.Title, body, payload, s.d.timeValue(it.FetchedAt)).
			Suffix(`ON CONFLICT (external_id) DO UPDATE SET topic = excluded.topic, title = excluded.title,
body = excluded.body, payload = excluded.payload, fetched_at = excluded.fetched_at`))
		if err != nil {
			return fmt.Errorf("upsert item %s: %w", it.ExternalID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert items: %w", err)
	}
	return nil
}

// FreshItems returns items for topic fetched at or after since, newest first.
func (s *Store) FreshItems(ctx context.Context, topic string, since time.Time) ([]domain.SourceItem, error) {
	rows, err := s.query(ctx, s.sb.Select(itemColumns...).From("source_items").
		Where(sq.Eq{"topic": domain.NormalizeTopic(topic)}).
		Where(sq.GtOrEq{"fetched_at": s.d.timeValue(since)}).
		OrderBy("fetched_at DESC", "external_id"))
	if err != nil {
		return nil, fmt.Errorf("fresh items: %w", err)
	}
	return collect(rows, scanItem)
}

// RecentItems returns up to limit items regardless of age. An empty topic spans all topics.
func (s *Store) RecentItems(ctx context.Context, topic string, limit int) ([]domain.SourceItem, error) {
	b := s.sb.Select(itemColumns...).From("source_items").OrderBy("fetched_at DESC", "external_id")
	if topic != "" {
		b = b.Where(sq.Eq{"topic": domain.NormalizeTopic(topic)})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("recent items: %w", err)
	}
	return collect(rows, scanItem)
}

func scanItem(row rowScanner) (domain.SourceItem, error) {
	var (
		it      domain.SourceItem
		body    sql.NullString
		payload []byte
		fetched dbTime
	)
	if err := row.Scan(&it.ExternalID, &it.Topic, &it.Title, &body, &payload, &fetched); err != nil {
		return domain.SourceItem{}, fmt.Errorf("scan item: %w", err)
	}
	if body.Valid {
		text := body.String
		it.Body = &text
	}
	it.Payload = payload
	it.FetchedAt = fetched.Time
	return it, nil
}
