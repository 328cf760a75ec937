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

var _ ports.ConceptStore = (*Store)(nil)

var conceptColumns = []string{
	"id", "run_id", "ordinal", "topic", "title", "pitch", "pain_point",
	"target_audience", "score", "source_ids", "created_at",
}

// InsertConcepts appends concepts in one transaction. Rows whose (run_id, ordinal)
// already exist are skipped, so a retried step never duplicates. Only the rows
// written by this call are returned.
func (s *Store) InsertConcepts(ctx context.Context, concepts []domain.Concept) ([]domain.Concept, error) {
	if len(concepts) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	created := s.now().UTC()
	inserted := make([]domain.Concept, 0, len(concepts))
	for _, c := range concepts {
		query, args, err := s.sb.Insert("concepts").
			Columns(conceptColumns[1:]...).
			Values(c.RunID, c.Ordinal, domain.NormalizeTopic(c.Topic), c.Title, c.Pitch, c.PainPoint,
				c.TargetAudience, c.Score, s.d.listValue(c.SourceIDs), s.d.timeValue(created)).
			Suffix("ON CONFLICT (run_id, ordinal) DO NOTHING RETURNING id").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: build insert: %v", domain.ErrPersistence, err)
		}
		var id int64
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: insert concept %d: %v", domain.ErrPersistence, c.Ordinal, err)
		}
		c.ID = id
		c.Topic = domain.NormalizeTopic(c.Topic)
		c.CreatedAt = created
		inserted = append(inserted, c)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return inserted, nil
}

// ConceptsSince lists concepts created at or after since, newest first.
func (s *Store) ConceptsSince(ctx context.Context, since time.Time, limit int) ([]domain.Concept, error) {
	b := s.sb.Select(conceptColumns...).From("concepts").OrderBy("created_at DESC", "id DESC")
	if !since.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": s.d.timeValue(since)})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return s.listConcepts(ctx, b)
}

// ConceptsByRun lists the rows written by one workflow run in ordinal order.
func (s *Store) ConceptsByRun(ctx context.Context, runID string) ([]domain.Concept, error) {
	return s.listConcepts(ctx, s.sb.Select(conceptColumns...).From("concepts").
		Where(sq.Eq{"run_id": runID}).OrderBy("ordinal"))
}

func (s *Store) listConcepts(ctx context.Context, b sq.SelectBuilder) ([]domain.Concept, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	return collect(rows, s.scanConcept)
}

func (s *Store) scanConcept(row rowScanner) (domain.Concept, error) {
	var (
		c       domain.Concept
		created dbTime
	)
	err := row.Scan(&c.ID, &c.RunID, &c.Ordinal, &c.Topic, &c.Title, &c.Pitch, &c.PainPoint,
		&c.TargetAudience, &c.Score, s.d.listDest(&c.SourceIDs), &created)
	if err != nil {
		return domain.Concept{}, fmt.Errorf("scan concept: %w", err)
	}
	c.CreatedAt = created.Time
	return c, nil
}
