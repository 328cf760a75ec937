package usecase

import (
	"context"
	"errors"
	"fmt"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// Persister appends one concept row per draft, keyed by (run id, ordinal).
type Persister struct {
	store ports.ConceptStore
}

// NewPersister wires the concept store.
func NewPersister(store ports.ConceptStore) *Persister {
	return &Persister{store: store}
}

// Persist inserts drafts as concepts and returns the rows this call wrote.
// Re-running with the same runID writes nothing new.
func (p *Persister) Persist(ctx context.Context, runID, topic string, drafts []domain.ConceptDraft) ([]domain.Concept, error) {
	if len(drafts) == 0 {
		return []domain.Concept{}, nil
	}
	concepts := make([]domain.Concept, 0, len(drafts))
	for i, d := range drafts {
		concepts = append(concepts, domain.Concept{
			RunID:          runID,
			Ordinal:        i,
			Topic:          domain.NormalizeTopic(topic),
			Title:          d.Title,
			Pitch:          d.Pitch,
			PainPoint:      d.PainPoint,
			TargetAudience: d.TargetAudience,
			Score:          d.Score,
			SourceIDs:      d.SourceIDs,
		})
	}
	inserted, err := p.store.InsertConcepts(ctx, concepts)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if inserted == nil {
		inserted = []domain.Concept{}
	}
	return inserted, nil
}
