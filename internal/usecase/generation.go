package usecase

import (
	"context"
	"fmt"
	"strings"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// Generator turns pain points into concept drafts, one model call each.
type Generator struct {
	model ports.IdeaModel
}

// NewGenerator wires the model backend.
func NewGenerator(model ports.IdeaModel) *Generator {
	return &Generator{model: model}
}

// Generate runs sequentially; the first failure aborts the batch so a run
// persists all of its concepts or none.
func (g *Generator) Generate(ctx context.Context, painPoints []domain.PainPoint) ([]domain.ConceptDraft, error) {
	drafts := make([]domain.ConceptDraft, 0, len(painPoints))
	for i, pp := range painPoints {
		draft, err := g.model.GenerateConcept(ctx, pp.Text)
		if err != nil {
			return nil, fmt.Errorf("pain point %d: %w", i, err)
		}
		if err := validateDraft(draft); err != nil {
			return nil, fmt.Errorf("pain point %d: %w", i, err)
		}
		draft.PainPoint = pp.Text
		draft.SourceIDs = append([]string{}, pp.SourceIDs...)
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

func validateDraft(d domain.ConceptDraft) error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return fmt.Errorf("%w: missing title", domain.ErrGenerationSchema)
	case strings.TrimSpace(d.Pitch) == "":
		return fmt.Errorf("%w: missing pitch", domain.ErrGenerationSchema)
	case strings.TrimSpace(d.TargetAudience) == "":
		return fmt.Errorf("%w: missing target_audience", domain.ErrGenerationSchema)
	case d.Score < domain.MinScore || d.Score > domain.MaxScore:
		return fmt.Errorf("%w: score %d outside [%d,%d]", domain.ErrGenerationSchema, d.Score, domain.MinScore, domain.MaxScore)
	}
	return nil
}
