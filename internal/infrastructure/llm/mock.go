package llm

import (
	"context"
	"fmt"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// MockModel returns canned, schema-valid output without network access.
type MockModel struct{}

var _ ports.IdeaModel = MockModel{}

// AnalyzePainPoints cites the first items it was given.
func (MockModel) AnalyzePainPoints(ctx context.Context, items []domain.SourceItem) ([]domain.PainPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := domain.ItemIDs(items)
	cite := func(n int) []string {
		if n > len(ids) {
			n = len(ids)
		}
		return append([]string{}, ids[:n]...)
	}
	return []domain.PainPoint{
		{Text: "Slow, unreliable wifi makes remote work frustrating", Score: 80, SourceIDs: cite(2)},
		{Text: "Manual data entry between tools eats hours every week", Score: 70, SourceIDs: cite(2)},
		{Text: "Small teams lack integrations between their SaaS tools", Score: 60, SourceIDs: cite(1)},
	}, nil
}

// GenerateConcept echoes the pain point into a fixed template.
func (MockModel) GenerateConcept(ctx context.Context, painPoint string) (domain.ConceptDraft, error) {
	if err := ctx.Err(); err != nil {
		return domain.ConceptDraft{}, err
	}
	return domain.ConceptDraft{
		Title:          "Mock SaaS Product",
		Pitch:          fmt.Sprintf("A mock product that solves the pain point: %s", painPoint),
		TargetAudience: "Remote workers and digital nomads",
		Score:          70,
		PainPoint:      painPoint,
	}, nil
}
