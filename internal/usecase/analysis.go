package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// Analyzer turns items into validated pain points.
type Analyzer struct {
	model  ports.IdeaModel
	logger *slog.Logger
}

// NewAnalyzer wires the model backend.
func NewAnalyzer(model ports.IdeaModel, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{model: model, logger: log}
}

// Analyze returns pain points whose source ids are a subset of the input ids.
// Ids the model invented are dropped with a warning; a missing text or an
// out-of-range score fails the stage with ErrAnalysisSchema.
func (a *Analyzer) Analyze(ctx context.Context, items []domain.SourceItem) ([]domain.PainPoint, error) {
	if len(items) == 0 {
		return []domain.PainPoint{}, nil
	}
	raw, err := a.model.AnalyzePainPoints(ctx, items)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(items))
	for _, it := range items {
		known[it.ExternalID] = struct{}{}
	}

	out := make([]domain.PainPoint, 0, len(raw))
	for i, pp := range raw {
		text := strings.TrimSpace(pp.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: pain point %d has no text", domain.ErrAnalysisSchema, i)
		}
		if pp.Score < domain.MinScore || pp.Score > domain.MaxScore {
			return nil, fmt.Errorf("%w: pain point %d score %d outside [%d,%d]",
				domain.ErrAnalysisSchema, i, pp.Score, domain.MinScore, domain.MaxScore)
		}

		ids := make([]string, 0, len(pp.SourceIDs))
		seen := map[string]struct{}{}
		for _, id := range pp.SourceIDs {
			if _, ok := known[id]; !ok {
				a.logger.Warn("dropping unknown source id", "pain_point", i, "source_id", id)
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		out = append(out, domain.PainPoint{Text: text, Score: pp.Score, SourceIDs: ids})
	}
	return out, nil
}
