package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"IdeaScanner/internal/domain"
)

type rawPainPoint struct {
	Text      *string  `json:"text"`
	Score     *float64 `json:"score"`
	SourceIDs []string `json:"source_ids"`
}

type rawAnalysis struct {
	PainPoints *[]rawPainPoint `json:"pain_points"`
}

// ParseAnalysis decodes an analysis response. Anything but pure JSON with the
// expected shape is an ErrAnalysisSchema; entries are never silently dropped.
func ParseAnalysis(content string) ([]domain.PainPoint, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisSchema, err)
	}
	if raw.PainPoints == nil {
		return nil, fmt.Errorf("%w: pain_points must be an array", domain.ErrAnalysisSchema)
	}

	out := make([]domain.PainPoint, 0, len(*raw.PainPoints))
	for i, pp := range *raw.PainPoints {
		if pp.Text == nil || strings.TrimSpace(*pp.Text) == "" {
			return nil, fmt.Errorf("%w: pain point %d has no text", domain.ErrAnalysisSchema, i)
		}
		score, err := wholeScore(pp.Score)
		if err != nil {
			return nil, fmt.Errorf("%w: pain point %d: %v", domain.ErrAnalysisSchema, i, err)
		}
		ids := pp.SourceIDs
		if ids == nil {
			ids = []string{}
		}
		out = append(out, domain.PainPoint{Text: strings.TrimSpace(*pp.Text), Score: score, SourceIDs: ids})
	}
	return out, nil
}

type rawConcept struct {
	Title          *string  `json:"title"`
	Pitch          *string  `json:"pitch"`
	TargetAudience *string  `json:"target_audience"`
	Score          *float64 `json:"score"`
}

// ParseConcept decodes a generation response into a draft. Missing or
// wrong-typed fields are an ErrGenerationSchema.
func ParseConcept(content string) (domain.ConceptDraft, error) {
	var raw rawConcept
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return domain.ConceptDraft{}, fmt.Errorf("%w: %v", domain.ErrGenerationSchema, err)
	}
	required := []struct {
		name  string
		value *string
	}{
		{"title", raw.Title},
		{"pitch", raw.Pitch},
		{"target_audience", raw.TargetAudience},
	}
	for _, f := range required {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			return domain.ConceptDraft{}, fmt.Errorf("%w: missing %s", domain.ErrGenerationSchema, f.name)
		}
	}
	score, err := wholeScore(raw.Score)
	if err != nil {
		return domain.ConceptDraft{}, fmt.Errorf("%w: %v", domain.ErrGenerationSchema, err)
	}
	return domain.ConceptDraft{
		Title:          strings.TrimSpace(*raw.Title),
		Pitch:          strings.TrimSpace(*raw.Pitch),
		TargetAudience: strings.TrimSpace(*raw.TargetAudience),
		Score:          score,
	}, nil
}

func wholeScore(v *float64) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("missing score")
	}
	if *v != math.Trunc(*v) {
		return 0, fmt.Errorf("score %v is not a whole number", *v)
	}
	return int(*v), nil
}
