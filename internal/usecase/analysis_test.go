package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/logging"
)

func TestAnalyzeEmptyInputSkipsModel(t *testing.T) {
	t.Parallel()

	model := &stubModel{}
	got, err := NewAnalyzer(model, logging.Discard()).Analyze(context.Background(), nil)
	if err != nil || len(got) != 0 || got == nil {
		t.Fatalf("got %v, %v", got, err)
	}
	if model.analyzeHits != 0 {
		t.Fatal("model called for empty input")
	}
}

func TestAnalyzeValidation(t *testing.T) {
	t.Parallel()

	items := []domain.SourceItem{item("a", "saas", time.Time{}), item("b", "saas", time.Time{})}
	cases := []struct {
		name    string
		points  []domain.PainPoint
		wantErr error
		wantIDs [][]string
	}{
		{
			name:    "subset kept in order",
			points:  []domain.PainPoint{{Text: " Slow payroll ", Score: 0, SourceIDs: []string{"b", "zzz", "a", "b"}}},
			wantIDs: [][]string{{"b", "a"}},
		},
		{
			name:    "no citations",
			points:  []domain.PainPoint{{Text: "x", Score: 100}},
			wantIDs: [][]string{{}},
		},
		{name: "negative score", points: []domain.PainPoint{{Text: "x", Score: -1}}, wantErr: domain.ErrAnalysisSchema},
		{name: "blank text", points: []domain.PainPoint{{Text: "  ", Score: 10}}, wantErr: domain.ErrAnalysisSchema},
	}
	for _, tc := range cases {
		tc := tc // per-iteration copy (go 1.21 loop semantics)
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := NewAnalyzer(&stubModel{painPoints: tc.points}, logging.Discard())
			got, err := a.Analyze(context.Background(), items)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			for i, pp := range got {
				if len(pp.SourceIDs) != len(tc.wantIDs[i]) {
					t.Fatalf("ids = %v want %v", pp.SourceIDs, tc.wantIDs[i])
				}
				for j := range pp.SourceIDs {
					if pp.SourceIDs[j] != tc.wantIDs[i][j] {
						t.Fatalf("ids = %v want %v", pp.SourceIDs, tc.wantIDs[i])
					}
				}
			}
			if tc.name == "subset kept in order" && got[0].Text != "Slow payroll" {
				t.Fatalf("text not trimmed: %q", got[0].Text)
			}
		})
	}
}

func TestGenerateCopiesProvenance(t *testing.T) {
	t.Parallel()

	g := NewGenerator(&stubModel{})
	drafts, err := g.Generate(context.Background(), []domain.PainPoint{
		{Text: "Invoicing", Score: 70, SourceIDs: []string{"a"}},
		{Text: "Hiring", Score: 40},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(drafts) != 2 || drafts[0].PainPoint != "Invoicing" || drafts[0].SourceIDs[0] != "a" || drafts[1].SourceIDs == nil {
		t.Fatalf("drafts = %+v", drafts)
	}
}

func TestGenerateModelErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("rate limited")
	_, err := NewGenerator(&stubModel{generateErr: boom}).Generate(context.Background(), []domain.PainPoint{{Text: "x"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
}

func TestValidateDraft(t *testing.T) {
	t.Parallel()

	ok := domain.ConceptDraft{Title: "t", Pitch: "p", TargetAudience: "a", Score: 50}
	if err := validateDraft(ok); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}
	bad := ok
	bad.Score = 101
	if err := validateDraft(bad); !errors.Is(err, domain.ErrGenerationSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	bad = ok
	bad.TargetAudience = ""
	if err := validateDraft(bad); !errors.Is(err, domain.ErrGenerationSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}
