package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"IdeaScanner/internal/domain"
)

func TestParseAnalysis(t *testing.T) {
	t.Parallel()

	points, err := ParseAnalysis(`{"pain_points":[{"text":" Invoicing ","score":85,"source_ids":["a"]},{"text":"Hiring","score":40}]}`)
	if err != nil {
		t.Fatalf("ParseAnalysis: %v", err)
	}
	if len(points) != 2 || points[0].Text != "Invoicing" || points[0].Score != 85 {
		t.Fatalf("points = %+v", points)
	}
	if points[1].SourceIDs == nil || len(points[1].SourceIDs) != 0 {
		t.Fatalf("missing source_ids should become empty, got %v", points[1].SourceIDs)
	}
}

func TestParseAnalysisSchemaErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"markdown":      "```json\n{\"pain_points\":[]}\n```",
		"not a list":    `{"pain_points":{"text":"x"}}`,
		"missing list":  `{"points":[]}`,
		"missing text":  `{"pain_points":[{"score":5}]}`,
		"string score":  `{"pain_points":[{"text":"x","score":"high"}]}`,
		"missing score": `{"pain_points":[{"text":"x"}]}`,
		"float score":   `{"pain_points":[{"text":"x","score":7.5}]}`,
	}
	for name, body := range cases {
		if _, err := ParseAnalysis(body); !errors.Is(err, domain.ErrAnalysisSchema) {
			t.Errorf("%s: expected ErrAnalysisSchema, got %v", name, err)
		}
	}
}

func TestParseConceptSchemaErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no title":     `{"pitch":"p","target_audience":"a","score":50}`,
		"empty pitch":  `{"title":"t","pitch":"  ","target_audience":"a","score":50}`,
		"string score": `{"title":"t","pitch":"p","target_audience":"a","score":"50"}`,
		"not json":     `Sure! Here is an idea`,
	}
	for name, body := range cases {
		if _, err := ParseConcept(body); !errors.Is(err, domain.ErrGenerationSchema) {
			t.Errorf("%s: expected ErrGenerationSchema, got %v", name, err)
		}
	}
}

func TestParseConceptReportsFirstMissingField(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		_, err := ParseConcept(`{"score":50}`)
		if err == nil || !strings.HasSuffix(err.Error(), "missing title") {
			t.Fatalf("attempt %d: got %v", i, err)
		}
	}
	_, err := ParseConcept(`{"title":"t","score":50}`)
	if err == nil || !strings.HasSuffix(err.Error(), "missing pitch") {
		t.Fatalf("got %v", err)
	}
}

func TestChatGPTClientGenerateConcept(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]string{
					"role":    "assistant",
					"content": `{"title":"InvoiceBot","pitch":"Automates invoices.","target_audience":"Freelancers","score":72}`,
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewChatGPTClient(Config{Endpoint: srv.URL, Model: "gpt-4o-mini", APIKey: "sk-test", GenerateTemperature: 0.8}, nil)
	draft, err := client.GenerateConcept(context.Background(), "Invoicing is slow")
	if err != nil {
		t.Fatalf("GenerateConcept: %v", err)
	}
	if draft.Title != "InvoiceBot" || draft.Score != 72 || draft.PainPoint != "Invoicing is slow" {
		t.Fatalf("draft = %+v", draft)
	}
	if captured.ResponseFormat["type"] != "json_object" || captured.Temperature != 0.8 {
		t.Fatalf("request = %+v", captured)
	}
	if !strings.Contains(captured.Messages[1].Content, "Invoicing is slow") {
		t.Fatalf("user message = %q", captured.Messages[1].Content)
	}
}

func TestChatGPTClientHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := NewChatGPTClient(Config{Endpoint: srv.URL, Model: "m", APIKey: "k"}, nil)
	_, err := client.AnalyzePainPoints(context.Background(), nil)
	if err == nil || errors.Is(err, domain.ErrAnalysisSchema) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestAnalysisUserMessagePrefixesIDs(t *testing.T) {
	t.Parallel()

	msg := analysisUserMessage([]domain.SourceItem{{ExternalID: "abc", Title: "t", Topic: "saas"}})
	if !strings.Contains(msg, "[REDDIT_ID: abc]") || !strings.Contains(msg, "Content: No content") {
		t.Fatalf("message = %q", msg)
	}
}

func TestMockModelCitesGivenItems(t *testing.T) {
	t.Parallel()

	points, err := MockModel{}.AnalyzePainPoints(context.Background(), []domain.SourceItem{{ExternalID: "only"}})
	if err != nil {
		t.Fatalf("AnalyzePainPoints: %v", err)
	}
	for _, p := range points {
		for _, id := range p.SourceIDs {
			if id != "only" {
				t.Fatalf("mock cited unknown id %q", id)
			}
		}
	}
}
