package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"IdeaScanner/internal/domain"
)

func TestReportRunPostsMarkdown(t *testing.T) {
	t.Parallel()

	var path, chat, text, mode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		path = r.URL.Path
		chat = r.PostForm.Get("chat_id")
		text = r.PostForm.Get("text")
		mode = r.PostForm.Get("parse_mode")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	n := NewNotifier("token", "42").WithAPIBase(srv.URL)
	err := n.ReportRun(context.Background(), domain.RunSummary{
		RunID: "r1", Topic: "saas", ItemsFetched: 3, Origin: domain.OriginLive,
		PainPointsFound: 2, ConceptsGenerated: 2, ConceptsInserted: 2, EmailsSent: 1,
	}, nil)
	if err != nil {
		t.Fatalf("ReportRun: %v", err)
	}
	if path != "/bottoken/sendMessage" || chat != "42" || mode != "Markdown" {
		t.Fatalf("path=%s chat=%s mode=%s", path, chat, mode)
	}
	if !strings.Contains(text, "run done") || !strings.Contains(text, "`saas`") {
		t.Fatalf("text = %q", text)
	}
}

func TestFormatSummaryFailure(t *testing.T) {
	t.Parallel()

	text := FormatSummary(domain.RunSummary{Topic: "saas"}, errors.New("boom"))
	if !strings.Contains(text, "failed") || !strings.Contains(text, "error: boom") {
		t.Fatalf("text = %q", text)
	}
}

func TestReportRunMisconfigured(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "").ReportRun(context.Background(), domain.RunSummary{}, nil); err == nil {
		t.Fatal("expected misconfiguration error")
	}
}
