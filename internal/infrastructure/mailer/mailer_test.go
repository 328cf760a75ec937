package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"IdeaScanner/internal/logging"
	"IdeaScanner/internal/ports"
)

func TestResendMailerSend(t *testing.T) {
	t.Parallel()

	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer re_test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	t.Cleanup(srv.Close)

	id, err := NewResendMailer(srv.URL, "re_test").Send(context.Background(), ports.Email{
		From: "a@b.c", To: "founder@example.com", Subject: "hi", HTML: "<p>x</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("id = %q", id)
	}
	if len(got.To) != 1 || got.To[0] != "founder@example.com" || got.Subject != "hi" {
		t.Fatalf("request = %+v", got)
	}
}

func TestResendMailerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid to"}`, http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	_, err := NewResendMailer(srv.URL, "re_test").Send(context.Background(), ports.Email{To: "x"})
	if err == nil || !strings.Contains(err.Error(), "invalid to") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestLogMailerLogsPreview(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := NewLogMailer(logging.NewWithWriter(&buf, "info", "text"))
	id, err := m.Send(context.Background(), ports.Email{To: "x@y.z", Subject: "Digest", HTML: "<h1>Hello</h1><p>World</p>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(id, "log-") {
		t.Fatalf("id = %q", id)
	}
	if !strings.Contains(buf.String(), "Hello") || !strings.Contains(buf.String(), "Digest") {
		t.Fatalf("log output = %s", buf.String())
	}
}

func TestPreviewTruncates(t *testing.T) {
	t.Parallel()

	long := "<p>" + strings.Repeat("a", 300) + "</p>"
	got := Preview(long)
	if len([]rune(got)) != previewLength+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("preview length = %d", len([]rune(got)))
	}
}
