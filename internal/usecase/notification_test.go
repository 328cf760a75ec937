package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/logging"
)

type failingSubscribers struct{ *memStore }

func (failingSubscribers) ListSubscribers(context.Context) ([]domain.Subscriber, error) {
	return nil, errors.New("connection reset")
}

func TestNotifyNoConceptsSkipsSubscribers(t *testing.T) {
	t.Parallel()

	n := NewNotifier(NotifierDeps{Subscribers: failingSubscribers{newMemStore()}, Mailer: &recordingMailer{}})
	report, err := n.Notify(context.Background(), nil)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if report.Sent != 0 || report.Deliveries == nil {
		t.Fatalf("report = %+v", report)
	}
}

func TestNotifyListFailureIsReturned(t *testing.T) {
	t.Parallel()

	n := NewNotifier(NotifierDeps{Subscribers: failingSubscribers{newMemStore()}, Mailer: &recordingMailer{}, Logger: logging.Discard()})
	_, err := n.Notify(context.Background(), []domain.Concept{{Title: "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNotifyRecordsEveryDelivery(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"} {
		store.subscribers = append(store.subscribers, domain.Subscriber{
			ID: string(rune('1' + i)), Email: email, Topics: []string{"all"},
		})
	}
	mailer := &recordingMailer{failTo: map[string]bool{"b@example.com": true, "d@example.com": true}}
	n := NewNotifier(NotifierDeps{Subscribers: store, Mailer: mailer, From: "ideas@example.com", Concurrency: 2, Logger: logging.Discard()})

	report, err := n.Notify(context.Background(), []domain.Concept{{Title: "A", Score: 80}})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if report.Sent != 2 || report.Failed != 2 || len(report.Deliveries) != 4 {
		t.Fatalf("report = %+v", report)
	}
	for i, d := range report.Deliveries {
		if d.Email != store.subscribers[i].Email {
			t.Fatalf("delivery %d out of order: %+v", i, d)
		}
		if d.Sent == (d.Error != "") {
			t.Fatalf("delivery %d inconsistent: %+v", i, d)
		}
		if d.Sent && d.MessageID == "" {
			t.Fatalf("delivery %d missing message id", i)
		}
	}
	for _, e := range mailer.sent {
		if e.From != "ideas@example.com" || e.Subject != "Your Daily Idea Digest - 1 New Ideas" {
			t.Fatalf("email = %+v", e)
		}
	}
}

func TestDigestHTMLEscapesAndShowsScale(t *testing.T) {
	t.Parallel()

	html, err := BuildDigestHTML([]domain.Concept{
		{Title: "<script>alert(1)</script>", Pitch: "Tom & Jerry", PainPoint: "pain", Score: 85},
		{Title: "Quiet", Pitch: "p", PainPoint: "q", Score: 20},
	}, "saas")
	if err != nil {
		t.Fatalf("BuildDigestHTML: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("title was not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") || !strings.Contains(html, "Tom &amp; Jerry") {
		t.Fatalf("escaped text missing:\n%s", html)
	}
	for _, want := range []string{"85/100 (strong)", "20/100 (weak)", "2 new ideas", "saas"} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in:\n%s", want, html)
		}
	}
}

func TestConfirmationEmail(t *testing.T) {
	t.Parallel()

	on, err := BuildConfirmationHTML(true, "saas")
	if err != nil {
		t.Fatal(err)
	}
	off, err := BuildConfirmationHTML(false, "saas")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(on, "subscribed!") || !strings.Contains(off, "unsubscribed") {
		t.Fatalf("unexpected bodies:\n%s\n%s", on, off)
	}
	if ConfirmationSubject(true) == ConfirmationSubject(false) {
		t.Fatal("subjects should differ")
	}
}

func TestDigestJob(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.subscribers = []domain.Subscriber{{ID: "s1", Email: "all@example.com", Topics: []string{"all"}}}
	mailer := &recordingMailer{}
	n := NewNotifier(NotifierDeps{Subscribers: store, Mailer: mailer, Logger: logging.Discard()})
	job := NewDigestJob(store, n, 24*time.Hour, func() time.Time { return now })

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.IdeasFound != 0 || res.Message != "No new ideas in the last 24 hour(s)" || len(mailer.sent) != 0 {
		t.Fatalf("empty digest = %+v", res)
	}

	store.concepts = []domain.Concept{
		{ID: 1, Title: "old", Score: 50, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: 2, Title: "new", Score: 60, CreatedAt: now.Add(-time.Hour)},
	}
	res, err = job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.IdeasFound != 1 || res.EmailsSent != 1 || res.IntervalHours != 24 {
		t.Fatalf("digest = %+v", res)
	}
	if !strings.Contains(mailer.sent[0].HTML, "new") || strings.Contains(mailer.sent[0].HTML, ">old<") {
		t.Fatal("digest should only contain the recent concept")
	}
}
