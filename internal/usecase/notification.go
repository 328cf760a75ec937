package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// NotifierDeps wires the digest dispatcher.
type NotifierDeps struct {
	Subscribers ports.SubscriberStore
	Mailer      ports.Mailer
	From        string
	Concurrency int
	Logger      *slog.Logger
}

// Notifier sends one digest per "all" subscriber. Deliveries are never retried.
type Notifier struct {
	subscribers ports.SubscriberStore
	mailer      ports.Mailer
	from        string
	concurrency int
	logger      *slog.Logger
}

// NewNotifier builds the notification stage.
func NewNotifier(deps NotifierDeps) *Notifier {
	n := &Notifier{
		subscribers: deps.Subscribers,
		mailer:      deps.Mailer,
		from:        deps.From,
		concurrency: deps.Concurrency,
		logger:      deps.Logger,
	}
	if n.concurrency <= 0 {
		n.concurrency = 8
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// Notify fans out one send per subscriber and joins before reporting. Only a
// failure to list subscribers is returned as an error.
func (n *Notifier) Notify(ctx context.Context, concepts []domain.Concept) (domain.NotifyReport, error) {
	report := domain.NotifyReport{Deliveries: []domain.Delivery{}}
	if len(concepts) == 0 {
		return report, nil
	}

	all, err := n.subscribers.ListSubscribers(ctx)
	if err != nil {
		return report, fmt.Errorf("list subscribers: %w", err)
	}
	var targets []domain.Subscriber
	for _, s := range all {
		if s.WantsAll() {
			targets = append(targets, s)
		}
	}
	if len(targets) == 0 {
		n.logger.Info("no subscribers to notify", "concepts", len(concepts))
		return report, nil
	}

	html, err := BuildDigestHTML(concepts, "")
	if err != nil {
		return report, err
	}
	subject := DigestSubject(len(concepts))

	deliveries := make([]domain.Delivery, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	for i, sub := range targets {
		i, sub := i, sub // per-iteration copies (go 1.21 loop semantics)
		g.Go(func() error {
			d := domain.Delivery{SubscriberID: sub.ID, Email: sub.Email}
			id, err := n.mailer.Send(gctx, ports.Email{From: n.from, To: sub.Email, Subject: subject, HTML: html})
			if err != nil {
				d.Error = err.Error()
				n.logger.Warn("digest delivery failed", "subscriber", sub.ID, "err", err)
			} else {
				d.Sent = true
				d.MessageID = id
			}
			deliveries[i] = d
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range deliveries {
		if d.Sent {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	report.Deliveries = deliveries
	return report, nil
}
