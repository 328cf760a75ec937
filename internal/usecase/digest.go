package usecase

import (
	"context"
	"fmt"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// DigestResult summarises an interval digest.
type DigestResult struct {
	Message       string            `json:"message"`
	IdeasFound    int               `json:"ideas_found"`
	EmailsSent    int               `json:"emails_sent"`
	EmailsFailed  int               `json:"emails_failed"`
	IntervalHours int               `json:"interval_hours"`
	Deliveries    []domain.Delivery `json:"deliveries"`
}

// DigestJob mails every concept created in the last interval to "all" subscribers.
type DigestJob struct {
	concepts ports.ConceptStore
	notifier *Notifier
	interval time.Duration
	clock    func() time.Time
}

// NewDigestJob builds the job; interval defaults to 24h.
func NewDigestJob(concepts ports.ConceptStore, notifier *Notifier, interval time.Duration, clock func() time.Time) *DigestJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if clock == nil {
		clock = time.Now
	}
	return &DigestJob{concepts: concepts, notifier: notifier, interval: interval, clock: clock}
}

// Run collects recent concepts and dispatches one digest per subscriber.
func (j *DigestJob) Run(ctx context.Context) (DigestResult, error) {
	hours := int(j.interval / time.Hour)
	res := DigestResult{IntervalHours: hours, Deliveries: []domain.Delivery{}}

	since := j.clock().UTC().Add(-j.interval)
	concepts, err := j.concepts.ConceptsSince(ctx, since, 0)
	if err != nil {
		return res, fmt.Errorf("load concepts: %w", err)
	}
	res.IdeasFound = len(concepts)
	if len(concepts) == 0 {
		res.Message = fmt.Sprintf("No new ideas in the last %d hour(s)", hours)
		return res, nil
	}

	report, err := j.notifier.Notify(ctx, concepts)
	if err != nil {
		return res, err
	}
	res.Message = "Email digest processed"
	res.EmailsSent = report.Sent
	res.EmailsFailed = report.Failed
	res.Deliveries = report.Deliveries
	return res, nil
}
