package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/logging"
)

type recordingReporter struct {
	mu      sync.Mutex
	reports []domain.RunSummary
	errs    []error
}

func (r *recordingReporter) ReportRun(_ context.Context, s domain.RunSummary, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, s)
	r.errs = append(r.errs, runErr)
	return nil
}

func TestLocalDispatcherTriggerRunsInBackground(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.source = staticSource()
	reporter := &recordingReporter{}
	d := NewLocalDispatcher(context.Background(), h.stages(), RetryPolicy{MaxAttempts: 1}, reporter, logging.Discard())

	runID, err := d.Trigger(context.Background(), " SaaS ")
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}
	d.Wait()

	if len(reporter.reports) != 1 || reporter.reports[0].RunID != runID || reporter.reports[0].Topic != "saas" {
		t.Fatalf("reports = %+v", reporter.reports)
	}
	if h.store.topic("saas").LastSyncedAt == nil {
		t.Fatal("background run did not stamp")
	}
}

func TestLocalDispatcherTriggerOutlivesRequestContext(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.source = staticSource()
	d := NewLocalDispatcher(context.Background(), h.stages(), RetryPolicy{MaxAttempts: 1}, nil, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := d.Trigger(ctx, "saas"); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	cancel()
	d.Wait()

	if h.store.topic("saas").LastSyncedAt == nil {
		t.Fatal("run was tied to the request context")
	}
}

func TestLocalDispatcherRejectsCancelledTrigger(t *testing.T) {
	t.Parallel()

	d := NewLocalDispatcher(context.Background(), newHarness().stages(), RetryPolicy{}, nil, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Trigger(ctx, "saas"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLocalDispatcherRunNowReportsFailure(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.source = staticSource(item("p1", "saas", h.clock))
	h.model.painPoints = []domain.PainPoint{{Text: "", Score: 10}}
	reporter := &recordingReporter{}
	d := NewLocalDispatcher(context.Background(), h.stages(), RetryPolicy{MaxAttempts: 1}, reporter, logging.Discard())

	summary, err := d.RunNow(context.Background(), "saas")
	if !errors.Is(err, domain.ErrAnalysisSchema) || summary.State != domain.StateFailed {
		t.Fatalf("summary=%+v err=%v", summary, err)
	}
	if len(reporter.errs) != 1 || reporter.errs[0] == nil {
		t.Fatalf("reporter errs = %v", reporter.errs)
	}
}

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (m *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	m.job = job
	return nil
}

func (m *manualDriver) Stop(context.Context) error {
	m.stopped = true
	return nil
}

type countingDispatcher struct {
	mu     sync.Mutex
	topics []string
}

func (c *countingDispatcher) Trigger(_ context.Context, topic string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return "run", nil
}

func TestSchedulerTriggersDefaultTopic(t *testing.T) {
	t.Parallel()

	driver := &manualDriver{}
	dispatcher := &countingDispatcher{}
	s := NewScheduler(driver, dispatcher, "", logging.Discard())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	driver.job(time.Now())
	driver.job(time.Now())
	if len(dispatcher.topics) != 2 || dispatcher.topics[0] != domain.DefaultTopic {
		t.Fatalf("topics = %v", dispatcher.topics)
	}
	if err := s.Stop(context.Background()); err != nil || !driver.stopped {
		t.Fatalf("Stop: %v stopped=%v", err, driver.stopped)
	}
}
