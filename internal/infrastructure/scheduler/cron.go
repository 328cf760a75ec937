package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"IdeaScanner/internal/ports"
)

// CronScheduler runs a job on a standard five-field cron expression.
type CronScheduler struct {
	spec   string
	loc    *time.Location
	logger *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler validates spec and binds it to a timezone.
func NewCronScheduler(spec string, loc *time.Location, log *slog.Logger) (*CronScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &CronScheduler{spec: spec, loc: loc, logger: log}, nil
}

// Start registers job and begins ticking until ctx is done or Stop is called.
// Overlapping firings are skipped while a previous job is still running.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	adapter := cronLogger{c.logger}
	cr := cron.New(
		cron.WithLocation(c.loc),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	if _, err := cr.AddFunc(c.spec, func() { job(time.Now().In(c.loc)) }); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	cr.Start()
	c.cron = cr

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop halts ticking and waits for a running job, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()
	if cr == nil {
		return nil
	}

	done := cr.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports the next firing after t.
func (c *CronScheduler) Next(t time.Time) time.Time {
	sched, err := cron.ParseStandard(c.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(t.In(c.loc))
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
