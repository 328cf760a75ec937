package usecase

import (
	"context"
	"log/slog"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// Scheduler wires the cron driver with the dispatcher for the default topic.
type Scheduler struct {
	driver     ports.Scheduler
	dispatcher ports.Dispatcher
	topic      string
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, dispatcher ports.Dispatcher, topic string, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{driver: driver, dispatcher: dispatcher, topic: domain.NormalizeTopic(topic), logger: log}
}

// Start registers the trigger with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.dispatcher == nil {
		return nil
	}

	job := func(trigger time.Time) {
		runID, err := s.dispatcher.Trigger(ctx, s.topic)
		if err != nil {
			s.logger.Error("scheduled trigger failed", "topic", s.topic, "err", err)
			return
		}
		s.logger.Info("scheduled run triggered", "topic", s.topic, "run_id", runID, "at", trigger)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
