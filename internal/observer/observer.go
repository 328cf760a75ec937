package observer

import (
	"context"
	"log/slog"
	"time"
)

// Event is one observation of a topic.
type Event struct {
	Topic    string
	State    State
	Baseline *time.Time
	Value    *time.Time
	At       time.Time
	Err      error
}

// Options tune the observer. Zero values use the package defaults.
type Options struct {
	Timeout time.Duration
	Clock   func() time.Time
	Logger  *slog.Logger
	// Wait blocks for d or until ctx ends. Tests replace it to advance a fake clock.
	Wait func(ctx context.Context, d time.Duration) error
}

// Observer polls a Reader on behalf of one client.
type Observer struct {
	reader  Reader
	timeout time.Duration
	clock   func() time.Time
	wait    func(context.Context, time.Duration) error
	logger  *slog.Logger
}

// New builds an observer over reader.
func New(reader Reader, opts Options) *Observer {
	o := &Observer{reader: reader, timeout: opts.Timeout, clock: opts.Clock, wait: opts.Wait, logger: opts.Logger}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.wait == nil {
		o.wait = waitCtx
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Baseline reads the value to hand to Watch before triggering a sync.
func (o *Observer) Baseline(ctx context.Context, topic string) (*time.Time, error) {
	return o.reader.LastSynced(ctx, topic)
}

// Watch polls until the run is seen complete or the timeout passes and
// returns that single terminal event. progress, if set, sees every
// non-terminal poll. A cancelled ctx returns its error.
func (o *Observer) Watch(ctx context.Context, topic string, baseline *time.Time, progress func(Event)) (Event, error) {
	tracker := NewTracker(o.timeout)
	tracker.Begin(baseline, o.clock())

	for {
		value, err := o.reader.LastSynced(ctx, topic)
		if err != nil && ctx.Err() != nil {
			return Event{}, ctx.Err()
		}
		now := o.clock()
		if err != nil {
			o.logger.Warn("topic poll failed", "topic", topic, "err", err)
			value = nil
		}
		state := tracker.Observe(value, now)
		ev := Event{Topic: topic, State: state, Baseline: tracker.Baseline(), Value: value, At: now, Err: err}
		if state == StateComplete || state == StateStuck {
			return ev, nil
		}
		if progress != nil {
			progress(ev)
		}
		if err := o.wait(ctx, tracker.Interval()); err != nil {
			return Event{}, err
		}
	}
}

// Follow polls at the idle interval and calls onChange each time the topic's
// value moves, e.g. after scheduled runs. It returns when ctx ends.
func (o *Observer) Follow(ctx context.Context, topic string, onChange func(Event)) error {
	last, err := o.followBaseline(ctx, topic)
	if err != nil {
		return err
	}
	for {
		if err := o.wait(ctx, IdleInterval); err != nil {
			return err
		}
		value, err := o.reader.LastSynced(ctx, topic)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logger.Warn("topic poll failed", "topic", topic, "err", err)
			continue
		}
		if Completed(last, value) {
			onChange(Event{Topic: topic, State: StateComplete, Baseline: copyTime(last), Value: value, At: o.clock()})
			last = value
		}
	}
}

// followBaseline retries the first read so a failed poll is never mistaken
// for an unsynced topic.
func (o *Observer) followBaseline(ctx context.Context, topic string) (*time.Time, error) {
	for {
		value, err := o.reader.LastSynced(ctx, topic)
		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Warn("topic baseline read failed", "topic", topic, "err", err)
		if err := o.wait(ctx, SyncingInterval); err != nil {
			return nil, err
		}
	}
}

func waitCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
