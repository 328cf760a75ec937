package observer

import "time"

// State is what the observer believes about a run it cannot see directly.
type State string

const (
	StateIdle     State = "idle"
	StateSyncing  State = "syncing"
	StateComplete State = "complete"
	StateStuck    State = "stuck"
)

// Default polling cadence.
const (
	SyncingInterval = 3 * time.Second
	IdleInterval    = 60 * time.Second
	StuckTimeout    = 3 * time.Minute
)

// Tracker infers run completion from last_synced_at transitions alone.
type Tracker struct {
	timeout  time.Duration
	baseline *time.Time
	began    time.Time
	state    State
}

// NewTracker returns an idle tracker. A non-positive timeout uses StuckTimeout.
func NewTracker(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = StuckTimeout
	}
	return &Tracker{timeout: timeout, state: StateIdle}
}

// Begin captures the value known when the sync was started. baseline may be nil.
func (t *Tracker) Begin(baseline *time.Time, now time.Time) {
	t.baseline = copyTime(baseline)
	t.began = now
	t.state = StateSyncing
}

// Observe folds one polled value into the state. Terminal states are sticky.
func (t *Tracker) Observe(value *time.Time, now time.Time) State {
	if t.state != StateSyncing {
		return t.state
	}
	if Completed(t.baseline, value) {
		t.state = StateComplete
		return t.state
	}
	if now.Sub(t.began) >= t.timeout {
		t.state = StateStuck
	}
	return t.state
}

// State returns the current state.
func (t *Tracker) State() State { return t.state }

// Baseline returns the captured baseline.
func (t *Tracker) Baseline() *time.Time { return copyTime(t.baseline) }

// Interval is how long to wait before the next poll.
func (t *Tracker) Interval() time.Duration {
	if t.state == StateSyncing {
		return SyncingInterval
	}
	return IdleInterval
}

// Completed reports whether value marks a run finished relative to baseline:
// nil to non-nil, or a non-nil value that differs.
func Completed(baseline, value *time.Time) bool {
	if value == nil {
		return false
	}
	if baseline == nil {
		return true
	}
	return !value.Equal(*baseline)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
