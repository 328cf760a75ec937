package observer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/logging"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestCompleted(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		baseline *time.Time
		value    *time.Time
		want     bool
	}{
		{"nil to nil", nil, nil, false},
		{"nil to value", nil, ptr(t0), true},
		{"unchanged", ptr(t0), ptr(t0), false},
		{"unchanged other zone", ptr(t0), ptr(t0.In(time.FixedZone("x", 3600))), false},
		{"moved", ptr(t0), ptr(t0.Add(time.Second)), true},
		{"value vanished", ptr(t0), nil, false},
	}
	for _, tc := range cases {
		if got := Completed(tc.baseline, tc.value); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestTrackerStates(t *testing.T) {
	t.Parallel()

	tr := NewTracker(time.Minute)
	if tr.State() != StateIdle || tr.Interval() != IdleInterval {
		t.Fatalf("new tracker state=%s interval=%s", tr.State(), tr.Interval())
	}

	tr.Begin(nil, t0)
	if tr.Interval() != SyncingInterval {
		t.Fatalf("syncing interval = %s", tr.Interval())
	}
	if s := tr.Observe(nil, t0.Add(30*time.Second)); s != StateSyncing {
		t.Fatalf("state = %s", s)
	}
	if s := tr.Observe(ptr(t0.Add(40*time.Second)), t0.Add(40*time.Second)); s != StateComplete {
		t.Fatalf("state = %s", s)
	}
	// terminal states do not move
	if s := tr.Observe(nil, t0.Add(time.Hour)); s != StateComplete {
		t.Fatalf("state after complete = %s", s)
	}

	stuck := NewTracker(time.Minute)
	stuck.Begin(ptr(t0), t0)
	if s := stuck.Observe(ptr(t0), t0.Add(time.Minute)); s != StateStuck {
		t.Fatalf("expected stuck, got %s", s)
	}
}

type scriptedReader struct {
	mu     sync.Mutex
	values []*time.Time
	errs   []error
	calls  int
}

func (r *scriptedReader) LastSynced(context.Context, string) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	if i < len(r.values) {
		return r.values[i], nil
	}
	if len(r.values) == 0 {
		return nil, nil
	}
	return r.values[len(r.values)-1], nil
}

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	return nil
}

func newObserver(r Reader, c *fakeClock) *Observer {
	return New(r, Options{Clock: c.Now, Wait: c.Wait, Logger: logging.Discard()})
}

func TestWatchCompletesOnFirstStamp(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: t0}
	reader := &scriptedReader{values: []*time.Time{nil, nil, ptr(t0.Add(7 * time.Second))}}
	var progress []Event

	ev, err := newObserver(reader, clock).Watch(context.Background(), "saas", nil, func(e Event) { progress = append(progress, e) })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if ev.State != StateComplete || ev.Value == nil {
		t.Fatalf("event = %+v", ev)
	}
	if len(progress) != 2 {
		t.Fatalf("progress events = %d", len(progress))
	}
	for _, w := range clock.waits {
		if w != SyncingInterval {
			t.Fatalf("wait = %s, want %s", w, SyncingInterval)
		}
	}
}

func TestWatchIgnoresUnchangedBaseline(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: t0}
	base := ptr(t0.Add(-time.Hour))
	reader := &scriptedReader{values: []*time.Time{base, base, base, ptr(t0)}}

	ev, err := newObserver(reader, clock).Watch(context.Background(), "saas", base, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if ev.State != StateComplete || reader.calls != 4 {
		t.Fatalf("event=%+v calls=%d", ev, reader.calls)
	}
}

func TestWatchTimesOutAsStuck(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: t0}
	reader := &scriptedReader{errs: []error{errors.New("flaky")}}

	ev, err := newObserver(reader, clock).Watch(context.Background(), "saas", nil, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if ev.State != StateStuck {
		t.Fatalf("state = %s", ev.State)
	}
	if elapsed := ev.At.Sub(t0); elapsed < StuckTimeout {
		t.Fatalf("gave up after %s", elapsed)
	}
	// 3 minutes at 3s per poll
	if want := int(StuckTimeout/SyncingInterval) + 1; reader.calls != want {
		t.Fatalf("polls = %d, want %d", reader.calls, want)
	}
}

func TestWatchCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newObserver(&scriptedReader{}, &fakeClock{now: t0}).Watch(ctx, "saas", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFollowReportsChanges(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: t0}
	reader := &scriptedReader{values: []*time.Time{nil, nil, ptr(t0), ptr(t0), ptr(t0.Add(time.Hour))}}
	ctx, cancel := context.WithCancel(context.Background())

	var changes []Event
	err := newObserver(reader, clock).Follow(ctx, "saas", func(e Event) {
		changes = append(changes, e)
		if len(changes) == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Follow returned %v", err)
	}
	if len(changes) != 2 || !changes[1].Value.Equal(t0.Add(time.Hour)) {
		t.Fatalf("changes = %+v", changes)
	}
	for _, w := range clock.waits {
		if w != IdleInterval {
			t.Fatalf("idle wait = %s", w)
		}
	}
}

func TestFollowRetriesFailedBaseline(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: t0}
	down := errors.New("connection refused")
	reader := &scriptedReader{
		errs:   []error{down, down},
		values: []*time.Time{nil, nil, ptr(t0), ptr(t0), ptr(t0.Add(time.Hour))},
	}
	ctx, cancel := context.WithCancel(context.Background())

	var changes []Event
	err := newObserver(reader, clock).Follow(ctx, "saas", func(e Event) {
		changes = append(changes, e)
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Follow returned %v", err)
	}
	if len(changes) != 1 || !changes[0].Baseline.Equal(t0) || !changes[0].Value.Equal(t0.Add(time.Hour)) {
		t.Fatalf("changes = %+v", changes)
	}
	if len(clock.waits) < 2 || clock.waits[0] != SyncingInterval || clock.waits[1] != SyncingInterval {
		t.Fatalf("baseline retries waited %v", clock.waits)
	}
}

func TestHTTPReader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/topics/saas":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"saas","last_synced_at":"2025-06-01T12:00:00Z"}`))
		case "/api/topics/fresh":
			_, _ = w.Write([]byte(`{"name":"fresh","last_synced_at":null}`))
		case "/api/sync":
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"triggered","topic":"saas","run_id":"r-1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := NewHTTPReader(srv.URL+"/", srv.Client())
	ctx := context.Background()

	v, err := r.LastSynced(ctx, "SaaS")
	if err != nil || v == nil || !v.Equal(t0) {
		t.Fatalf("saas = %v, %v", v, err)
	}
	if v, err := r.LastSynced(ctx, "fresh"); err != nil || v != nil {
		t.Fatalf("fresh = %v, %v", v, err)
	}
	if v, err := r.LastSynced(ctx, "missing"); err != nil || v != nil {
		t.Fatalf("missing = %v, %v", v, err)
	}
	if id, err := r.Trigger(ctx, "saas"); err != nil || id != "r-1" {
		t.Fatalf("trigger = %q, %v", id, err)
	}
}

type topicsStub struct{ domain.Topic }

func (s topicsStub) EnsureTopic(context.Context, string) (domain.Topic, error) { return s.Topic, nil }
func (s topicsStub) GetTopic(_ context.Context, name string) (domain.Topic, error) {
	if name != s.Name {
		return domain.Topic{}, domain.ErrNotFound
	}
	return s.Topic, nil
}
func (topicsStub) StampTopic(context.Context, string, time.Time) error { return nil }
func (topicsStub) UpdateTopicSynced(context.Context, string, time.Time) error { return nil }

func TestStoreReader(t *testing.T) {
	t.Parallel()

	r := StoreReader{Topics: topicsStub{domain.Topic{Name: "saas", LastSyncedAt: ptr(t0)}}}
	if v, err := r.LastSynced(context.Background(), " SaaS"); err != nil || v == nil {
		t.Fatalf("saas = %v, %v", v, err)
	}
	if v, err := r.LastSynced(context.Background(), "other"); err != nil || v != nil {
		t.Fatalf("other = %v, %v", v, err)
	}
}
