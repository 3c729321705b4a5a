package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/pkg/logger"
)

type fakeRunner struct {
	mu     sync.Mutex
	calls  []string
	onWait func()
}

func (r *fakeRunner) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *fakeRunner) ResetAll() { r.record("reset") }

func (r *fakeRunner) Start(context.Context) error {
	r.record("start")
	return nil
}

func (r *fakeRunner) Wait() {
	r.record("wait")
	if r.onWait != nil {
		r.onWait()
	}
}

func (r *fakeRunner) sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

type fakeJournal struct {
	mu     sync.Mutex
	events []models.AlertEvent
}

func (j *fakeJournal) Drain() []models.AlertEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := j.events
	j.events = nil
	return out
}

type fakeSink struct {
	mu      sync.Mutex
	exports [][]models.AlertEvent
	err     error
}

func (s *fakeSink) Export(_ context.Context, _ time.Time, events []models.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, events)
	return s.err
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exports)
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, string)                {}
func (nopMetrics) RecordAlert(string)                        {}
func (nopMetrics) RecordNotifyError(string)                  {}
func (nopMetrics) RecordObservation(string, string, float64) {}
func (nopMetrics) RecordCycleDuration(string, float64)       {}
func (nopMetrics) SetSessionOpen(bool)                       {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func openClock(t *testing.T, open *atomic.Bool) *Clock {
	t.Helper()
	win := istWindow(t)
	inside := time.Date(2025, 6, 2, 10, 0, 0, 0, win.Location)
	outside := time.Date(2025, 6, 2, 16, 0, 0, 0, win.Location)
	return NewClock(win).WithNow(func() time.Time {
		if open.Load() {
			return inside
		}
		return outside
	})
}

func TestControllerResetsBeforeStart(t *testing.T) {
	var open atomic.Bool
	open.Store(true)

	runner := &fakeRunner{}
	journal := &fakeJournal{events: []models.AlertEvent{
		{Timestamp: time.Now(), Strategy: "williams_r", Message: "signal"},
	}}
	sink := &fakeSink{}

	c := NewController(openClock(t, &open), runner, journal,
		[]repository.ReportSink{sink}, nopMetrics{}, testLogger(t), false, time.Millisecond)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	seq := runner.sequence()
	want := []string{"reset", "start", "wait"}
	if len(seq) != len(want) {
		t.Fatalf("call sequence %v, want %v", seq, want)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("call sequence %v, want %v", seq, want)
		}
	}

	if sink.count() != 1 {
		t.Fatalf("expected exactly one export, got %d", sink.count())
	}
	if c.Phase() != models.PhaseClosed {
		t.Fatalf("phase after one-shot run must be closed")
	}
}

func TestControllerSkipsReportWhenNoAlerts(t *testing.T) {
	var open atomic.Bool
	open.Store(true)

	runner := &fakeRunner{}
	sink := &fakeSink{}
	c := NewController(openClock(t, &open), runner, &fakeJournal{},
		[]repository.ReportSink{sink}, nopMetrics{}, testLogger(t), false, time.Millisecond)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sink.count() != 0 {
		t.Fatalf("empty day must not produce a report, got %d exports", sink.count())
	}
}

func TestControllerStopsWhileWaitingForOpen(t *testing.T) {
	var open atomic.Bool // stays closed

	runner := &fakeRunner{}
	c := NewController(openClock(t, &open), runner, &fakeJournal{},
		nil, nopMetrics{}, testLogger(t), true, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("controller did not stop on context cancellation")
	}
	if len(runner.sequence()) != 0 {
		t.Fatalf("scheduler must not start while the market is closed")
	}
}

// ctxCheckingSink fails on a cancelled context the way the real sinks do.
type ctxCheckingSink struct {
	fakeSink
}

func (s *ctxCheckingSink) Export(ctx context.Context, day time.Time, events []models.AlertEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fakeSink.Export(ctx, day, events)
}

func TestControllerExportsOnShutdownSignal(t *testing.T) {
	var open atomic.Bool
	open.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{}
	// Shutdown cancels the run context while tasks are still joining.
	runner.onWait = func() { cancel() }

	journal := &fakeJournal{events: []models.AlertEvent{
		{Timestamp: time.Now(), Strategy: "oi_screener", Message: "signal"},
	}}
	sink := &ctxCheckingSink{}

	c := NewController(openClock(t, &open), runner, journal,
		[]repository.ReportSink{sink}, nopMetrics{}, testLogger(t), true, time.Millisecond)

	if err := c.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("shutdown during the session must still export the day, got %d exports", sink.count())
	}
}

func TestControllerDaemonRunsNextSession(t *testing.T) {
	var open atomic.Bool
	open.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	var sessions atomic.Int64
	runner := &fakeRunner{}
	runner.onWait = func() {
		if sessions.Add(1) == 2 {
			cancel()
		}
	}

	c := NewController(openClock(t, &open), runner, &fakeJournal{},
		nil, nopMetrics{}, testLogger(t), true, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("daemon controller did not exit after cancellation")
	}
	if sessions.Load() != 2 {
		t.Fatalf("expected 2 sessions before cancellation, got %d", sessions.Load())
	}
}
