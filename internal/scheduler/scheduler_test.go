package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/pkg/logger"
)

type stubStrategy struct {
	desc   models.StrategyDescriptor
	cycles atomic.Int64
	resets atomic.Int64
	fn     func(ctx context.Context) error
}

func (s *stubStrategy) Descriptor() models.StrategyDescriptor { return s.desc }
func (s *stubStrategy) Reset()                                { s.resets.Add(1) }
func (s *stubStrategy) Cycle(ctx context.Context) error {
	s.cycles.Add(1)
	if s.fn != nil {
		return s.fn(ctx)
	}
	return nil
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

func newStub(name string, interval time.Duration) *stubStrategy {
	return &stubStrategy{desc: models.StrategyDescriptor{
		Name:         name,
		PollInterval: interval,
		Enabled:      true,
	}}
}

func TestSchedulerStartWithoutTasks(t *testing.T) {
	s := New(nil, func() bool { return true }, nopMetrics{}, testLogger(t))
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected error when no tasks are scheduled")
	}
}

func TestSchedulerSkipsDisabledStrategies(t *testing.T) {
	disabled := newStub("off", time.Millisecond)
	disabled.desc.Enabled = false
	enabled := newStub("on", time.Millisecond)

	s := New([]repository.Strategy{disabled, enabled}, func() bool { return false }, nopMetrics{}, testLogger(t))
	names := s.Names()
	if len(names) != 1 || names[0] != "on" {
		t.Fatalf("expected only the enabled strategy, got %v", names)
	}
}

func TestSchedulerFailureIsolation(t *testing.T) {
	failing := newStub("a", time.Millisecond)
	failing.fn = func(context.Context) error { return fmt.Errorf("data unavailable") }
	healthy := newStub("b", time.Millisecond)

	var open atomic.Bool
	open.Store(true)

	s := New([]repository.Strategy{failing, healthy}, open.Load, nopMetrics{}, testLogger(t))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	open.Store(false)
	s.Wait()

	if failing.cycles.Load() < 2 {
		t.Fatalf("failing task must keep retrying, got %d cycles", failing.cycles.Load())
	}
	if healthy.cycles.Load() < 2 {
		t.Fatalf("healthy task must keep running beside a failing one, got %d cycles", healthy.cycles.Load())
	}
}

func TestSchedulerPanicContained(t *testing.T) {
	panicky := newStub("p", time.Millisecond)
	panicky.fn = func(context.Context) error { panic("boom") }

	var open atomic.Bool
	open.Store(true)

	s := New([]repository.Strategy{panicky}, open.Load, nopMetrics{}, testLogger(t))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	open.Store(false)
	s.Wait()

	if panicky.cycles.Load() < 2 {
		t.Fatalf("panicking cycle must not terminate the task, got %d cycles", panicky.cycles.Load())
	}
}

func TestSchedulerTasksStopOnContextCancel(t *testing.T) {
	st := newStub("s", time.Hour) // long interval: cancellation must cut the sleep short
	s := New([]repository.Strategy{st}, func() bool { return true }, nopMetrics{}, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("tasks did not stop on context cancellation")
	}
}

func TestSchedulerResetAll(t *testing.T) {
	a := newStub("a", time.Millisecond)
	b := newStub("b", time.Millisecond)
	s := New([]repository.Strategy{a, b}, func() bool { return false }, nopMetrics{}, testLogger(t))

	s.ResetAll()
	s.ResetAll()

	if a.resets.Load() != 2 || b.resets.Load() != 2 {
		t.Fatalf("expected 2 resets each, got %d and %d", a.resets.Load(), b.resets.Load())
	}
}
