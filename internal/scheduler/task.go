// Package scheduler runs one concurrent task per enabled strategy, each on
// its own polling cadence, with failures isolated to the owning task.
package scheduler

import (
	"context"
	"runtime/debug"
	"time"

	"OptAlert/internal/domain/repository"
	"OptAlert/pkg/logger"
)

// Task re-executes one strategy's cycle at its poll interval while the
// session gate stays open. A cycle is never preempted mid-flight; the gate
// and the context are checked only at the top of the loop.
type Task struct {
	strat   repository.Strategy
	gate    func() bool
	metrics repository.Metrics
	log     *logger.Logger
}

func NewTask(strat repository.Strategy, gate func() bool, metrics repository.Metrics, log *logger.Logger) *Task {
	return &Task{strat: strat, gate: gate, metrics: metrics, log: log}
}

// Run loops until the session closes or the context is cancelled. Cycle
// failures are logged and followed by the normal interval sleep; they never
// terminate the task.
func (t *Task) Run(ctx context.Context) {
	name := t.strat.Descriptor().Name
	interval := t.strat.Descriptor().PollInterval

	t.log.Info("task started",
		logger.String("strategy", name),
		logger.Duration("interval", interval))

	for {
		if ctx.Err() != nil || !t.gate() {
			t.log.Info("task stopped", logger.String("strategy", name))
			return
		}

		t.runCycle(ctx)

		select {
		case <-ctx.Done():
			t.log.Info("task stopped", logger.String("strategy", name))
			return
		case <-time.After(interval):
		}
	}
}

// runCycle executes one cycle with panic containment at the task boundary.
func (t *Task) runCycle(ctx context.Context) {
	name := t.strat.Descriptor().Name
	start := time.Now()
	defer func() {
		t.metrics.RecordCycleDuration(name, time.Since(start).Seconds())
		if r := recover(); r != nil {
			t.metrics.RecordCycle(name, "panic")
			t.log.Error("cycle panicked",
				logger.String("strategy", name),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())))
		}
	}()

	if err := t.strat.Cycle(ctx); err != nil {
		t.metrics.RecordCycle(name, "error")
		t.log.Error("cycle failed", logger.String("strategy", name), logger.Error(err))
		return
	}
	t.metrics.RecordCycle(name, "ok")
}
