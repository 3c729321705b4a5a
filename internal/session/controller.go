package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/pkg/logger"
)

// Runner is the strategy scheduler as the controller sees it. ResetAll
// clears every task's observation state; Start launches one execution unit
// per enabled strategy; Wait joins them all.
type Runner interface {
	ResetAll()
	Start(ctx context.Context) error
	Wait()
}

// Drainer hands over the day's alert events and clears the buffer.
type Drainer interface {
	Drain() []models.AlertEvent
}

// Controller drives the session lifecycle: wait for open, reset state,
// run the scheduler, and finalize the day's report exactly once at close.
// Tasks self-terminate when the clock says the session ended; the
// controller only joins them.
type Controller struct {
	clock   *Clock
	runner  Runner
	journal Drainer
	sinks   []repository.ReportSink
	metrics repository.Metrics
	log     *logger.Logger

	daemon        bool
	checkInterval time.Duration

	phase atomic.Int32
}

// exportTimeout bounds the end-of-day export. The export runs on its own
// context because a shutdown signal cancels the run context first.
const exportTimeout = 30 * time.Second

func NewController(
	clock *Clock,
	runner Runner,
	journal Drainer,
	sinks []repository.ReportSink,
	metrics repository.Metrics,
	log *logger.Logger,
	daemon bool,
	checkInterval time.Duration,
) *Controller {
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}
	return &Controller{
		clock:         clock,
		runner:        runner,
		journal:       journal,
		sinks:         sinks,
		metrics:       metrics,
		log:           log,
		daemon:        daemon,
		checkInterval: checkInterval,
	}
}

// Phase returns the current session phase for status reporting.
func (c *Controller) Phase() models.SessionPhase {
	return models.SessionPhase(c.phase.Load())
}

func (c *Controller) setPhase(p models.SessionPhase) {
	c.phase.Store(int32(p))
	c.metrics.SetSessionOpen(p == models.PhaseOpen)
}

// Run blocks until the context is cancelled or, in one-shot mode, until the
// first session's report has been written.
func (c *Controller) Run(ctx context.Context) error {
	for {
		c.setPhase(models.PhaseClosed)

		if !c.clock.IsOpen() {
			c.log.Info("market closed, waiting for open",
				logger.Duration("check_interval", c.checkInterval))
			if !c.waitForOpen(ctx) {
				return nil
			}
		}

		// CLOSED -> OPEN edge: clear day-scoped state before any task runs.
		c.log.Info("market open, starting session", logger.String("date", c.clock.Now().Format("2006-01-02")))
		c.runner.ResetAll()
		c.setPhase(models.PhaseOpen)

		if err := c.runner.Start(ctx); err != nil {
			return fmt.Errorf("scheduler start: %w", err)
		}
		c.runner.Wait()

		// OPEN -> CLOSED edge: export the day exactly once. Drain clears
		// the journal, so a repeated close finds nothing to export.
		c.setPhase(models.PhaseClosed)
		c.finalize()

		if ctx.Err() != nil || !c.daemon {
			return nil
		}
	}
}

// waitForOpen polls the clock at the coarse check interval. Returns false
// when the context was cancelled first.
func (c *Controller) waitForOpen(ctx context.Context) bool {
	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if c.clock.IsOpen() {
				return true
			}
		}
	}
}

// finalize drains the journal into every report sink. No-op when the day
// produced no alerts. The export context is independent of the run context
// so an in-session shutdown still writes the report.
func (c *Controller) finalize() {
	events := c.journal.Drain()
	if len(events) == 0 {
		c.log.Info("no alerts logged today, skipping report")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	day := c.clock.Now()
	for _, sink := range c.sinks {
		if err := sink.Export(ctx, day, events); err != nil {
			c.log.Error("report export failed", logger.Error(err))
			continue
		}
	}
	c.log.Info("end-of-day report exported", logger.Int("events", len(events)))
}
