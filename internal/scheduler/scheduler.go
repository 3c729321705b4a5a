package scheduler

import (
	"context"
	"fmt"
	"sync"

	"OptAlert/internal/domain/repository"
	"OptAlert/pkg/logger"
)

// Scheduler owns the set of strategy tasks and runs each in its own
// goroutine. Tasks share nothing mutable; one task's failure or completion
// never affects another's.
type Scheduler struct {
	tasks []*Task
	strat []repository.Strategy
	log   *logger.Logger
	wg    sync.WaitGroup
}

// New binds every enabled strategy to a task gated by the session check.
func New(strategies []repository.Strategy, gate func() bool, metrics repository.Metrics, log *logger.Logger) *Scheduler {
	s := &Scheduler{log: log}
	for _, st := range strategies {
		if !st.Descriptor().Enabled {
			log.Info("strategy disabled, skipping", logger.String("strategy", st.Descriptor().Name))
			continue
		}
		s.strat = append(s.strat, st)
		s.tasks = append(s.tasks, NewTask(st, gate, metrics, log))
	}
	return s
}

// Names lists the scheduled strategy names.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.strat))
	for _, st := range s.strat {
		names = append(names, st.Descriptor().Name)
	}
	return names
}

// ResetAll clears every strategy's observation state. Called on the
// CLOSED -> OPEN edge, strictly before Start.
func (s *Scheduler) ResetAll() {
	for _, st := range s.strat {
		st.Reset()
	}
}

// Start launches one goroutine per task. It fails only when there is
// nothing to run.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.tasks) == 0 {
		return fmt.Errorf("no enabled strategies to schedule")
	}
	for _, t := range s.tasks {
		s.wg.Add(1)
		go func(t *Task) {
			defer s.wg.Done()
			t.Run(ctx)
		}(t)
	}
	s.log.Info("scheduler started", logger.Int("tasks", len(s.tasks)))
	return nil
}

// Wait blocks until every task has returned. Tasks self-terminate when the
// session closes or the context is cancelled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
