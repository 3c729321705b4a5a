package alert

import (
	"context"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/pkg/logger"
)

// Dispatcher records an alert in the journal and fans it out to every
// enabled channel. Channel failures are logged and counted but never
// propagate to the strategy cycle that raised the alert.
type Dispatcher struct {
	journal   *Journal
	notifiers []repository.Notifier
	metrics   repository.Metrics
	log       *logger.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewDispatcher(
	journal *Journal,
	notifiers []repository.Notifier,
	metrics repository.Metrics,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		journal:   journal,
		notifiers: notifiers,
		metrics:   metrics,
		log:       log,
		timeout:   15 * time.Second,
		now:       time.Now,
	}
}

// WithNow overrides the timestamp source.
func (d *Dispatcher) WithNow(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Alert journals the event and delivers it on every enabled channel. The
// journal write happens first so a notification outage never loses the
// event from the end-of-day report.
func (d *Dispatcher) Alert(ctx context.Context, strategy, subject, message string) {
	d.journal.Append(models.AlertEvent{
		Timestamp: d.now(),
		Strategy:  strategy,
		Message:   message,
	})
	d.metrics.RecordAlert(strategy)
	d.log.Info("alert raised",
		logger.String("strategy", strategy),
		logger.String("message", message))

	for _, n := range d.notifiers {
		if !n.Enabled() {
			continue
		}
		nctx, cancel := context.WithTimeout(ctx, d.timeout)
		err := n.Notify(nctx, subject, message)
		cancel()
		if err != nil {
			d.metrics.RecordNotifyError(n.Name())
			d.log.Error("notification failed",
				logger.String("channel", n.Name()),
				logger.String("strategy", strategy),
				logger.Error(err))
		}
	}
}
