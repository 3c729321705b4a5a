package repository

import (
	"context"
	"time"

	"OptAlert/internal/domain/models"
)

// MarketData is the broker query contract. Failures surface as plain
// errors and are recovered per poll cycle.
type MarketData interface {
	Quote(ctx context.Context, instruments ...string) (map[string]models.Quote, error)
	LTP(ctx context.Context, instruments ...string) (map[string]float64, error)
	Historical(ctx context.Context, token int64, interval string, from, to time.Time) ([]models.Candle, error)
	Instruments(ctx context.Context, exchange string) ([]models.Instrument, error)
}

// Strategy is one configured screener: Cycle runs a single poll pass
// (fetch, detect, alert), Reset clears day-scoped observation state at
// session open. Cycle errors are recovered by the owning task.
type Strategy interface {
	Descriptor() models.StrategyDescriptor
	Reset()
	Cycle(ctx context.Context) error
}

// Notifier is one fire-and-forget alert channel.
type Notifier interface {
	Name() string
	Enabled() bool
	Notify(ctx context.Context, subject, body string) error
}

// ReportSink receives the day's alert events exactly once at session close.
type ReportSink interface {
	Export(ctx context.Context, day time.Time, events []models.AlertEvent) error
}

type Metrics interface {
	RecordCycle(strategy, result string)
	RecordAlert(strategy string)
	RecordNotifyError(channel string)
	RecordObservation(strategy, instrument string, value float64)
	RecordCycleDuration(strategy string, seconds float64)
	SetSessionOpen(open bool)
}
