package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal   *prometheus.CounterVec
	alertsTotal   *prometheus.CounterVec
	notifyErrors  *prometheus.CounterVec
	lastObserved  *prometheus.GaugeVec
	cycleDuration *prometheus.HistogramVec
	sessionOpen   prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optalert_strategy_cycles_total",
				Help: "Total poll cycles executed per strategy",
			},
			[]string{"strategy", "result"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optalert_alerts_total",
				Help: "Total alerts triggered per strategy",
			},
			[]string{"strategy"},
		),
		notifyErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optalert_notify_errors_total",
				Help: "Total notification channel failures",
			},
			[]string{"channel"},
		),
		lastObserved: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "optalert_last_observed_value",
				Help: "Last observed detector input per strategy and instrument",
			},
			[]string{"strategy", "instrument"},
		),
		cycleDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optalert_cycle_duration_seconds",
				Help:    "Duration of one strategy poll cycle",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		sessionOpen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "optalert_session_open",
				Help: "1 while the trading session is open",
			},
		),
	}
}

// RecordCycle records one completed poll cycle.
func (r *Recorder) RecordCycle(strategy, result string) {
	r.cyclesTotal.WithLabelValues(strategy, result).Inc()
}

// RecordAlert records a triggered alert.
func (r *Recorder) RecordAlert(strategy string) {
	r.alertsTotal.WithLabelValues(strategy).Inc()
}

// RecordNotifyError records a notification channel failure.
func (r *Recorder) RecordNotifyError(channel string) {
	r.notifyErrors.WithLabelValues(channel).Inc()
}

// RecordObservation records the latest detector input value.
func (r *Recorder) RecordObservation(strategy, instrument string, value float64) {
	r.lastObserved.WithLabelValues(strategy, instrument).Set(value)
}

// RecordCycleDuration records cycle latency in seconds.
func (r *Recorder) RecordCycleDuration(strategy string, seconds float64) {
	r.cycleDuration.WithLabelValues(strategy).Observe(seconds)
}

// SetSessionOpen flips the session gauge at phase edges.
func (r *Recorder) SetSessionOpen(open bool) {
	if open {
		r.sessionOpen.Set(1)
		return
	}
	r.sessionOpen.Set(0)
}
