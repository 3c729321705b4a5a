// Package api exposes the operational HTTP surface: health, session
// status, the day's alerts, and the live alert stream.
package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"OptAlert/internal/alert"
	"OptAlert/internal/domain/models"
	"OptAlert/internal/session"
	xhttp "OptAlert/pkg/http"
	"OptAlert/pkg/logger"
	"OptAlert/pkg/util"
)

// StatusHandler serves process status and the alert journal.
type StatusHandler struct {
	controller *session.Controller
	clock      *session.Clock
	journal    *alert.Journal
	hub        *alert.Hub
	strategies []models.StrategyDescriptor
	log        *logger.Logger
	started    time.Time
}

func NewStatusHandler(
	controller *session.Controller,
	clock *session.Clock,
	journal *alert.Journal,
	hub *alert.Hub,
	strategies []models.StrategyDescriptor,
	log *logger.Logger,
) *StatusHandler {
	return &StatusHandler{
		controller: controller,
		clock:      clock,
		journal:    journal,
		hub:        hub,
		strategies: strategies,
		log:        log,
		started:    time.Now(),
	}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/status", h.Status)
	e.GET("/alerts", h.Alerts)
	e.GET("/alerts/stream", h.Stream)
}

func (h *StatusHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "up"})
}

type strategyStatus struct {
	Name         string `json:"name"`
	PollInterval string `json:"poll_interval"`
	Enabled      bool   `json:"enabled"`
}

type statusResponse struct {
	Session       string           `json:"session"`
	MarketTime    time.Time        `json:"market_time"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	AlertsToday   int              `json:"alerts_today"`
	StreamClients int              `json:"stream_clients"`
	Strategies    []strategyStatus `json:"strategies"`
}

func (h *StatusHandler) Status(c echo.Context) error {
	strategies := make([]strategyStatus, 0, len(h.strategies))
	for _, d := range h.strategies {
		strategies = append(strategies, strategyStatus{
			Name:         d.Name,
			PollInterval: d.PollInterval.String(),
			Enabled:      d.Enabled,
		})
	}

	return xhttp.SuccessResponse(c, statusResponse{
		Session:       h.controller.Phase().String(),
		MarketTime:    h.clock.Now(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		AlertsToday:   h.journal.Len(),
		StreamClients: h.hub.Clients(),
		Strategies:    strategies,
	})
}

// Alerts returns the day's journal so far, optionally filtered by a
// from/to time range (RFC3339 or unix seconds).
func (h *StatusHandler) Alerts(c echo.Context) error {
	from := util.ParseTimeDefault(c.QueryParam("from"), time.Time{})
	to := util.ParseTimeDefault(c.QueryParam("to"), time.Time{})

	events := []models.AlertEvent{}
	for _, e := range h.journal.Snapshot() {
		if util.InRange(e.Timestamp, from, to) {
			events = append(events, e)
		}
	}
	return xhttp.SuccessResponse(c, events)
}
