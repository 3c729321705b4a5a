// Package server assembles the process: session controller, operational
// HTTP server, and housekeeping jobs, with graceful shutdown.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"OptAlert/internal/alert"
	"OptAlert/internal/report"
	"OptAlert/internal/session"
	pkgch "OptAlert/pkg/clickhouse"
	"OptAlert/pkg/config"
	xhttp "OptAlert/pkg/http"
	pkgkafka "OptAlert/pkg/kafka"
	"OptAlert/pkg/logger"
)

// retentionTime is when the daily report prune runs, after session close.
const retentionTime = "17:00"

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	controller *session.Controller
	httpServer *xhttp.Server
	hub        *alert.Hub
	retention  *report.Retention
	cron       *gocron.Scheduler

	chClient *pkgch.Client
	producer *pkgkafka.Producer
}

// New creates the App from wired dependencies. chClient and producer may be
// nil when their channels are disabled.
func New(
	cfg *config.Config,
	log *logger.Logger,
	controller *session.Controller,
	httpServer *xhttp.Server,
	hub *alert.Hub,
	retention *report.Retention,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		controller: controller,
		httpServer: httpServer,
		hub:        hub,
		retention:  retention,
		chClient:   chClient,
		producer:   producer,
	}
}

// Run starts everything and blocks until a signal arrives or, in one-shot
// mode, until the session controller finishes its single session.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := time.LoadLocation(a.cfg.Market.Timezone)
	if err != nil {
		return err
	}
	a.cron = gocron.NewScheduler(loc)
	if _, err := a.cron.Every(1).Day().At(retentionTime).Do(func() {
		if err := a.retention.Prune(); err != nil {
			a.log.Warn("report retention failed", logger.Error(err))
		}
	}); err != nil {
		return err
	}
	a.cron.StartAsync()

	if err := a.httpServer.Start(); err != nil {
		return err
	}

	controllerDone := make(chan error, 1)
	go func() {
		controllerDone <- a.controller.Run(ctx)
	}()
	a.log.Info("application started",
		logger.Bool("daemon", a.cfg.Daemon),
		logger.String("environment", a.cfg.Environment))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.log.Info("shutdown signal received", logger.String("signal", sig.String()))
		cancel()
		// The controller drains the journal and writes the report for an
		// in-flight session before returning.
		runErr = <-controllerDone
	case runErr = <-controllerDone:
		a.log.Info("session controller finished")
	}

	a.shutdown()
	return runErr
}

// shutdown stops all services in dependency order.
func (a *App) shutdown() {
	a.log.Info("shutting down")

	if a.cron != nil {
		a.cron.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Warn("http shutdown error", logger.Error(err))
	}

	a.hub.Close()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", logger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
