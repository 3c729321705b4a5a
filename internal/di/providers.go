package di

import (
	"context"
	"fmt"
	"time"

	"OptAlert/internal/alert"
	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/internal/handler/api"
	"OptAlert/internal/report"
	"OptAlert/internal/scheduler"
	"OptAlert/internal/service/kite"
	"OptAlert/internal/session"
	"OptAlert/internal/strategy"
	"OptAlert/pkg/cache"
	pkgch "OptAlert/pkg/clickhouse"
	"OptAlert/pkg/config"
	xhttp "OptAlert/pkg/http"
	pkgkafka "OptAlert/pkg/kafka"
	"OptAlert/pkg/logger"
	"OptAlert/pkg/metrics"
	"OptAlert/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClock builds the session clock from the market window settings.
func ProvideClock(cfg *config.Config) (*session.Clock, error) {
	win, err := session.NewWindow(
		cfg.Market.OpenHour, cfg.Market.OpenMinute,
		cfg.Market.CloseHour, cfg.Market.CloseMinute,
		cfg.Market.Timezone,
	)
	if err != nil {
		return nil, fmt.Errorf("market window: %w", err)
	}
	return session.NewClock(win), nil
}

// ProvideMarketData creates the broker client.
func ProvideMarketData(cfg *config.Config, log *logger.Logger) repository.MarketData {
	return kite.NewClient(kite.Config{
		BaseURL:         cfg.Kite.BaseURL,
		APIKey:          cfg.Kite.APIKey,
		AccessToken:     cfg.Kite.AccessToken,
		Timeout:         cfg.Kite.Timeout,
		RateLimitPerSec: cfg.Kite.RateLimitPerSec,
	}, log)
}

// ProvideCache builds the catalog cache: layered memory+Redis when Redis
// is configured, plain memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideCatalog creates the cached instrument catalog.
func ProvideCatalog(market repository.MarketData, c cache.Service, cfg *config.Config, log *logger.Logger) *kite.Catalog {
	return kite.NewCatalog(market, c, cfg.Cache.CatalogTTL, log)
}

// ProvideJournal creates the day journal.
func ProvideJournal() *alert.Journal {
	return alert.NewJournal()
}

// ProvideHub creates the websocket alert stream hub.
func ProvideHub(cfg *config.Config, log *logger.Logger) *alert.Hub {
	return alert.NewHub(cfg.Notify.Stream.Enabled, log)
}

// ProvideKafkaProducer creates the Kafka producer, or nil when the kafka
// channel is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Notify.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Notify.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Notify.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Notify.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Notify.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Notify.Kafka.WriteTimeout, cfg.Notify.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideNotifiers assembles the notification channels. Disabled channels
// are still constructed; the dispatcher skips them by their Enabled flag.
func ProvideNotifiers(cfg *config.Config, hub *alert.Hub, producer *pkgkafka.Producer) []repository.Notifier {
	return []repository.Notifier{
		alert.NewEmail(alert.EmailConfig{
			Enabled:  cfg.Notify.Email.Enabled,
			Host:     cfg.Notify.Email.Host,
			Port:     cfg.Notify.Email.Port,
			User:     cfg.Notify.Email.User,
			Password: cfg.Notify.Email.Password,
			To:       cfg.Notify.Email.To,
		}),
		alert.NewWhatsApp(alert.WhatsAppConfig{
			Enabled:    cfg.Notify.WhatsApp.Enabled,
			BaseURL:    cfg.Notify.WhatsApp.BaseURL,
			AccountSID: cfg.Notify.WhatsApp.AccountSID,
			AuthToken:  cfg.Notify.WhatsApp.AuthToken,
			From:       cfg.Notify.WhatsApp.From,
			To:         cfg.Notify.WhatsApp.To,
		}),
		alert.NewKafkaChannel(producer, cfg.Notify.Kafka.Topic, cfg.Notify.Kafka.Enabled),
		hub,
	}
}

// ProvideDispatcher creates the alert dispatcher.
func ProvideDispatcher(journal *alert.Journal, notifiers []repository.Notifier, m repository.Metrics, log *logger.Logger) *alert.Dispatcher {
	return alert.NewDispatcher(journal, notifiers, m, log)
}

// ProvideStrategies builds every configured strategy.
func ProvideStrategies(
	cfg *config.Config,
	market repository.MarketData,
	catalog *kite.Catalog,
	dispatcher *alert.Dispatcher,
	m repository.Metrics,
	log *logger.Logger,
) ([]repository.Strategy, error) {
	return strategy.Build(cfg.Strategies, strategy.Deps{
		Market:  market,
		Catalog: catalog,
		Alerts:  dispatcher,
		Metrics: m,
		Log:     log,
	})
}

// ProvideScheduler creates the strategy scheduler gated by the clock.
func ProvideScheduler(strategies []repository.Strategy, clock *session.Clock, m repository.Metrics, log *logger.Logger) *scheduler.Scheduler {
	return scheduler.New(strategies, clock.IsOpen, m, log)
}

// ProvideClickHouseClient creates the alert archive client, or nil when
// the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Report.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Report.ClickHouse.Host),
		pkgch.WithPort(cfg.Report.ClickHouse.Port),
		pkgch.WithDatabase(cfg.Report.ClickHouse.Database),
		pkgch.WithCredentials(cfg.Report.ClickHouse.User, cfg.Report.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.Report.ClickHouse.DialTimeout, cfg.Report.ClickHouse.ReadTimeout, cfg.Report.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideReportSinks assembles the end-of-day report sinks. CSV is always
// on; the ClickHouse archive is additive.
func ProvideReportSinks(cfg *config.Config, log *logger.Logger, chClient *pkgch.Client) ([]repository.ReportSink, error) {
	sinks := []repository.ReportSink{
		report.NewCSVSink(cfg.Report.Dir, log),
	}
	if chClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		archive, err := report.NewClickHouseSink(ctx, chClient)
		if err != nil {
			return nil, fmt.Errorf("clickhouse sink: %w", err)
		}
		sinks = append(sinks, archive)
	}
	return sinks, nil
}

// ProvideController creates the session lifecycle controller.
func ProvideController(
	clock *session.Clock,
	sched *scheduler.Scheduler,
	journal *alert.Journal,
	sinks []repository.ReportSink,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *session.Controller {
	return session.NewController(clock, sched, journal, sinks, m, log,
		cfg.Daemon, cfg.Market.CheckInterval)
}

// ProvideDescriptors lists the configured strategies for status reporting.
func ProvideDescriptors(strategies []repository.Strategy) []models.StrategyDescriptor {
	out := make([]models.StrategyDescriptor, 0, len(strategies))
	for _, st := range strategies {
		out = append(out, st.Descriptor())
	}
	return out
}

// ProvideStatusHandler creates the operational API handler.
func ProvideStatusHandler(
	controller *session.Controller,
	clock *session.Clock,
	journal *alert.Journal,
	hub *alert.Hub,
	descriptors []models.StrategyDescriptor,
	log *logger.Logger,
) *api.StatusHandler {
	return api.NewStatusHandler(controller, clock, journal, hub, descriptors, log)
}

// ProvideHandler exposes the status handler through the server's route
// registration interface.
func ProvideHandler(h *api.StatusHandler) xhttp.Handler {
	return h
}

// ProvideHTTPServer creates the operational HTTP server.
func ProvideHTTPServer(handler xhttp.Handler, log *logger.Logger, cfg *config.Config) *xhttp.Server {
	return xhttp.NewServer(handler, log,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

// ProvideRetention creates the report retention job.
func ProvideRetention(cfg *config.Config, log *logger.Logger) *report.Retention {
	return report.NewRetention(cfg.Report.Dir, cfg.Report.RetentionDays, log)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	controller *session.Controller,
	httpServer *xhttp.Server,
	hub *alert.Hub,
	retention *report.Retention,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, log, controller, httpServer, hub, retention, chClient, producer)
}
