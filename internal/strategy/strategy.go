// Package strategy implements the configured screeners and the registry
// that builds them from configuration.
package strategy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/pkg/config"
	"OptAlert/pkg/logger"
)

// Alerter journals an alert and fans it out to the notification channels.
type Alerter interface {
	Alert(ctx context.Context, strategy, subject, message string)
}

// CatalogSource serves the instrument catalog, usually through a cache.
type CatalogSource interface {
	Instruments(ctx context.Context, exchange string) ([]models.Instrument, error)
}

// Deps carries everything a strategy constructor may need.
type Deps struct {
	Market  repository.MarketData
	Catalog CatalogSource
	Alerts  Alerter
	Metrics repository.Metrics
	Log     *logger.Logger
	Now     func() time.Time
}

// Factory builds one strategy instance from its settings.
type Factory func(name string, cfg config.Strategy, deps Deps) (repository.Strategy, error)

// registry maps configuration names to constructors. Static: adding a
// strategy means adding a constructor here.
var registry = map[string]Factory{
	"williams_r":  NewWilliamsR,
	"oi_screener": NewOIScreener,
	"oi_spurt":    NewOISpurt,
}

// Build instantiates every configured strategy. Unknown names are logged
// and skipped; ending up with zero enabled strategies is an error.
func Build(cfgs map[string]config.Strategy, deps Deps) ([]repository.Strategy, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []repository.Strategy
	enabled := 0
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			deps.Log.Warn("unknown strategy in config, skipping", logger.String("strategy", name))
			continue
		}
		st, err := factory(name, cfgs[name], deps)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", name, err)
		}
		out = append(out, st)
		if cfgs[name].Enabled {
			enabled++
		}
	}

	if enabled == 0 {
		return nil, fmt.Errorf("no enabled strategies configured")
	}
	return out, nil
}

// indexSpot maps an index option underlying to its spot quote instrument.
var indexSpot = map[string]string{
	"NIFTY":      "NSE:NIFTY 50",
	"BANKNIFTY":  "NSE:NIFTY BANK",
	"FINNIFTY":   "NSE:NIFTY FIN SERVICE",
	"MIDCPNIFTY": "NSE:NIFTY MID SELECT",
}

// spotInstrument resolves the quote key for an underlying's spot price.
func spotInstrument(underlying string) string {
	if spot, ok := indexSpot[underlying]; ok {
		return spot
	}
	return "NSE:" + underlying
}

func isIndexUnderlying(underlying string) bool {
	_, ok := indexSpot[underlying]
	return ok
}
