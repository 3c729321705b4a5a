package strategy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"OptAlert/internal/detect"
	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/internal/indicator"
	"OptAlert/internal/service/kite"
	"OptAlert/pkg/config"
	"OptAlert/pkg/logger"
)

// WilliamsR polls historical candles per instrument, computes Williams %R,
// and alerts once each time the oscillator crosses down through the
// threshold, suggesting the nearest out-of-the-money put.
type WilliamsR struct {
	desc     models.StrategyDescriptor
	period   int
	interval string
	lookback time.Duration

	// symbol -> instrument token, iterated in stable order
	instruments map[string]int64
	symbols     []string

	detector *detect.EdgeCross
	deps     Deps
}

func NewWilliamsR(name string, cfg config.Strategy, deps Deps) (repository.Strategy, error) {
	if len(cfg.Instruments) == 0 {
		return nil, fmt.Errorf("instruments map is empty")
	}

	period := cfg.Period
	if period <= 0 {
		period = 14
	}
	interval := cfg.Interval
	if interval == "" {
		interval = "5minute"
	}
	lookbackDays := cfg.LookbackDays
	if lookbackDays <= 0 {
		lookbackDays = 5
	}
	threshold := -20.0
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 5 * time.Minute
	}

	symbols := make([]string, 0, len(cfg.Instruments))
	for symbol := range cfg.Instruments {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return &WilliamsR{
		desc: models.StrategyDescriptor{
			Name:         name,
			PollInterval: poll,
			Enabled:      cfg.Enabled,
		},
		period:      period,
		interval:    interval,
		lookback:    time.Duration(lookbackDays) * 24 * time.Hour,
		instruments: cfg.Instruments,
		symbols:     symbols,
		detector:    detect.NewEdgeCross(threshold, detect.Below),
		deps:        deps,
	}, nil
}

func (s *WilliamsR) Descriptor() models.StrategyDescriptor { return s.desc }

func (s *WilliamsR) Reset() { s.detector.Reset() }

// Cycle evaluates every configured instrument. A failure on one instrument
// is reported but does not stop the rest of the pass.
func (s *WilliamsR) Cycle(ctx context.Context) error {
	var firstErr error
	for _, symbol := range s.symbols {
		if err := s.evaluate(ctx, symbol, s.instruments[symbol]); err != nil {
			s.deps.Log.Warn("williams %R evaluation failed",
				logger.String("symbol", symbol), logger.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", symbol, err)
			}
		}
	}
	return firstErr
}

func (s *WilliamsR) evaluate(ctx context.Context, symbol string, token int64) error {
	now := s.deps.Now()
	candles, err := s.deps.Market.Historical(ctx, token, s.interval, now.Add(-s.lookback), now)
	if err != nil {
		return err
	}

	series, err := indicator.WilliamsR(candles, s.period)
	if err != nil {
		return err
	}
	_, current, ok := indicator.Latest(series)
	if !ok {
		return fmt.Errorf("series too short for %s", symbol)
	}

	s.deps.Metrics.RecordObservation(s.desc.Name, symbol, current)
	if !s.detector.Observe(symbol, current) {
		return nil
	}

	spot := candles[len(candles)-1].Close
	message := fmt.Sprintf("%s: Williams %%R %.2f crossed below threshold, spot %.2f", symbol, current, spot)
	if put, ok := s.nearestPut(ctx, symbol, spot); ok {
		message = fmt.Sprintf("%s; consider buying %s (strike %.2f)", message, put.TradingSymbol, put.Strike)
	}
	s.deps.Alerts.Alert(ctx, s.desc.Name, "Williams %R signal", message)
	return nil
}

// nearestPut suggests the closest OTM put below spot. Missing a chain is
// not an error; the alert just carries no suggestion.
func (s *WilliamsR) nearestPut(ctx context.Context, symbol string, spot float64) (models.Instrument, bool) {
	catalog, err := s.deps.Catalog.Instruments(ctx, "NFO")
	if err != nil {
		s.deps.Log.Warn("catalog unavailable for put suggestion",
			logger.String("symbol", symbol), logger.Error(err))
		return models.Instrument{}, false
	}
	chain, err := kite.BuildChain(catalog, symbol, s.deps.Now())
	if err != nil {
		return models.Instrument{}, false
	}
	return chain.NearestOTMPut(spot)
}
