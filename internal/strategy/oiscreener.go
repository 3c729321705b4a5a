package strategy

import (
	"context"
	"fmt"
	"time"

	"OptAlert/internal/detect"
	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/internal/service/kite"
	"OptAlert/pkg/config"
	"OptAlert/pkg/logger"
)

// OIScreener watches open interest on a configured strike ladder around ATM
// for index options. The baseline is sticky: a sustained OI level alerts
// once and the baseline advances, so only fresh build-ups fire again.
type OIScreener struct {
	desc      models.StrategyDescriptor
	symbols   []string
	selectors []kite.Selector
	detector  *detect.PercentChange
	deps      Deps
}

func NewOIScreener(name string, cfg config.Strategy, deps Deps) (repository.Strategy, error) {
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("symbols list is empty")
	}

	strikes := cfg.Strikes
	if strikes == "" {
		strikes = "ATM,ITM-1,OTM-1"
	}
	selectors, err := kite.ParseSelectors(strikes)
	if err != nil {
		return nil, err
	}

	changePct := cfg.ChangePct
	if changePct <= 0 {
		changePct = 5
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = time.Minute
	}

	return &OIScreener{
		desc: models.StrategyDescriptor{
			Name:         name,
			PollInterval: poll,
			Enabled:      cfg.Enabled,
		},
		symbols:   cfg.Symbols,
		selectors: selectors,
		detector:  detect.NewPercentChange(changePct, detect.Sticky),
		deps:      deps,
	}, nil
}

func (s *OIScreener) Descriptor() models.StrategyDescriptor { return s.desc }

func (s *OIScreener) Reset() { s.detector.Reset() }

func (s *OIScreener) Cycle(ctx context.Context) error {
	catalog, err := s.deps.Catalog.Instruments(ctx, "NFO")
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	var firstErr error
	for _, symbol := range s.symbols {
		if err := s.evaluate(ctx, catalog, symbol); err != nil {
			s.deps.Log.Warn("oi screener evaluation failed",
				logger.String("symbol", symbol), logger.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", symbol, err)
			}
		}
	}
	return firstErr
}

func (s *OIScreener) evaluate(ctx context.Context, catalog []models.Instrument, symbol string) error {
	spots, err := s.deps.Market.LTP(ctx, spotInstrument(symbol))
	if err != nil {
		return fmt.Errorf("spot: %w", err)
	}
	spot, ok := spots[spotInstrument(symbol)]
	if !ok || spot <= 0 {
		return fmt.Errorf("no spot price for %s", symbol)
	}

	chain, err := kite.BuildChain(catalog, symbol, s.deps.Now())
	if err != nil {
		return err
	}

	contracts, err := ladderContracts(chain, spot, s.selectors)
	if err != nil {
		return err
	}
	if len(contracts) == 0 {
		return fmt.Errorf("no contracts selected for %s", symbol)
	}

	keys := make([]string, 0, len(contracts))
	for _, inst := range contracts {
		keys = append(keys, inst.Exchange+":"+inst.TradingSymbol)
	}
	quotes, err := s.deps.Market.Quote(ctx, keys...)
	if err != nil {
		return fmt.Errorf("quotes: %w", err)
	}

	for _, inst := range contracts {
		key := inst.Exchange + ":" + inst.TradingSymbol
		quote, ok := quotes[key]
		if !ok {
			continue
		}
		s.deps.Metrics.RecordObservation(s.desc.Name, inst.TradingSymbol, quote.OpenInterest)

		pct, fired := s.detector.Observe(key, quote.OpenInterest)
		if !fired {
			continue
		}
		message := fmt.Sprintf("%s %s %.0f %s OI %+.2f%% (OI %.0f, LTP %.2f)",
			symbol, inst.Expiry.Format("02Jan"), inst.Strike, inst.InstrumentType,
			pct, quote.OpenInterest, quote.LastPrice)
		s.deps.Alerts.Alert(ctx, s.desc.Name, "OI change alert", message)
	}
	return nil
}

// ladderContracts resolves the selector ladder for both contract types.
// Selectors that fall off the ladder edge are skipped.
func ladderContracts(chain *kite.Chain, spot float64, selectors []kite.Selector) ([]models.Instrument, error) {
	var out []models.Instrument
	for _, optType := range []string{models.OptionTypeCall, models.OptionTypePut} {
		for _, sel := range selectors {
			strike, err := chain.StrikeAt(spot, sel.Offset(optType))
			if err != nil {
				continue
			}
			if inst, ok := chain.Contract(strike, optType); ok {
				out = append(out, inst)
			}
		}
	}
	return out, nil
}
