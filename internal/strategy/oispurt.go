package strategy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"OptAlert/internal/detect"
	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/internal/service/kite"
	"OptAlert/pkg/config"
	"OptAlert/pkg/logger"
)

// quoteBatchSize keeps quote requests under the broker's per-call limit.
const quoteBatchSize = 200

// OISpurt watches ATM option open interest across the whole stock F&O
// universe. The baseline rolls every cycle, so it catches sharp per-cycle
// spurts rather than slow build-ups.
type OISpurt struct {
	desc     models.StrategyDescriptor
	symbols  []string // optional override; empty means the full universe
	detector *detect.PercentChange
	deps     Deps
}

func NewOISpurt(name string, cfg config.Strategy, deps Deps) (repository.Strategy, error) {
	changePct := cfg.ChangePct
	if changePct <= 0 {
		changePct = 5
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Minute
	}

	return &OISpurt{
		desc: models.StrategyDescriptor{
			Name:         name,
			PollInterval: poll,
			Enabled:      cfg.Enabled,
		},
		symbols:  cfg.Symbols,
		detector: detect.NewPercentChange(changePct, detect.Rolling),
		deps:     deps,
	}, nil
}

func (s *OISpurt) Descriptor() models.StrategyDescriptor { return s.desc }

func (s *OISpurt) Reset() { s.detector.Reset() }

func (s *OISpurt) Cycle(ctx context.Context) error {
	catalog, err := s.deps.Catalog.Instruments(ctx, "NFO")
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	universe := s.symbols
	if len(universe) == 0 {
		universe = stockUniverse(catalog)
	}
	if len(universe) == 0 {
		return fmt.Errorf("empty F&O stock universe")
	}

	spots, err := s.spotPrices(ctx, universe)
	if err != nil {
		return err
	}

	contracts := s.atmContracts(catalog, universe, spots)
	if len(contracts) == 0 {
		return fmt.Errorf("no ATM contracts resolved")
	}

	quotes, err := s.batchQuotes(ctx, contracts)
	if err != nil {
		return err
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
		message := fmt.Sprintf("%s %.0f %s OI spurt %+.2f%% (OI %.0f, LTP %.2f)",
			inst.Name, inst.Strike, inst.InstrumentType, pct, quote.OpenInterest, quote.LastPrice)
		s.deps.Alerts.Alert(ctx, s.desc.Name, "OI spurt alert", message)
	}
	return nil
}

// stockUniverse lists underlyings that have live option contracts,
// excluding index products.
func stockUniverse(catalog []models.Instrument) []string {
	seen := make(map[string]bool)
	for _, inst := range catalog {
		if inst.InstrumentType != models.OptionTypeCall && inst.InstrumentType != models.OptionTypePut {
			continue
		}
		if inst.Name == "" || isIndexUnderlying(inst.Name) {
			continue
		}
		seen[inst.Name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *OISpurt) spotPrices(ctx context.Context, universe []string) (map[string]float64, error) {
	out := make(map[string]float64, len(universe))
	for start := 0; start < len(universe); start += quoteBatchSize {
		end := start + quoteBatchSize
		if end > len(universe) {
			end = len(universe)
		}
		keys := make([]string, 0, end-start)
		for _, symbol := range universe[start:end] {
			keys = append(keys, spotInstrument(symbol))
		}
		prices, err := s.deps.Market.LTP(ctx, keys...)
		if err != nil {
			return nil, fmt.Errorf("spot batch: %w", err)
		}
		for i, symbol := range universe[start:end] {
			if p, ok := prices[keys[i]]; ok && p > 0 {
				out[symbol] = p
			}
		}
	}
	return out, nil
}

// atmContracts resolves the ATM call and put per underlying. Underlyings
// with no spot price or no live chain are skipped, not failed.
func (s *OISpurt) atmContracts(catalog []models.Instrument, universe []string, spots map[string]float64) []models.Instrument {
	day := s.deps.Now()
	var out []models.Instrument
	for _, symbol := range universe {
		spot, ok := spots[symbol]
		if !ok {
			continue
		}
		chain, err := kite.BuildChain(catalog, symbol, day)
		if err != nil {
			continue
		}
		atm, err := chain.ATM(spot)
		if err != nil {
			s.deps.Log.Debug("no ATM strike", logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		for _, optType := range []string{models.OptionTypeCall, models.OptionTypePut} {
			if inst, ok := chain.Contract(atm, optType); ok {
				out = append(out, inst)
			}
		}
	}
	return out
}

func (s *OISpurt) batchQuotes(ctx context.Context, contracts []models.Instrument) (map[string]models.Quote, error) {
	out := make(map[string]models.Quote, len(contracts))
	for start := 0; start < len(contracts); start += quoteBatchSize {
		end := start + quoteBatchSize
		if end > len(contracts) {
			end = len(contracts)
		}
		keys := make([]string, 0, end-start)
		for _, inst := range contracts[start:end] {
			keys = append(keys, inst.Exchange+":"+inst.TradingSymbol)
		}
		quotes, err := s.deps.Market.Quote(ctx, keys...)
		if err != nil {
			return nil, fmt.Errorf("quote batch: %w", err)
		}
		for key, quote := range quotes {
			out[key] = quote
		}
	}
	return out, nil
}
