package strategy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/pkg/config"
	"OptAlert/pkg/logger"
)

type fakeMarket struct {
	mu         sync.Mutex
	quotes     []map[string]models.Quote // one entry per Quote call
	quoteCall  int
	ltp        map[string]float64
	candles    [][]models.Candle // one entry per Historical call
	candleCall int
}

func (m *fakeMarket) Quote(_ context.Context, instruments ...string) (map[string]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quoteCall >= len(m.quotes) {
		return nil, fmt.Errorf("no quote fixture for call %d", m.quoteCall)
	}
	out := m.quotes[m.quoteCall]
	m.quoteCall++
	return out, nil
}

func (m *fakeMarket) LTP(_ context.Context, instruments ...string) (map[string]float64, error) {
	out := make(map[string]float64, len(instruments))
	for _, key := range instruments {
		if p, ok := m.ltp[key]; ok {
			out[key] = p
		}
	}
	return out, nil
}

func (m *fakeMarket) Historical(_ context.Context, _ int64, _ string, _, _ time.Time) ([]models.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.candleCall >= len(m.candles) {
		return nil, fmt.Errorf("no candle fixture for call %d", m.candleCall)
	}
	out := m.candles[m.candleCall]
	m.candleCall++
	return out, nil
}

func (m *fakeMarket) Instruments(context.Context, string) ([]models.Instrument, error) {
	return nil, fmt.Errorf("not used")
}

type fakeCatalog struct {
	instruments []models.Instrument
}

func (c *fakeCatalog) Instruments(context.Context, string) ([]models.Instrument, error) {
	return c.instruments, nil
}

type capturedAlert struct {
	strategy string
	subject  string
	message  string
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []capturedAlert
}

func (a *fakeAlerter) Alert(_ context.Context, strategy, subject, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, capturedAlert{strategy, subject, message})
}

func (a *fakeAlerter) all() []capturedAlert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]capturedAlert, len(a.alerts))
	copy(out, a.alerts)
	return out
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, string)                {}
func (nopMetrics) RecordAlert(string)                        {}
func (nopMetrics) RecordNotifyError(string)                  {}
func (nopMetrics) RecordObservation(string, string, float64) {}
func (nopMetrics) RecordCycleDuration(string, float64)       {}
func (nopMetrics) SetSessionOpen(bool)                       {}

func testDeps(t *testing.T, market *fakeMarket, catalog *fakeCatalog, alerts *fakeAlerter) Deps {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return Deps{
		Market:  market,
		Catalog: catalog,
		Alerts:  alerts,
		Metrics: nopMetrics{},
		Log:     log,
		Now: func() time.Time {
			return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
		},
	}
}

func threshold(v float64) *float64 { return &v }

func optionContract(name string, strike float64, optType string) models.Instrument {
	return models.Instrument{
		Token:          int64(strike),
		Exchange:       "NFO",
		TradingSymbol:  fmt.Sprintf("%s25JUN%.0f%s", name, strike, optType),
		Name:           name,
		Expiry:         time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		Strike:         strike,
		InstrumentType: optType,
		Segment:        "NFO-OPT",
		LotSize:        50,
	}
}

func TestBuildSkipsUnknownAndRequiresEnabled(t *testing.T) {
	deps := testDeps(t, &fakeMarket{}, &fakeCatalog{}, &fakeAlerter{})

	cfgs := map[string]config.Strategy{
		"oi_spurt":     {Enabled: true, ChangePct: 5},
		"not_a_thing":  {Enabled: true},
		"oi_screener":  {Enabled: false, Symbols: []string{"NIFTY"}},
	}
	strategies, err := Build(cfgs, deps)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(strategies) != 2 {
		t.Fatalf("got %d strategies, want 2 (unknown skipped)", len(strategies))
	}

	allOff := map[string]config.Strategy{
		"oi_spurt": {Enabled: false},
	}
	if _, err := Build(allOff, deps); err == nil {
		t.Fatalf("zero enabled strategies must be an error")
	}
}

func flatCandles(closeNear string, n int) []models.Candle {
	base := time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		c := 110.0
		if closeNear == "low" {
			c = 90.0
		}
		out[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
			Open:      100, High: 110, Low: 90, Close: c,
			Volume: 1000,
		}
	}
	return out
}

func TestWilliamsRFiresOnDownCross(t *testing.T) {
	market := &fakeMarket{
		candles: [][]models.Candle{
			flatCandles("high", 5), // %R = 0, seeds the detector
			flatCandles("low", 5),  // %R = -100, crosses below
			flatCandles("low", 5),  // stays below, must not re-fire
		},
	}
	catalog := &fakeCatalog{instruments: []models.Instrument{
		optionContract("RELIANCE", 85, models.OptionTypePut),
		optionContract("RELIANCE", 95, models.OptionTypePut),
	}}
	alerts := &fakeAlerter{}
	deps := testDeps(t, market, catalog, alerts)

	st, err := NewWilliamsR("williams_r", config.Strategy{
		Enabled:     true,
		Period:      3,
		Threshold:   threshold(-20),
		Instruments: map[string]int64{"RELIANCE": 738561},
	}, deps)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := st.Cycle(ctx); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}

	got := alerts.all()
	if len(got) != 1 {
		t.Fatalf("got %d alerts, want exactly 1", len(got))
	}
	if got[0].strategy != "williams_r" {
		t.Fatalf("alert strategy = %s", got[0].strategy)
	}
	// Spot is 90; nearest OTM put below spot is the 85 strike.
	if !strings.Contains(got[0].message, "85") {
		t.Fatalf("alert should suggest the 85 put: %s", got[0].message)
	}
}

// candlesClosingAt is flatCandles with an explicit close, for %R values
// between the extremes.
func candlesClosingAt(close float64, n int) []models.Candle {
	out := flatCandles("high", n)
	for i := range out {
		out[i].Close = close
	}
	return out
}

func TestWilliamsRZeroThresholdIsHonored(t *testing.T) {
	// %R goes 0 -> -10: crosses below an explicit 0 threshold but never
	// reaches the -20 default, so a fire proves the zero was kept.
	market := &fakeMarket{
		candles: [][]models.Candle{
			flatCandles("high", 5),
			candlesClosingAt(108, 5), // %R = -10
		},
	}
	catalog := &fakeCatalog{}
	alerts := &fakeAlerter{}
	deps := testDeps(t, market, catalog, alerts)

	st, err := NewWilliamsR("williams_r", config.Strategy{
		Enabled:     true,
		Period:      3,
		Threshold:   threshold(0),
		Instruments: map[string]int64{"TCS": 2953217},
	}, deps)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := st.Cycle(context.Background()); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}
	if got := len(alerts.all()); got != 1 {
		t.Fatalf("expected 1 alert for a cross below zero, got %d", got)
	}
}

func TestOIScreenerStickyBaseline(t *testing.T) {
	name := "NIFTY"
	ce := optionContract(name, 24950, models.OptionTypeCall)
	pe := optionContract(name, 24950, models.OptionTypePut)
	catalog := &fakeCatalog{instruments: []models.Instrument{
		ce, pe,
		optionContract(name, 24900, models.OptionTypeCall),
		optionContract(name, 24900, models.OptionTypePut),
		optionContract(name, 25000, models.OptionTypeCall),
		optionContract(name, 25000, models.OptionTypePut),
	}}

	quoteFor := func(inst models.Instrument, oi float64) (string, models.Quote) {
		key := inst.Exchange + ":" + inst.TradingSymbol
		return key, models.Quote{Instrument: key, LastPrice: 120, OpenInterest: oi}
	}
	mk := func(ceOI, peOI float64) map[string]models.Quote {
		out := make(map[string]models.Quote)
		k, q := quoteFor(ce, ceOI)
		out[k] = q
		k, q = quoteFor(pe, peOI)
		out[k] = q
		return out
	}

	market := &fakeMarket{
		ltp: map[string]float64{"NSE:NIFTY 50": 24960},
		quotes: []map[string]models.Quote{
			mk(100, 100), // seed
			mk(106, 102), // CE +6% fires, PE +2% does not
			mk(106, 102), // sticky baseline advanced, nothing fires
		},
	}
	alerts := &fakeAlerter{}
	deps := testDeps(t, market, catalog, alerts)

	st, err := NewOIScreener("oi_screener", config.Strategy{
		Enabled:   true,
		Symbols:   []string{name},
		Strikes:   "ATM",
		ChangePct: 5,
	}, deps)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := st.Cycle(ctx); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}

	got := alerts.all()
	if len(got) != 1 {
		t.Fatalf("got %d alerts, want exactly 1", len(got))
	}
	if !strings.Contains(got[0].message, "CE") {
		t.Fatalf("alert must name the CE contract: %s", got[0].message)
	}
}

func TestOISpurtRollingBaseline(t *testing.T) {
	name := "TCS"
	ce := optionContract(name, 3500, models.OptionTypeCall)
	pe := optionContract(name, 3500, models.OptionTypePut)
	catalog := &fakeCatalog{instruments: []models.Instrument{
		ce, pe,
		optionContract(name, 3400, models.OptionTypeCall),
		optionContract(name, 3600, models.OptionTypePut),
	}}

	mk := func(ceOI, peOI float64) map[string]models.Quote {
		out := make(map[string]models.Quote)
		out["NFO:"+ce.TradingSymbol] = models.Quote{LastPrice: 40, OpenInterest: ceOI}
		out["NFO:"+pe.TradingSymbol] = models.Quote{LastPrice: 38, OpenInterest: peOI}
		return out
	}

	market := &fakeMarket{
		ltp: map[string]float64{"NSE:TCS": 3510},
		quotes: []map[string]models.Quote{
			mk(100, 100), // seed
			mk(106, 103), // CE +6% fires
			mk(113, 103), // CE +6.6% over the rolled baseline fires again
		},
	}
	alerts := &fakeAlerter{}
	deps := testDeps(t, market, catalog, alerts)

	st, err := NewOISpurt("oi_spurt", config.Strategy{
		Enabled:   true,
		Symbols:   []string{name},
		ChangePct: 5,
	}, deps)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := st.Cycle(ctx); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}

	got := alerts.all()
	if len(got) != 2 {
		t.Fatalf("got %d alerts, want 2 (rolling baseline re-fires)", len(got))
	}
	for _, a := range got {
		if a.strategy != "oi_spurt" || !strings.Contains(a.message, "CE") {
			t.Fatalf("unexpected alert: %+v", a)
		}
	}
}

func TestWilliamsRResetClearsState(t *testing.T) {
	market := &fakeMarket{
		candles: [][]models.Candle{
			flatCandles("low", 5),  // seeds at -100
			flatCandles("low", 5),  // still -100, no cross
			flatCandles("high", 5), // after reset this seeds again at 0
			flatCandles("low", 5),  // crosses below, fires
		},
	}
	catalog := &fakeCatalog{}
	alerts := &fakeAlerter{}
	deps := testDeps(t, market, catalog, alerts)

	st, err := NewWilliamsR("williams_r", config.Strategy{
		Enabled:     true,
		Period:      3,
		Threshold:   threshold(-20),
		Instruments: map[string]int64{"INFY": 408065},
	}, deps)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	st.Cycle(ctx)
	st.Cycle(ctx)
	if len(alerts.all()) != 0 {
		t.Fatalf("seeding below the threshold must not alert")
	}

	st.Reset()
	st.Cycle(ctx)
	st.Cycle(ctx)
	if len(alerts.all()) != 1 {
		t.Fatalf("got %d alerts after reset, want 1", len(alerts.all()))
	}
}
