package kite

import (
	"testing"
	"time"

	"OptAlert/internal/domain/models"
)

func optionCatalog(t *testing.T) []models.Instrument {
	t.Helper()
	near := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	far := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	expired := time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC)

	var out []models.Instrument
	add := func(strike float64, optType string, expiry time.Time) {
		out = append(out, models.Instrument{
			Token:          int64(len(out) + 1),
			Exchange:       "NFO",
			TradingSymbol:  "NIFTY-contract",
			Name:           "NIFTY",
			Expiry:         expiry,
			Strike:         strike,
			InstrumentType: optType,
			Segment:        "NFO-OPT",
			LotSize:        75,
		})
	}
	for _, strike := range []float64{24800, 24850, 24900, 24950, 25000, 25050, 25100} {
		add(strike, models.OptionTypeCall, near)
		add(strike, models.OptionTypePut, near)
		add(strike, models.OptionTypeCall, far)
		add(strike, models.OptionTypePut, far)
		add(strike, models.OptionTypeCall, expired)
	}
	// Futures and other underlyings must be ignored.
	out = append(out, models.Instrument{Name: "NIFTY", InstrumentType: "FUT", Expiry: near, Strike: 0})
	out = append(out, models.Instrument{Name: "BANKNIFTY", InstrumentType: "CE", Expiry: near, Strike: 56000})
	return out
}

func TestBuildChainPicksNearestLiveExpiry(t *testing.T) {
	day := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	chain, err := BuildChain(optionCatalog(t), "NIFTY", day)
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}
	if got := chain.Expiry.Format("2006-01-02"); got != "2025-06-05" {
		t.Fatalf("expiry = %s, want nearest live 2025-06-05", got)
	}
	if len(chain.Strikes()) != 7 {
		t.Fatalf("got %d strikes, want 7", len(chain.Strikes()))
	}
}

func TestBuildChainNoContracts(t *testing.T) {
	day := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if _, err := BuildChain(optionCatalog(t), "UNLISTED", day); err == nil {
		t.Fatalf("unknown underlying must fail")
	}
}

func TestChainATMAndOffsets(t *testing.T) {
	day := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	chain, err := BuildChain(optionCatalog(t), "NIFTY", day)
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}

	atm, err := chain.ATM(24972.10)
	if err != nil {
		t.Fatalf("atm: %v", err)
	}
	if atm != 24950 {
		t.Fatalf("atm = %v, want 24950", atm)
	}

	up, err := chain.StrikeAt(24972.10, 2)
	if err != nil {
		t.Fatalf("strike at +2: %v", err)
	}
	if up != 25050 {
		t.Fatalf("strike at +2 = %v, want 25050", up)
	}

	if _, err := chain.StrikeAt(24972.10, 10); err == nil {
		t.Fatalf("offset beyond the ladder must fail")
	}
}

func TestChainNearestOTMPut(t *testing.T) {
	day := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	chain, err := BuildChain(optionCatalog(t), "NIFTY", day)
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}

	put, ok := chain.NearestOTMPut(24960)
	if !ok {
		t.Fatalf("expected an OTM put below spot")
	}
	if put.Strike != 24950 || put.InstrumentType != models.OptionTypePut {
		t.Fatalf("got strike %v type %s, want 24950 PE", put.Strike, put.InstrumentType)
	}
}

func TestParseSelectors(t *testing.T) {
	sels, err := ParseSelectors("ATM, ITM-1, OTM-2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sels) != 3 {
		t.Fatalf("got %d selectors, want 3", len(sels))
	}

	// ITM for a call is below spot, for a put above.
	itm := sels[1]
	if itm.Offset(models.OptionTypeCall) != -1 || itm.Offset(models.OptionTypePut) != 1 {
		t.Fatalf("ITM-1 offsets wrong: CE=%d PE=%d",
			itm.Offset(models.OptionTypeCall), itm.Offset(models.OptionTypePut))
	}
	otm := sels[2]
	if otm.Offset(models.OptionTypeCall) != 2 || otm.Offset(models.OptionTypePut) != -2 {
		t.Fatalf("OTM-2 offsets wrong: CE=%d PE=%d",
			otm.Offset(models.OptionTypeCall), otm.Offset(models.OptionTypePut))
	}

	for _, bad := range []string{"", "ATM-1", "ITM-0", "XTM-2", "ITM-x"} {
		if _, err := ParseSelectors(bad); err == nil {
			t.Errorf("selector %q must be rejected", bad)
		}
	}
}

func TestParseCandle(t *testing.T) {
	raw := []interface{}{"2025-06-02T09:15:00+0530", 100.5, 101.0, 99.5, 100.75, 1200.0}
	candle, err := parseCandle(raw)
	if err != nil {
		t.Fatalf("parse candle: %v", err)
	}
	if candle.Open != 100.5 || candle.Close != 100.75 || candle.Volume != 1200 {
		t.Fatalf("unexpected candle: %+v", candle)
	}
	if candle.Timestamp.Hour() != 9 || candle.Timestamp.Minute() != 15 {
		t.Fatalf("unexpected candle time: %v", candle.Timestamp)
	}

	if _, err := parseCandle([]interface{}{"2025-06-02T09:15:00+0530", 1.0}); err == nil {
		t.Fatalf("short candle row must fail")
	}
	if _, err := parseCandle([]interface{}{12345, 1.0, 1.0, 1.0, 1.0, 1.0}); err == nil {
		t.Fatalf("non-string timestamp must fail")
	}
}

func TestParseInstrumentsCSV(t *testing.T) {
	body := []byte(`instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
256265,1001,NIFTY 50,NIFTY 50,0,,0,0.05,1,EQ,INDICES,NSE
12345,48,NIFTY2560524950PE,NIFTY,0,2025-06-05,24950,0.05,75,PE,NFO-OPT,NFO
`)
	instruments, err := parseInstrumentsCSV(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(instruments) != 2 {
		t.Fatalf("got %d instruments, want 2", len(instruments))
	}

	opt := instruments[1]
	if opt.Token != 12345 || opt.Strike != 24950 || opt.InstrumentType != "PE" || opt.LotSize != 75 {
		t.Fatalf("unexpected option row: %+v", opt)
	}
	if opt.Expiry.Format("2006-01-02") != "2025-06-05" {
		t.Fatalf("unexpected expiry: %v", opt.Expiry)
	}
	if !instruments[0].Expiry.IsZero() {
		t.Fatalf("equity row must have zero expiry")
	}

	if _, err := parseInstrumentsCSV([]byte("a,b,c\n1,2,3\n")); err == nil {
		t.Fatalf("catalog without required columns must fail")
	}
}
