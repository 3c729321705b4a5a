package models

import "time"

// Quote is a single instrument snapshot from the broker.
type Quote struct {
	Instrument   string
	LastPrice    float64
	OpenInterest float64
	Volume       int64
}

// Candle is one OHLC bar from the historical data API.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Option contract types as the exchange encodes them.
const (
	OptionTypeCall = "CE"
	OptionTypePut  = "PE"
)

// Instrument is one row of the exchange instrument catalog.
type Instrument struct {
	Token          int64
	Exchange       string
	TradingSymbol  string
	Name           string
	Expiry         time.Time
	Strike         float64
	InstrumentType string // CE, PE, FUT, EQ
	Segment        string
	LotSize        int
}

// HasExpiry reports whether the contract expires on or after the given day.
func (i Instrument) HasExpiry(day time.Time) bool {
	if i.Expiry.IsZero() {
		return false
	}
	y1, m1, d1 := i.Expiry.Date()
	y2, m2, d2 := day.Date()
	if y1 != y2 {
		return y1 > y2
	}
	if m1 != m2 {
		return m1 > m2
	}
	return d1 >= d2
}
