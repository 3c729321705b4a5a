package kite

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/internal/domain/repository"
	"OptAlert/pkg/cache"
	"OptAlert/pkg/logger"
)

const expiryLayout = "2006-01-02"

// Catalog serves the instrument list through a cache layer. The exchange
// publishes a new catalog once per day, so a long TTL is safe.
type Catalog struct {
	source repository.MarketData
	cache  cache.Service
	ttl    time.Duration
	log    *logger.Logger
}

func NewCatalog(source repository.MarketData, c cache.Service, ttl time.Duration, log *logger.Logger) *Catalog {
	return &Catalog{source: source, cache: c, ttl: ttl, log: log}
}

// Instruments returns the catalog for one exchange, from cache when fresh.
func (c *Catalog) Instruments(ctx context.Context, exchange string) ([]models.Instrument, error) {
	key := "instruments:" + exchange

	var cached []models.Instrument
	if err := c.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	instruments, err := c.source.Instruments(ctx, exchange)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, instruments, c.ttl); err != nil {
		c.log.Warn("instrument catalog cache write failed",
			logger.String("exchange", exchange), logger.Error(err))
	}
	return instruments, nil
}

// parseInstrumentsCSV decodes the catalog dump. Column order follows the
// published format: instrument_token, exchange_token, tradingsymbol, name,
// last_price, expiry, strike, tick_size, lot_size, instrument_type,
// segment, exchange.
func parseInstrumentsCSV(body []byte) ([]models.Instrument, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"instrument_token", "tradingsymbol", "instrument_type", "exchange"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("catalog missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []models.Instrument
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		inst := models.Instrument{
			Token:          parseInt(field(row, "instrument_token")),
			Exchange:       field(row, "exchange"),
			TradingSymbol:  field(row, "tradingsymbol"),
			Name:           field(row, "name"),
			Strike:         parseFloat(field(row, "strike")),
			InstrumentType: field(row, "instrument_type"),
			Segment:        field(row, "segment"),
			LotSize:        int(parseInt(field(row, "lot_size"))),
		}
		if raw := field(row, "expiry"); raw != "" {
			if expiry, err := time.Parse(expiryLayout, raw); err == nil {
				inst.Expiry = expiry
			}
		}
		out = append(out, inst)
	}
	return out, nil
}
