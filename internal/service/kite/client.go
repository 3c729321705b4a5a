// Package kite implements the market-data contract against the Zerodha
// Kite Connect REST API.
package kite

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"OptAlert/internal/domain/models"
	"OptAlert/internal/service/ratelimit"
	"OptAlert/pkg/logger"
)

const (
	kiteVersion    = "3"
	candleLayout   = "2006-01-02 15:04:05"
	historicalTime = "2006-01-02T15:04:05-0700"
)

// Config carries Kite Connect client settings.
type Config struct {
	BaseURL         string
	APIKey          string
	AccessToken     string
	Timeout         time.Duration
	RateLimitPerSec float64
}

// Client is a rate-limited Kite Connect REST client.
type Client struct {
	http    *resty.Client
	limiter *ratelimit.Limiter
	rate    float64
	log     *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("X-Kite-Version", kiteVersion).
		SetHeader("Authorization", fmt.Sprintf("token %s:%s", cfg.APIKey, cfg.AccessToken)).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &Client{
		http:    http,
		limiter: ratelimit.New(),
		rate:    cfg.RateLimitPerSec,
		log:     log,
	}
}

// envelope is the common Kite response wrapper.
type envelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
	Data      json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if err := c.limiter.Wait(ctx, "kite", c.rate, c.rate); err != nil {
		return err
	}

	req := c.http.R().SetContext(ctx)
	for k, vals := range query {
		for _, v := range vals {
			req.QueryParam.Add(k, v)
		}
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("kite get %s: %w", path, err)
	}
	if resp.IsError() {
		var env envelope
		if jsonErr := json.Unmarshal(resp.Body(), &env); jsonErr == nil && env.Message != "" {
			return fmt.Errorf("kite %s: %s (%s)", path, env.Message, env.ErrorType)
		}
		return fmt.Errorf("kite %s: status %d", path, resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("kite %s: decode: %w", path, err)
	}
	if env.Status != "success" && env.Status != "ok" {
		return fmt.Errorf("kite %s: %s (%s)", path, env.Message, env.ErrorType)
	}
	if dest != nil {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return fmt.Errorf("kite %s: decode data: %w", path, err)
		}
	}
	return nil
}

type quotePayload struct {
	LastPrice    float64 `json:"last_price"`
	OpenInterest float64 `json:"oi"`
	Volume       int64   `json:"volume"`
}

// Quote fetches full snapshots for instruments given as EXCHANGE:SYMBOL.
func (c *Client) Quote(ctx context.Context, instruments ...string) (map[string]models.Quote, error) {
	var data map[string]quotePayload
	if err := c.get(ctx, "/quote", map[string][]string{"i": instruments}, &data); err != nil {
		return nil, err
	}

	out := make(map[string]models.Quote, len(data))
	for key, q := range data {
		out[key] = models.Quote{
			Instrument:   key,
			LastPrice:    q.LastPrice,
			OpenInterest: q.OpenInterest,
			Volume:       q.Volume,
		}
	}
	return out, nil
}

type ltpPayload struct {
	LastPrice float64 `json:"last_price"`
}

// LTP fetches last traded prices only.
func (c *Client) LTP(ctx context.Context, instruments ...string) (map[string]float64, error) {
	var data map[string]ltpPayload
	if err := c.get(ctx, "/quote/ltp", map[string][]string{"i": instruments}, &data); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(data))
	for key, q := range data {
		out[key] = q.LastPrice
	}
	return out, nil
}

type candlesPayload struct {
	Candles [][]interface{} `json:"candles"`
}

// Historical fetches OHLC bars for one instrument token.
func (c *Client) Historical(ctx context.Context, token int64, interval string, from, to time.Time) ([]models.Candle, error) {
	path := fmt.Sprintf("/instruments/historical/%d/%s", token, interval)
	query := map[string][]string{
		"from": {from.Format(candleLayout)},
		"to":   {to.Format(candleLayout)},
	}

	var data candlesPayload
	if err := c.get(ctx, path, query, &data); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(data.Candles))
	for _, raw := range data.Candles {
		candle, err := parseCandle(raw)
		if err != nil {
			return nil, fmt.Errorf("kite historical: %w", err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// parseCandle decodes one [ts, open, high, low, close, volume] row.
func parseCandle(raw []interface{}) (models.Candle, error) {
	if len(raw) < 6 {
		return models.Candle{}, fmt.Errorf("candle row has %d fields, want 6", len(raw))
	}

	tsStr, ok := raw[0].(string)
	if !ok {
		return models.Candle{}, fmt.Errorf("candle timestamp is %T, want string", raw[0])
	}
	ts, err := time.Parse(historicalTime, tsStr)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse candle timestamp %q: %w", tsStr, err)
	}

	nums := make([]float64, 5)
	for i := 1; i < 6; i++ {
		n, ok := raw[i].(float64)
		if !ok {
			return models.Candle{}, fmt.Errorf("candle field %d is %T, want number", i, raw[i])
		}
		nums[i-1] = n
	}

	return models.Candle{
		Timestamp: ts,
		Open:      nums[0],
		High:      nums[1],
		Low:       nums[2],
		Close:     nums[3],
		Volume:    int64(nums[4]),
	}, nil
}

// Instruments downloads the instrument catalog for one exchange. The
// endpoint serves CSV, not the JSON envelope.
func (c *Client) Instruments(ctx context.Context, exchange string) ([]models.Instrument, error) {
	if err := c.limiter.Wait(ctx, "kite", c.rate, c.rate); err != nil {
		return nil, err
	}

	resp, err := c.http.R().SetContext(ctx).Get("/instruments/" + exchange)
	if err != nil {
		return nil, fmt.Errorf("kite instruments %s: %w", exchange, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("kite instruments %s: status %d", exchange, resp.StatusCode())
	}

	instruments, err := parseInstrumentsCSV(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("kite instruments %s: %w", exchange, err)
	}
	c.log.Info("instrument catalog downloaded",
		logger.String("exchange", exchange),
		logger.Int("instruments", len(instruments)))
	return instruments, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
