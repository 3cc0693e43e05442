// Package kucoin fetches candles and spot prices from KuCoin's public
// market-data REST API. No API key is required for these endpoints.
package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bullsignals/internal/model"
)

const (
	// DefaultBaseURL is KuCoin's public REST endpoint.
	DefaultBaseURL = "https://api.kucoin.com"

	// successCode is KuCoin's in-body success marker.
	successCode = "200000"
)

// IntervalFromTimeframe maps a timeframe label to KuCoin's candle type
// parameter. Unknown labels fall through unchanged so callers may pass a
// native KuCoin type directly.
func IntervalFromTimeframe(tf string) string {
	switch tf {
	case "1m":
		return "1min"
	case "5m":
		return "5min"
	case "15m":
		return "15min"
	case "1h":
		return "1hour"
	case "4h":
		return "4hour"
	case "1d":
		return "1day"
	}
	return tf
}

// Client is a KuCoin public market-data client. It satisfies
// model.MarketDataSource.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client against the given base URL ("" for the public API).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Candles fetches candles for symbol (KuCoin form, e.g. "BTC-USDT") and
// interval, returning at most limit candles ordered oldest first. KuCoin
// serves rows newest first; they are reversed and trimmed here.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("type", interval)
	q.Set("symbol", symbol)

	data, err := c.get(ctx, "/api/v1/market/candles", q)
	if err != nil {
		return nil, &model.DataUnavailableError{Op: "candles", Symbol: symbol, Err: err}
	}

	// Row format: [time, open, close, high, low, volume, turnover], strings.
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &model.DataUnavailableError{Op: "candles", Symbol: symbol, Err: err}
	}
	if len(rows) == 0 {
		return nil, &model.DataUnavailableError{Op: "candles", Symbol: symbol, Err: fmt.Errorf("empty series")}
	}

	candles := make([]model.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		candle, err := parseRow(rows[i])
		if err != nil {
			return nil, &model.DataUnavailableError{Op: "candles", Symbol: symbol, Err: err}
		}
		candles = append(candles, candle)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// SpotPrice fetches the current best price from the level-1 orderbook.
func (c *Client) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	data, err := c.get(ctx, "/api/v1/market/orderbook/level1", q)
	if err != nil {
		return 0, &model.DataUnavailableError{Op: "spot", Symbol: symbol, Err: err}
	}

	var level1 struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(data, &level1); err != nil {
		return 0, &model.DataUnavailableError{Op: "spot", Symbol: symbol, Err: err}
	}
	price, err := strconv.ParseFloat(level1.Price, 64)
	if err != nil {
		return 0, &model.DataUnavailableError{Op: "spot", Symbol: symbol, Err: fmt.Errorf("bad price %q", level1.Price)}
	}
	return price, nil
}

// get performs a GET and unwraps KuCoin's {code, data} envelope.
func (c *Client) get(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Code != successCode {
		return nil, fmt.Errorf("kucoin code %s", env.Code)
	}
	return env.Data, nil
}

func parseRow(row []string) (model.Candle, error) {
	if len(row) < 6 {
		return model.Candle{}, fmt.Errorf("short candle row: %d fields", len(row))
	}
	vals := make([]float64, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return model.Candle{}, fmt.Errorf("candle field %d: %w", i, err)
		}
		vals[i] = v
	}
	return model.Candle{
		TS:     int64(vals[0]) * 1000, // KuCoin sends seconds
		Open:   vals[1],
		Close:  vals[2],
		High:   vals[3],
		Low:    vals[4],
		Volume: vals[5],
	}, nil
}
