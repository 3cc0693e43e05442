// Package pricefeed streams live trade prices from KuCoin's public
// websocket and caches the most recent one. The REST source stays the
// authoritative read; the feed serves freshness checks and acts as a
// fallback when REST is briefly unavailable.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultBulletURL = "https://api.kucoin.com/api/v1/bullet-public"

// Feed maintains one websocket subscription to a symbol's ticker topic.
type Feed struct {
	symbol    string // KuCoin form, e.g. "BTC-USDT"
	bulletURL string
	http      *http.Client

	mu      sync.RWMutex
	price   float64
	priceAt time.Time
}

// New creates a Feed for symbol. bulletURL "" uses the public endpoint.
func New(symbol, bulletURL string) *Feed {
	if bulletURL == "" {
		bulletURL = defaultBulletURL
	}
	return &Feed{
		symbol:    symbol,
		bulletURL: bulletURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// LastPrice returns the cached price and its receive time. ok is false
// until the first tick arrives.
func (f *Feed) LastPrice() (price float64, at time.Time, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.price, f.priceAt, !f.priceAt.IsZero()
}

// Run maintains the subscription until ctx is cancelled, reconnecting with
// capped exponential backoff.
func (f *Feed) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}
		err := f.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("[pricefeed] disconnected: %v (retrying in %v)", err, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
	}
}

// bullet is KuCoin's websocket connection handshake payload.
type bullet struct {
	Token   string `json:"token"`
	Servers []struct {
		Endpoint     string `json:"endpoint"`
		PingInterval int64  `json:"pingInterval"` // ms
	} `json:"instanceServers"`
}

// negotiate obtains a websocket endpoint and token via the bullet endpoint.
func (f *Feed) negotiate(ctx context.Context) (endpoint string, pingEvery time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.bulletURL, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("bullet status %d", resp.StatusCode)
	}

	var env struct {
		Code string `json:"code"`
		Data bullet `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", 0, err
	}
	if env.Code != "200000" || len(env.Data.Servers) == 0 {
		return "", 0, fmt.Errorf("bullet code %s", env.Code)
	}

	srv := env.Data.Servers[0]
	pingEvery = time.Duration(srv.PingInterval) * time.Millisecond
	if pingEvery <= 0 {
		pingEvery = 30 * time.Second
	}
	return srv.Endpoint + "?token=" + env.Data.Token, pingEvery, nil
}

func (f *Feed) consume(ctx context.Context) error {
	url, pingEvery, err := f.negotiate(ctx)
	if err != nil {
		return fmt.Errorf("negotiate: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sub := map[string]any{
		"id":       strconv.FormatInt(time.Now().UnixNano(), 10),
		"type":     "subscribe",
		"topic":    "/market/ticker:" + f.symbol,
		"response": true,
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("[pricefeed] subscribed to ticker %s", f.symbol)

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(2 * pingEvery))

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				msg := map[string]string{
					"id":   strconv.FormatInt(time.Now().UnixNano(), 10),
					"type": "ping",
				}
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("[pricefeed] ping failed: %v", err)
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(2 * pingEvery))

		var msg struct {
			Type string `json:"type"`
			Data struct {
				Price string `json:"price"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("[pricefeed] bad message: %v", err)
			continue
		}
		if msg.Type != "message" || msg.Data.Price == "" {
			continue
		}
		price, err := strconv.ParseFloat(msg.Data.Price, 64)
		if err != nil {
			log.Printf("[pricefeed] bad price %q", msg.Data.Price)
			continue
		}

		f.mu.Lock()
		f.price = price
		f.priceAt = time.Now()
		f.mu.Unlock()
	}
}
