// Package marketdata composes market-data sources. The REST client is
// authoritative; an optional live feed covers brief REST outages for spot
// reads.
package marketdata

import (
	"context"
	"log/slog"
	"time"

	"bullsignals/internal/model"
)

// LivePrice is the cache surface of a streaming price feed.
type LivePrice interface {
	LastPrice() (price float64, at time.Time, ok bool)
}

// maxLiveAge bounds how stale a cached feed price may be before it stops
// qualifying as a fallback.
const maxLiveAge = 30 * time.Second

// FallbackSource wraps a primary MarketDataSource and serves spot prices
// from a live feed cache when the primary read fails.
type FallbackSource struct {
	primary model.MarketDataSource
	live    LivePrice
	log     *slog.Logger
}

// WithFallback composes primary with a live price cache. live may be nil,
// in which case the primary is returned unchanged.
func WithFallback(primary model.MarketDataSource, live LivePrice, logger *slog.Logger) model.MarketDataSource {
	if live == nil {
		return primary
	}
	return &FallbackSource{primary: primary, live: live, log: logger}
}

func (s *FallbackSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	return s.primary.Candles(ctx, symbol, interval, limit)
}

func (s *FallbackSource) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := s.primary.SpotPrice(ctx, symbol)
	if err == nil {
		return price, nil
	}
	if live, at, ok := s.live.LastPrice(); ok && time.Since(at) <= maxLiveAge {
		s.log.Warn("spot read failed, serving live feed price", "error", err, "age", time.Since(at))
		return live, nil
	}
	return 0, err
}
