// Package engine is the on-demand request path: build features, ask the
// oracle, and open a signal when the decision is tradeable.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"bullsignals/internal/features"
	"bullsignals/internal/metrics"
	"bullsignals/internal/model"
	"bullsignals/internal/notification"
)

// ErrCooldown is returned when a per-symbol ask cooldown is configured and
// a signal was opened too recently.
var ErrCooldown = errors.New("ask cooldown active")

// Config configures the Engine.
type Config struct {
	Symbol       string // namespace symbol, e.g. "BTCUSDT"
	MarketSymbol string // market-data symbol, e.g. "BTC-USDT"
	Timeframe    string // label stored on signals, e.g. "1h"
	Interval     string // market-data interval, e.g. "1hour"

	Threshold float64
	TPPct     float64 // default take-profit pct when the oracle omits one
	SLPct     float64 // default stop-loss pct when the oracle omits one
	OracleURL string  // recorded on signals as their source

	// AskCooldown > 0 rejects asks arriving within the window after a
	// signal was opened. Zero disables deduplication entirely.
	AskCooldown time.Duration
}

// Engine wires the feature builder, oracle and store behind the operation
// surface consumed by the HTTP layer. Notifier and Metrics are optional.
type Engine struct {
	cfg      Config
	builder  *features.Builder
	source   model.MarketDataSource
	oracle   model.SignalOracle
	store    model.SignalStore
	notifier notification.Notifier
	prom     *metrics.Metrics
	log      *slog.Logger

	mu         sync.Mutex
	lastOpened time.Time
}

// New creates an Engine. logger must be non-nil.
func New(cfg Config, builder *features.Builder, source model.MarketDataSource,
	oracle model.SignalOracle, store model.SignalStore,
	notifier notification.Notifier, prom *metrics.Metrics, logger *slog.Logger) *Engine {

	return &Engine{
		cfg:      cfg,
		builder:  builder,
		source:   source,
		oracle:   oracle,
		store:    store,
		notifier: notifier,
		prom:     prom,
		log:      logger,
	}
}

// HealthInfo is the payload behind the health operation.
type HealthInfo struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Price     float64 `json:"price"`
	Threshold float64 `json:"threshold"`
	TPPct     float64 `json:"tp_pct"`
	SLPct     float64 `json:"sl_pct"`
	TS        string  `json:"ts"`
}

// Health reports the current spot price and configured thresholds. A failed
// price read leaves Price at zero rather than failing the whole probe.
func (e *Engine) Health(ctx context.Context) *HealthInfo {
	info := &HealthInfo{
		Symbol:    e.cfg.Symbol,
		Timeframe: e.cfg.Timeframe,
		Threshold: e.cfg.Threshold,
		TPPct:     e.cfg.TPPct,
		SLPct:     e.cfg.SLPct,
		TS:        time.Now().UTC().Format(time.RFC3339),
	}
	price, err := e.source.SpotPrice(ctx, e.cfg.MarketSymbol)
	if err != nil {
		e.log.Warn("health price read failed", "error", err)
		return info
	}
	info.Price = price
	return info
}

// FeaturesNow computes a feature vector for the current series. Exposed for
// debugging the classifier input.
func (e *Engine) FeaturesNow(ctx context.Context) (*features.Result, error) {
	return e.builder.Build(ctx, e.cfg.MarketSymbol, e.cfg.Interval)
}

// AskResult is the outcome of one Ask invocation.
type AskResult struct {
	NoTrade  bool
	ID       string
	Signal   *model.Signal
	Decision *model.OracleDecision
}

// Ask runs one pass of the request pipeline: features → oracle → open
// signal. A NO-TRADE decision returns with no persistence side effect.
// The operation is deliberately not idempotent — every tradeable decision
// opens a new signal; AskCooldown is the only throttle.
func (e *Engine) Ask(ctx context.Context, leverage int) (*AskResult, error) {
	if err := e.checkCooldown(); err != nil {
		return nil, err
	}
	if leverage <= 0 {
		leverage = 20
	}

	fetchStart := time.Now()
	res, err := e.builder.Build(ctx, e.cfg.MarketSymbol, e.cfg.Interval)
	if err != nil {
		e.askFailed(err)
		return nil, err
	}
	if e.prom != nil {
		e.prom.MarketFetchDur.Observe(time.Since(fetchStart).Seconds())
	}

	askStart := time.Now()
	decision, err := e.oracle.Ask(ctx, res.Features, e.cfg.Threshold)
	if err != nil {
		e.askFailed(err)
		return nil, err
	}
	if e.prom != nil {
		e.prom.OracleRequestDur.Observe(time.Since(askStart).Seconds())
	}

	if !decision.Tradeable() {
		if e.prom != nil {
			e.prom.NoTradeDecisions.Inc()
		}
		e.log.Info("no-trade decision", "probability", decision.Probability)
		return &AskResult{NoTrade: true, Decision: decision}, nil
	}

	entry := res.LastClose
	if entry == 0 {
		// Fall back to the live spot price when the series close is unusable.
		entry, err = e.source.SpotPrice(ctx, e.cfg.MarketSymbol)
		if err != nil {
			e.askFailed(err)
			return nil, err
		}
	}

	tpPct := e.cfg.TPPct
	if decision.TPPct != nil {
		tpPct = *decision.TPPct
	}
	slPct := e.cfg.SLPct
	if decision.SLPct != nil {
		slPct = *decision.SLPct
	}
	threshold := e.cfg.Threshold
	if decision.Threshold != nil {
		threshold = *decision.Threshold
	}

	sig := &model.Signal{
		Symbol:      e.cfg.Symbol,
		Timeframe:   e.cfg.Timeframe,
		Side:        decision.Side,
		Probability: decision.Probability,
		Threshold:   threshold,
		EntryPrice:  round2(entry),
		LastPrice:   round2(entry),
		TPPrice:     takeProfitPrice(decision.Side, entry, tpPct),
		SLPrice:     stopLossPrice(decision.Side, entry, slPct),
		TPPct:       tpPct,
		SLPct:       slPct,
		Leverage:    leverage,
		Status:      model.StatusOpen,
		TimeOpen:    time.Now().UTC().Format(time.RFC3339),
		Source:      e.cfg.OracleURL,
		Features:    res.Features,
	}

	id, err := e.store.Append(ctx, e.cfg.Symbol, sig)
	if err != nil {
		e.askFailed(err)
		return nil, err
	}

	e.markOpened()
	e.log.Info("signal opened", "id", id, "side", sig.Side,
		"entry", sig.EntryPrice, "tp", sig.TPPrice, "sl", sig.SLPrice,
		"probability", sig.Probability)
	if e.prom != nil {
		e.prom.SignalsOpened.Inc()
	}
	if e.notifier != nil {
		if err := e.notifier.Send(ctx, notification.SignalOpenedAlert(id, sig)); err != nil {
			e.log.Error("open notification failed", "id", id, "error", err)
		}
	}

	return &AskResult{ID: id, Signal: sig, Decision: decision}, nil
}

func (e *Engine) askFailed(err error) {
	if e.prom != nil {
		e.prom.AskErrors.Inc()
	}
	e.log.Error("ask failed", "error", err)
}

func (e *Engine) checkCooldown() error {
	if e.cfg.AskCooldown <= 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.lastOpened.IsZero() && time.Since(e.lastOpened) < e.cfg.AskCooldown {
		return ErrCooldown
	}
	return nil
}

func (e *Engine) markOpened() {
	if e.cfg.AskCooldown <= 0 {
		return
	}
	e.mu.Lock()
	e.lastOpened = time.Now()
	e.mu.Unlock()
}

// takeProfitPrice sits above entry for CALL and below for PUT.
func takeProfitPrice(side model.Side, entry, pct float64) float64 {
	if side == model.SideCall {
		return round2(entry * (1 + pct))
	}
	return round2(entry * (1 - pct))
}

// stopLossPrice sits below entry for CALL and above for PUT.
func stopLossPrice(side model.Side, entry, pct float64) float64 {
	if side == model.SideCall {
		return round2(entry * (1 - pct))
	}
	return round2(entry * (1 + pct))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
