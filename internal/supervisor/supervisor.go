// Package supervisor runs the periodic TP/SL evaluation over open signals.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bullsignals/internal/metrics"
	"bullsignals/internal/model"
	"bullsignals/internal/notification"
)

// Journal receives closed signals for durable audit storage.
type Journal interface {
	Record(ctx context.Context, id string, sig *model.Signal) error
}

// Config configures the Supervisor.
type Config struct {
	Symbol       string        // namespace symbol, e.g. "BTCUSDT"
	MarketSymbol string        // market-data symbol, e.g. "BTC-USDT"
	Interval     time.Duration // tick period, default 60s
}

// Supervisor owns the close loop: every tick it evaluates all open signals
// against one spot-price snapshot and moves TP/SL hits to the closed
// namespace. Journal, Notifier and Metrics are optional.
type Supervisor struct {
	cfg      Config
	source   model.MarketDataSource
	store    model.SignalStore
	journal  Journal
	notifier notification.Notifier
	prom     *metrics.Metrics
	log      *slog.Logger

	afterTick func()
}

// AfterTick registers fn to run after every successful tick. Used to stamp
// liveness for the health endpoint.
func (s *Supervisor) AfterTick(fn func()) { s.afterTick = fn }

// New creates a Supervisor. logger must be non-nil; journal, notifier and
// prom may be nil.
func New(cfg Config, source model.MarketDataSource, store model.SignalStore,
	journal Journal, notifier notification.Notifier, prom *metrics.Metrics,
	logger *slog.Logger) *Supervisor {

	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	return &Supervisor{
		cfg:      cfg,
		source:   source,
		store:    store,
		journal:  journal,
		notifier: notifier,
		prom:     prom,
		log:      logger,
	}
}

// Run ticks on a fixed period until ctx is cancelled. A failed tick is
// logged and never terminates future ticks. One tick runs immediately on
// start, matching the original worker's behavior.
func (s *Supervisor) Run(ctx context.Context) {
	s.log.Info("supervisor started", "symbol", s.cfg.Symbol, "interval", s.cfg.Interval)

	if err := s.Tick(ctx); err != nil {
		s.tickFailed(err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("supervisor stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.tickFailed(err)
			}
		}
	}
}

func (s *Supervisor) tickFailed(err error) {
	if s.prom != nil {
		s.prom.SupervisorTickErrors.Inc()
	}
	s.log.Error("supervisor tick failed", "error", err)
}

// Tick runs one close-evaluation pass. Exported so tests (and operators)
// can drive single ticks synchronously.
//
// All open signals in one tick are evaluated against the same price
// snapshot. A failure on one signal is logged and the loop continues; the
// returned error only covers failures that prevent the pass entirely
// (price fetch, open listing).
func (s *Supervisor) Tick(ctx context.Context) error {
	start := time.Now()

	price, err := s.source.SpotPrice(ctx, s.cfg.MarketSymbol)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}

	open, err := s.store.ListOpen(ctx, s.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}

	for id, sig := range open {
		s.evaluate(ctx, id, sig, price)
	}

	if s.prom != nil {
		s.prom.SupervisorTickDur.Observe(time.Since(start).Seconds())
	}
	if s.afterTick != nil {
		s.afterTick()
	}
	return nil
}

// evaluate processes a single open signal against the tick's price snapshot.
func (s *Supervisor) evaluate(ctx context.Context, id string, sig *model.Signal, price float64) {
	// Repair pass: a closed record already existing for this ID means a
	// previous close wrote the record but failed to remove the open entry.
	// Complete the removal instead of writing a duplicate.
	exists, err := s.store.ClosedExists(ctx, s.cfg.Symbol, id)
	if err != nil {
		s.log.Error("closed lookup failed", "id", id, "error", err)
		return
	}
	if exists {
		s.log.Warn("repairing half-closed signal", "id", id)
		if err := s.store.RemoveOpen(ctx, s.cfg.Symbol, id); err != nil {
			s.log.Error("repair removal failed", "id", id, "error", err)
		}
		return
	}

	if err := s.store.UpdateLastPrice(ctx, s.cfg.Symbol, id, price); err != nil {
		s.log.Error("last_price update failed", "id", id, "error", err)
		// Not fatal for this signal; the close evaluation still runs.
	}
	sig.LastPrice = price

	reason := sig.CloseReason(price)
	if reason == "" {
		return
	}

	closed := *sig
	closed.Status = model.StatusClosed
	closed.Reason = reason
	closed.ExitPrice = price
	closed.TimeClose = time.Now().UTC().Format(time.RFC3339)

	if err := s.store.WriteClosed(ctx, s.cfg.Symbol, id, &closed); err != nil {
		s.log.Error("closed write failed", "id", id, "error", err)
		return
	}
	if err := s.store.RemoveOpen(ctx, s.cfg.Symbol, id); err != nil {
		// Recoverable inconsistency: the repair pass completes the removal
		// on the next tick.
		s.log.Error("open removal failed after close", "id", id, "error", err)
	}

	s.log.Info("signal closed", "id", id, "reason", reason, "price", price,
		"entry", sig.EntryPrice, "side", sig.Side)
	if s.prom != nil {
		s.prom.SignalsClosed.WithLabelValues(reason).Inc()
	}
	if s.journal != nil {
		if err := s.journal.Record(ctx, id, &closed); err != nil {
			s.log.Error("journal write failed", "id", id, "error", err)
		}
	}
	if s.notifier != nil {
		alert := notification.SignalClosedAlert(id, &closed)
		if err := s.notifier.Send(ctx, alert); err != nil {
			s.log.Error("close notification failed", "id", id, "error", err)
		}
	}
}
