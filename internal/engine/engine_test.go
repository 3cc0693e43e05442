package engine

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"bullsignals/internal/features"
	"bullsignals/internal/model"
	"bullsignals/internal/store/memory"
)

type fakeSource struct {
	candles []model.Candle
	spot    float64
	spotErr error
}

func (f *fakeSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	if limit > 0 && len(f.candles) > limit {
		return f.candles[len(f.candles)-limit:], nil
	}
	return f.candles, nil
}

func (f *fakeSource) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	if f.spotErr != nil {
		return 0, f.spotErr
	}
	return f.spot, nil
}

type fakeOracle struct {
	decision *model.OracleDecision
	err      error
	calls    int
}

func (f *fakeOracle) Ask(ctx context.Context, feat model.FeatureVector, threshold float64) (*model.OracleDecision, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.decision, nil
}

func testCandles(n int, lastClose float64) []model.Candle {
	out := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		close := 95 + float64(i%10)
		if i == n-1 {
			close = lastClose
		}
		out[i] = model.Candle{
			TS:    int64(1700000000+i*3600) * 1000,
			Open:  close, High: close + 1, Low: close - 1, Close: close, Volume: 5,
		}
	}
	return out
}

func newTestEngine(src *fakeSource, orc *fakeOracle, store model.SignalStore, cooldown time.Duration) *Engine {
	cfg := Config{
		Symbol:       "BTCUSDT",
		MarketSymbol: "BTC-USDT",
		Timeframe:    "1h",
		Interval:     "1hour",
		Threshold:    0.7,
		TPPct:        0.01,
		SLPct:        0.02,
		AskCooldown:  cooldown,
	}
	builder := features.NewBuilder(src, features.DefaultConfig())
	return New(cfg, builder, src, orc, store, nil, nil, slog.Default())
}

func callDecision(prob float64) *model.OracleDecision {
	return &model.OracleDecision{Side: model.SideCall, Probability: prob}
}

func TestAsk_OpensSignal(t *testing.T) {
	src := &fakeSource{candles: testCandles(250, 100.0)}
	orc := &fakeOracle{decision: callDecision(0.85)}
	store := memory.New()
	e := newTestEngine(src, orc, store, 0)

	res, err := e.Ask(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NoTrade {
		t.Fatal("expected a trade")
	}
	if res.ID == "" {
		t.Fatal("expected store-assigned ID")
	}

	sig := res.Signal
	if sig.Status != model.StatusOpen {
		t.Errorf("expected status OPEN, got %s", sig.Status)
	}
	if sig.EntryPrice != 100.0 {
		t.Errorf("expected entry 100 (last close), got %v", sig.EntryPrice)
	}
	if sig.TPPrice != 101.0 {
		t.Errorf("expected tp 101.00, got %v", sig.TPPrice)
	}
	if sig.SLPrice != 98.0 {
		t.Errorf("expected sl 98.00, got %v", sig.SLPrice)
	}
	if sig.Leverage != 10 {
		t.Errorf("expected leverage 10, got %d", sig.Leverage)
	}
	if len(sig.Features) == 0 {
		t.Error("expected feature snapshot on the signal")
	}

	// Round-trip: the persisted record equals the returned one.
	open, _ := store.ListOpen(context.Background(), "BTCUSDT")
	stored, ok := open[res.ID]
	if !ok {
		t.Fatal("signal not persisted under returned ID")
	}
	if !reflect.DeepEqual(stored, sig) {
		t.Errorf("persisted record differs:\nwant %+v\ngot  %+v", sig, stored)
	}
}

func TestAsk_PutSideMirrorsPrices(t *testing.T) {
	src := &fakeSource{candles: testCandles(250, 100.0)}
	orc := &fakeOracle{decision: &model.OracleDecision{Side: model.SidePut, Probability: 0.9}}
	e := newTestEngine(src, orc, memory.New(), 0)

	res, err := e.Ask(context.Background(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Signal.TPPrice != 99.0 {
		t.Errorf("PUT tp must sit below entry: expected 99.00, got %v", res.Signal.TPPrice)
	}
	if res.Signal.SLPrice != 102.0 {
		t.Errorf("PUT sl must sit above entry: expected 102.00, got %v", res.Signal.SLPrice)
	}
}

func TestAsk_NoTradeWritesNothing(t *testing.T) {
	src := &fakeSource{candles: testCandles(250, 100.0)}
	orc := &fakeOracle{decision: &model.OracleDecision{Side: model.SideNoTrade, Probability: 0.3}}
	store := memory.New()
	e := newTestEngine(src, orc, store, 0)

	res, err := e.Ask(context.Background(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NoTrade {
		t.Fatal("expected NoTrade result")
	}
	if res.Decision == nil || res.Decision.Probability != 0.3 {
		t.Error("expected the oracle decision to be passed through")
	}

	open, _ := store.ListOpen(context.Background(), "BTCUSDT")
	if len(open) != 0 {
		t.Errorf("NO-TRADE must not persist anything, found %d records", len(open))
	}
}

func TestAsk_InsufficientDataSkipsOracle(t *testing.T) {
	src := &fakeSource{candles: testCandles(20, 100.0)}
	orc := &fakeOracle{decision: callDecision(0.9)}
	e := newTestEngine(src, orc, memory.New(), 0)

	_, err := e.Ask(context.Background(), 20)
	var insufficient *model.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if orc.calls != 0 {
		t.Errorf("oracle must not be called on short series, got %d calls", orc.calls)
	}
}

func TestAsk_OracleErrorPropagates(t *testing.T) {
	src := &fakeSource{candles: testCandles(250, 100.0)}
	orc := &fakeOracle{err: &model.OracleUnavailableError{Status: 503}}
	store := memory.New()
	e := newTestEngine(src, orc, store, 0)

	_, err := e.Ask(context.Background(), 20)
	var unavail *model.OracleUnavailableError
	if !errors.As(err, &unavail) {
		t.Fatalf("expected OracleUnavailableError, got %v", err)
	}
	open, _ := store.ListOpen(context.Background(), "BTCUSDT")
	if len(open) != 0 {
		t.Error("failed ask must not persist anything")
	}
}

func TestAsk_OracleOverridesPcts(t *testing.T) {
	tp, sl := 0.015, 0.03
	src := &fakeSource{candles: testCandles(250, 200.0)}
	orc := &fakeOracle{decision: &model.OracleDecision{
		Side: model.SideCall, Probability: 0.8, TPPct: &tp, SLPct: &sl,
	}}
	e := newTestEngine(src, orc, memory.New(), 0)

	res, err := e.Ask(context.Background(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Signal.TPPct != 0.015 || res.Signal.TPPrice != 203.0 {
		t.Errorf("expected oracle tp_pct 0.015 → tp 203.00, got pct=%v price=%v",
			res.Signal.TPPct, res.Signal.TPPrice)
	}
	if res.Signal.SLPct != 0.03 || res.Signal.SLPrice != 194.0 {
		t.Errorf("expected oracle sl_pct 0.03 → sl 194.00, got pct=%v price=%v",
			res.Signal.SLPct, res.Signal.SLPrice)
	}
}

func TestAsk_Cooldown(t *testing.T) {
	src := &fakeSource{candles: testCandles(250, 100.0)}
	orc := &fakeOracle{decision: callDecision(0.9)}
	e := newTestEngine(src, orc, memory.New(), time.Minute)

	if _, err := e.Ask(context.Background(), 20); err != nil {
		t.Fatalf("first ask: %v", err)
	}
	_, err := e.Ask(context.Background(), 20)
	if !errors.Is(err, ErrCooldown) {
		t.Fatalf("expected ErrCooldown on second ask, got %v", err)
	}
}

// Two asks without a cooldown open two independent signals.
func TestAsk_NotIdempotent(t *testing.T) {
	src := &fakeSource{candles: testCandles(250, 100.0)}
	orc := &fakeOracle{decision: callDecision(0.9)}
	store := memory.New()
	e := newTestEngine(src, orc, store, 0)

	first, err := e.Ask(context.Background(), 20)
	if err != nil {
		t.Fatalf("first ask: %v", err)
	}
	second, err := e.Ask(context.Background(), 20)
	if err != nil {
		t.Fatalf("second ask: %v", err)
	}
	if first.ID == second.ID {
		t.Error("each ask must create a distinct signal")
	}
	open, _ := store.ListOpen(context.Background(), "BTCUSDT")
	if len(open) != 2 {
		t.Errorf("expected 2 open signals, got %d", len(open))
	}
}

func TestHealth(t *testing.T) {
	src := &fakeSource{spot: 65000.5}
	e := newTestEngine(src, &fakeOracle{}, memory.New(), 0)

	info := e.Health(context.Background())
	if info.Price != 65000.5 {
		t.Errorf("expected price 65000.5, got %v", info.Price)
	}
	if info.Threshold != 0.7 {
		t.Errorf("expected threshold 0.7, got %v", info.Threshold)
	}

	// A failed price read degrades to price=0, never an error.
	src.spotErr = &model.DataUnavailableError{Op: "spot", Symbol: "BTC-USDT"}
	info = e.Health(context.Background())
	if info.Price != 0 {
		t.Errorf("expected zero price on fetch failure, got %v", info.Price)
	}
}
