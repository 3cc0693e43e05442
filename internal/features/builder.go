// Package features assembles the model feature vector from a candle series.
package features

import (
	"context"
	"math"
	"time"

	"bullsignals/internal/indicator"
	"bullsignals/internal/model"
)

// Config holds the indicator periods behind the feature vector. The zero
// value is unusable; use DefaultConfig.
type Config struct {
	CandleLimit int // series length requested from the source

	EMAShort  int // 9
	EMAMid    int // 20
	EMASlow   int // 50
	EMATrend  int // 200
	RSIPeriod int // 14
	BollBands int // 20
	BollMult  float64
	StochK    int
	StochD    int
}

// DefaultConfig returns the periods the classifier was trained against.
func DefaultConfig() Config {
	return Config{
		CandleLimit: 300,
		EMAShort:    9,
		EMAMid:      20,
		EMASlow:     50,
		EMATrend:    200,
		RSIPeriod:   14,
		BollBands:   20,
		BollMult:    2,
		StochK:      14,
		StochD:      3,
	}
}

// minCandles is the warmup window: the longest configured period plus one
// candle for the first delta.
func (c Config) minCandles() int {
	need := c.EMATrend
	if c.RSIPeriod > need {
		need = c.RSIPeriod
	}
	if c.BollBands > need {
		need = c.BollBands
	}
	return need + 1
}

// Result is one feature vector plus the raw price it was computed at.
type Result struct {
	Features  model.FeatureVector
	LastClose float64
}

// Builder computes feature vectors for a symbol/timeframe pair.
type Builder struct {
	source model.MarketDataSource
	cfg    Config
}

// NewBuilder creates a Builder over the given market-data source.
func NewBuilder(source model.MarketDataSource, cfg Config) *Builder {
	return &Builder{source: source, cfg: cfg}
}

// Build retrieves a candle series and produces exactly one feature vector
// for the last closed candle. Returns InsufficientDataError when the series
// is shorter than the configured warmup window; no oracle call should be
// made in that case. Undefined indicator cells are substituted with 0 — the
// vector never carries a non-finite value.
func (b *Builder) Build(ctx context.Context, symbol, interval string) (*Result, error) {
	candles, err := b.source.Candles(ctx, symbol, interval, b.cfg.CandleLimit)
	if err != nil {
		return nil, err
	}
	if need := b.cfg.minCandles(); len(candles) < need {
		return nil, &model.InsufficientDataError{Have: len(candles), Need: need}
	}

	closes := model.Closes(candles)
	highs := model.Highs(candles)
	lows := model.Lows(candles)

	emaShort := indicator.EMA(closes, b.cfg.EMAShort)
	emaMid := indicator.EMA(closes, b.cfg.EMAMid)
	emaSlow := indicator.EMA(closes, b.cfg.EMASlow)
	emaTrend := indicator.EMA(closes, b.cfg.EMATrend)
	rsi := indicator.RSI(closes, b.cfg.RSIPeriod)
	ret1 := indicator.PercentChange(closes, 1)
	ret5 := indicator.PercentChange(closes, 5)
	bands := indicator.Bollinger(closes, b.cfg.BollBands, b.cfg.BollMult)
	stoch := indicator.Stochastic(highs, lows, closes, b.cfg.StochK, b.cfg.StochD)

	i := len(closes) - 1
	feat := model.FeatureVector{
		"rsi14":    round(rsi[i], 6),
		"ema9":     round(emaShort[i], 2),
		"ema20":    round(emaMid[i], 2),
		"ema50":    round(emaSlow[i], 2),
		"ema200":   round(emaTrend[i], 2),
		"ret1":     round(ret1[i], 6),
		"ret5":     round(ret5[i], 6),
		"bb_low":   round(bands.Low[i], 2),
		"bb_mid":   round(bands.Mid[i], 2),
		"bb_high":  round(bands.High[i], 2),
		"bb_width": round(bands.Width[i], 6),
		"stoch_k":  round(stoch.K[i], 4),
		"stoch_d":  round(stoch.D[i], 4),

		"hl_spread":      round((highs[i]-lows[i])/closes[i], 6),
		"price_gt_ema20": boolFeature(closes[i] > emaMid[i]),
		"ema9_gt_ema20":  boolFeature(emaShort[i] > emaMid[i]),

		// Aliases the classifier also recognizes.
		"ma9":   round(emaShort[i], 2),
		"ma20":  round(emaMid[i], 2),
		"ma50":  round(emaSlow[i], 2),
		"ma200": round(emaTrend[i], 2),

		// Placeholders the classifier tolerates as zero.
		"macd":        0,
		"macd_signal": 0,
		"macd_hist":   0,
		"vol_z":       0,

		"datetime":  float64(candles[i].TS / 1000),
		"timestamp": float64(time.Now().Unix()),
	}

	// Default-substitution pass: any undefined marker becomes 0 so the
	// oracle never receives a non-finite number.
	for name, v := range feat {
		if !indicator.Defined(v) || math.IsInf(v, 0) {
			feat[name] = 0
		}
	}

	return &Result{Features: feat, LastClose: closes[i]}, nil
}

// round truncates to the given number of decimal places. Undefined markers
// pass through untouched for the substitution pass to catch.
func round(v float64, places int) float64 {
	if !indicator.Defined(v) {
		return v
	}
	pow := math.Pow10(places)
	return math.Round(v*pow) / pow
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
