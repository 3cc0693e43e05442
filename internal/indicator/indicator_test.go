package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestEMA_LengthAndSeed(t *testing.T) {
	series := []float64{100, 102, 101, 105, 103}
	out := EMA(series, 9)
	if len(out) != len(series) {
		t.Fatalf("expected length %d, got %d", len(series), len(out))
	}
	if out[0] != series[0] {
		t.Errorf("expected out[0]=%v (seed), got %v", series[0], out[0])
	}
	for i, v := range out {
		if !Defined(v) {
			t.Errorf("position %d: EMA must never be undefined", i)
		}
	}
}

func TestEMA_ConstantSeries(t *testing.T) {
	series := make([]float64, 50)
	for i := range series {
		series[i] = 42.5
	}
	for _, v := range EMA(series, 20) {
		if !almostEqual(v, 42.5, 1e-9) {
			t.Fatalf("constant series must yield constant EMA, got %v", v)
		}
	}
}

func TestEMA_Empty(t *testing.T) {
	if out := EMA(nil, 9); len(out) != 0 {
		t.Errorf("expected empty output, got %d values", len(out))
	}
}

func TestSMA_Warmup(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6}
	out := SMA(series, 3)
	for i := 0; i < 2; i++ {
		if Defined(out[i]) {
			t.Errorf("position %d: expected undefined before warmup, got %v", i, out[i])
		}
	}
	want := []float64{2, 3, 4, 5}
	for i, w := range want {
		if !almostEqual(out[i+2], w, 1e-9) {
			t.Errorf("position %d: expected %v, got %v", i+2, w, out[i+2])
		}
	}
}

func TestRSI_Bounds(t *testing.T) {
	series := []float64{
		100, 102, 101, 105, 103, 104, 108, 107, 109, 111,
		110, 112, 115, 113, 116, 118, 117, 120, 119, 121,
		118, 116, 117, 115, 114, 116, 118, 120, 122, 121,
	}
	out := RSI(series, 14)
	for i := 0; i < 14; i++ {
		if Defined(out[i]) {
			t.Errorf("position %d: expected undefined during warmup", i)
		}
	}
	for i := 14; i < len(out); i++ {
		if out[i] < 0 || out[i] > 100 {
			t.Errorf("position %d: RSI %v out of [0,100]", i, out[i])
		}
	}
}

func TestRSI_ZeroLossIs100(t *testing.T) {
	// Strictly increasing series: average loss is always 0.
	series := make([]float64, 30)
	for i := range series {
		series[i] = 100 + float64(i)
	}
	out := RSI(series, 14)
	for i := 14; i < len(out); i++ {
		if out[i] != 100.0 {
			t.Errorf("position %d: expected RSI=100 with zero losses, got %v", i, out[i])
		}
	}
}

// RSI(14) over a long synthetic series whose tail rises monotonically must
// approach 100: the smoothed average loss decays toward zero.
func TestRSI_IncreasingTailApproaches100(t *testing.T) {
	series := make([]float64, 250)
	base := []float64{100, 102, 101, 105, 103}
	for i := 0; i < 200; i++ {
		series[i] = base[i%len(base)] + float64(i)*0.01
	}
	for i := 200; i < 250; i++ {
		series[i] = series[i-1] + 1.0
	}
	out := RSI(series, 14)
	last := out[len(out)-1]
	if last < 95.0 {
		t.Errorf("expected RSI near 100 on increasing tail, got %v", last)
	}
	if last > 100.0 {
		t.Errorf("RSI exceeded 100: %v", last)
	}
}

func TestStochastic_BoundsAndFlatRange(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + math.Sin(float64(i))*5
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
	}
	st := Stochastic(highs, lows, closes, 14, 3)
	if len(st.K) != n || len(st.D) != n {
		t.Fatalf("expected aligned output lengths %d, got K=%d D=%d", n, len(st.K), len(st.D))
	}
	for i := 13; i < n; i++ {
		if st.K[i] < 0 || st.K[i] > 100 {
			t.Errorf("position %d: %%K %v out of [0,100]", i, st.K[i])
		}
	}
	for i := 15; i < n; i++ {
		if !Defined(st.D[i]) {
			t.Errorf("position %d: expected defined %%D", i)
		}
	}

	// Flat range: every window has high == low, so %K reads neutral 50.
	flat := make([]float64, n)
	for i := range flat {
		flat[i] = 77.0
	}
	st = Stochastic(flat, flat, flat, 14, 3)
	for i := 13; i < n; i++ {
		if st.K[i] != 50.0 {
			t.Errorf("position %d: expected flat-range %%K=50, got %v", i, st.K[i])
		}
	}
}

func TestBollinger_WidthNonNegative(t *testing.T) {
	series := make([]float64, 60)
	for i := range series {
		series[i] = 100 + math.Sin(float64(i)/3)*10
	}
	b := Bollinger(series, 20, 2)
	for i := 0; i < 19; i++ {
		if Defined(b.Width[i]) {
			t.Errorf("position %d: expected undefined width during warmup", i)
		}
	}
	for i := 19; i < len(series); i++ {
		if b.Width[i] < 0 {
			t.Errorf("position %d: negative band width %v", i, b.Width[i])
		}
		if b.High[i] < b.Low[i] {
			t.Errorf("position %d: high band %v below low band %v", i, b.High[i], b.Low[i])
		}
		if !almostEqual(b.Mid[i], (b.High[i]+b.Low[i])/2, 1e-9) {
			t.Errorf("position %d: mid not centered between bands", i)
		}
	}
}

func TestBollinger_ConstantSeriesZeroWidth(t *testing.T) {
	series := make([]float64, 25)
	for i := range series {
		series[i] = 50
	}
	b := Bollinger(series, 20, 2)
	if !almostEqual(b.Width[24], 0, 1e-12) {
		t.Errorf("constant series must have zero band width, got %v", b.Width[24])
	}
}

func TestPercentChange(t *testing.T) {
	series := []float64{100, 110, 99, 100}
	out := PercentChange(series, 1)
	if Defined(out[0]) {
		t.Error("expected undefined at lag boundary")
	}
	if !almostEqual(out[1], 0.10, 1e-9) {
		t.Errorf("expected 0.10, got %v", out[1])
	}
	if !almostEqual(out[2], -0.10, 1e-9) {
		t.Errorf("expected -0.10, got %v", out[2])
	}

	out5 := PercentChange(series, 5)
	for i, v := range out5 {
		if Defined(v) {
			t.Errorf("position %d: lag longer than series must be undefined", i)
		}
	}
}
