package indicator

import "math"

// Bands holds Bollinger band lines, index-aligned with the input series.
type Bands struct {
	Mid   []float64
	High  []float64
	Low   []float64
	Width []float64
}

// Bollinger calculates Bollinger Bands: mid = SMA(period), high/low =
// mid ± mult·stdev, width = (high-low)/mid. The standard deviation is the
// population stdev over the trailing window. Positions before period
// samples carry the undefined marker on all four lines.
func Bollinger(series []float64, period int, mult float64) Bands {
	n := len(series)
	b := Bands{
		Mid:   SMA(series, period),
		High:  make([]float64, n),
		Low:   make([]float64, n),
		Width: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		if i < period-1 {
			b.High[i] = Undefined()
			b.Low[i] = Undefined()
			b.Width[i] = Undefined()
			continue
		}
		mean := b.Mid[i]
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			dev := series[j] - mean
			variance += dev * dev
		}
		variance /= float64(period)
		sd := math.Sqrt(variance)
		b.High[i] = mean + mult*sd
		b.Low[i] = mean - mult*sd
		b.Width[i] = (b.High[i] - b.Low[i]) / mean
	}
	return b
}
