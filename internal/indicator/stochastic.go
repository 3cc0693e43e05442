package indicator

// Stoch holds the %K and %D lines of a stochastic oscillator, index-aligned
// with the input series. D[i] corresponds to the same timestamp as K[i].
type Stoch struct {
	K []float64
	D []float64
}

// Stochastic calculates %K over a trailing window of kPeriod samples and %D
// as the SMA of %K over dPeriod.
//
// %K[i] = (close[i] - lowest low) / (highest high - lowest low) * 100.
// A flat window (highest == lowest) maps to the neutral reading 50; positions
// before kPeriod samples exist carry the undefined marker. %D[i] is defined
// only once dPeriod defined %K values are available, so both lines apply the
// same warmup policy.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) Stoch {
	n := len(closes)
	k := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < kPeriod-1 {
			k[i] = Undefined()
			continue
		}
		hh := highs[i]
		ll := lows[i]
		for j := i - kPeriod + 1; j < i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			k[i] = 50.0
			continue
		}
		k[i] = (closes[i] - ll) / (hh - ll) * 100.0
	}

	d := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < kPeriod-1+dPeriod-1 {
			d[i] = Undefined()
			continue
		}
		sum := 0.0
		for j := i - dPeriod + 1; j <= i; j++ {
			sum += k[j]
		}
		d[i] = sum / float64(dPeriod)
	}

	return Stoch{K: k, D: d}
}
