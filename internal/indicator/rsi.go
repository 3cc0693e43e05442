package indicator

// RSI calculates the Relative Strength Index using Wilder's smoothing.
//
// The first period average gain/loss are plain means over the first period
// deltas; every later value applies Wilder smoothing:
// avg = (avg*(period-1) + new) / period. The first defined value sits at
// index period (one delta per sample, period deltas to seed); everything
// before carries the undefined marker.
//
// A trailing average loss of zero maps to RSI = 100, never infinity.
func RSI(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = Undefined()
	}
	if len(series) < period+1 {
		return out
	}

	// Seed averages from the first `period` deltas.
	var gains, losses float64
	for i := 1; i <= period; i++ {
		delta := series[i] - series[i-1]
		if delta >= 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(series); i++ {
		delta := series[i] - series[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
