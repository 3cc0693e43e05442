package indicator

// EMA calculates the Exponential Moving Average with smoothing
// k = 2/(period+1), seeded with series[0].
//
// The seed choice means out[0] == series[0] and every position is defined —
// there is no warmup gap. Downstream thresholds were calibrated against this
// behavior, so it must not be swapped for a warmup-excluded EMA.
func EMA(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	prev := series[0]
	out[0] = prev
	for i := 1; i < len(series); i++ {
		prev = (series[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}
