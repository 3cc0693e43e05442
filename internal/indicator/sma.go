package indicator

// SMA calculates the Simple Moving Average over a trailing window of
// period samples. out[i] is defined only for i >= period-1; earlier
// positions carry the undefined marker.
//
// Uses a running sum — O(1) per position, no window rescans.
func SMA(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	sum := 0.0
	for i := range series {
		sum += series[i]
		if i >= period {
			sum -= series[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = Undefined()
		}
	}
	return out
}
