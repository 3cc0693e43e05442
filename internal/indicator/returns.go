package indicator

// PercentChange calculates the lag-period return:
// out[i] = series[i]/series[i-lag] - 1. Positions with i < lag carry the
// undefined marker.
func PercentChange(series []float64, lag int) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		if i < lag {
			out[i] = Undefined()
			continue
		}
		out[i] = series[i]/series[i-lag] - 1
	}
	return out
}
