package indicators

import "math"

// RollingStd returns the rolling sample standard deviation over period
// bars. Entries before the first full window are zero; callers that need
// to distinguish warm-up should skip the first period-1 bars.
func RollingStd(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period < 2 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]

		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		variance := 0.0
		for _, v := range window {
			d := v - mean
			variance += d * d
		}
		// Sample variance (n-1 divisor), matching the usual rolling std.
		out[i] = math.Sqrt(variance / float64(period-1))
	}
	return out
}
