package indicators

import "math"

// ATR returns the Average True Range series with Wilder smoothing.
// Entries before index period are zero (warm-up).
func ATR(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := make([]float64, n)
	if period <= 0 || n < period+1 {
		return out
	}

	tr := make([]float64, n)
	tr[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// SuperTrend returns the per-bar supertrend direction: +1 for an uptrend,
// -1 for a downtrend, 0 during ATR warm-up. The bands ratchet toward
// price and the direction only flips when the close crosses the active
// band.
func SuperTrend(high, low, close []float64, length int, multiplier float64) []int {
	n := len(close)
	dir := make([]int, n)
	if length <= 0 || n < length+1 {
		return dir
	}

	atr := ATR(high, low, close, length)

	var finalUpper, finalLower float64
	for i := length; i < n; i++ {
		hl2 := (high[i] + low[i]) / 2
		upper := hl2 + multiplier*atr[i]
		lower := hl2 - multiplier*atr[i]

		if i == length {
			finalUpper, finalLower = upper, lower
			if close[i] <= finalLower {
				dir[i] = -1
			} else {
				dir[i] = 1
			}
			continue
		}

		// Ratchet: the upper band only moves down in a downtrend, the
		// lower band only moves up in an uptrend.
		if upper < finalUpper || close[i-1] > finalUpper {
			finalUpper = upper
		}
		if lower > finalLower || close[i-1] < finalLower {
			finalLower = lower
		}

		if dir[i-1] == 1 {
			if close[i] < finalLower {
				dir[i] = -1
			} else {
				dir[i] = 1
			}
		} else {
			if close[i] > finalUpper {
				dir[i] = 1
			} else {
				dir[i] = -1
			}
		}
	}
	return dir
}
