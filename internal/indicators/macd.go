package indicators

// MACD returns the MACD line and its signal line for the standard
// fast/slow/signal EMA spans (typically 12/26/9). Both series cover the
// full input; values before the slow span plus signal span have not
// converged and should be treated as warm-up by callers.
func MACD(values []float64, fast, slow, signal int) (macd, signalLine []float64) {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMA(macd, signal)
	return macd, signalLine
}
