package strategy

import (
	"botcore/internal/indicators"
	"botcore/internal/market"
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// RSIMACD signals on MACD crossovers confirmed by RSI: long when RSI is
// near oversold and the MACD line crosses above its signal line on this
// bar, short on the symmetric downward cross near overbought.
type RSIMACD struct {
	rsiPeriod int
	lowerRSI  float64
	upperRSI  float64
}

// NewRSIMACD builds the strategy; defaults are RSI(14) with 40/60 bounds.
func NewRSIMACD(p Params) *RSIMACD {
	return &RSIMACD{
		rsiPeriod: int(p.Get("rsi_period", 14)),
		lowerRSI:  p.Get("rsi_lower", 40),
		upperRSI:  p.Get("rsi_upper", 60),
	}
}

func (s *RSIMACD) Name() string { return "rsi_macd" }

func (s *RSIMACD) GenerateSignals(candles []market.Candle) ([]Signal, error) {
	n := len(candles)
	signals := make([]Signal, n)

	closes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
	}

	rsi := indicators.RSI(closes, s.rsiPeriod)
	macd, signalLine := indicators.MACD(closes, macdFast, macdSlow, macdSignal)

	// A crossover needs the previous bar's MACD values, so the first bar
	// after indicator warm-up cannot signal.
	warm := s.rsiPeriod + 1
	if m := macdSlow + macdSignal; m > warm {
		warm = m
	}
	for i := warm; i < n; i++ {
		crossUp := macd[i-1] < signalLine[i-1] && macd[i] > signalLine[i]
		crossDown := macd[i-1] > signalLine[i-1] && macd[i] < signalLine[i]

		if rsi[i] < s.lowerRSI && crossUp {
			signals[i] = SignalLong
		} else if rsi[i] > s.upperRSI && crossDown {
			signals[i] = SignalShort
		}
	}
	return signals, nil
}
