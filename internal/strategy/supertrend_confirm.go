package strategy

import (
	"botcore/internal/indicators"
	"botcore/internal/market"
)

// SuperTrendConfirm signals on the bar where the supertrend direction
// flips, confirmed by an RSI bound and the MACD line's position relative
// to its signal line.
type SuperTrendConfirm struct {
	stLength   int
	stMult     float64
	rsiPeriod  int
	oversold   float64
	overbought float64
}

// NewSuperTrendConfirm builds the strategy; defaults are supertrend
// (10, 3.0) with RSI(14) bounds 35/65.
func NewSuperTrendConfirm(p Params) *SuperTrendConfirm {
	return &SuperTrendConfirm{
		stLength:   int(p.Get("st_length", 10)),
		stMult:     p.Get("st_multiplier", 3.0),
		rsiPeriod:  int(p.Get("rsi_period", 14)),
		oversold:   p.Get("rsi_oversold", 35),
		overbought: p.Get("rsi_overbought", 65),
	}
}

func (s *SuperTrendConfirm) Name() string { return "supertrend_confirm" }

func (s *SuperTrendConfirm) GenerateSignals(candles []market.Candle) ([]Signal, error) {
	n := len(candles)
	signals := make([]Signal, n)

	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		closes[i] = c.Close
	}

	dir := indicators.SuperTrend(high, low, closes, s.stLength, s.stMult)
	rsi := indicators.RSI(closes, s.rsiPeriod)
	macd, signalLine := indicators.MACD(closes, macdFast, macdSlow, macdSignal)

	warm := s.rsiPeriod + 1
	if s.stLength+1 > warm {
		warm = s.stLength + 1
	}
	for i := warm; i < n; i++ {
		// Direction zero means the supertrend is still warming up.
		if dir[i] == 0 || dir[i-1] == 0 {
			continue
		}
		flipUp := dir[i] == 1 && dir[i-1] == -1
		flipDown := dir[i] == -1 && dir[i-1] == 1

		if flipUp && rsi[i] < s.overbought && macd[i] > signalLine[i] {
			signals[i] = SignalLong
		} else if flipDown && rsi[i] > s.oversold && macd[i] < signalLine[i] {
			signals[i] = SignalShort
		}
	}
	return signals, nil
}
