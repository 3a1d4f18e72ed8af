package strategy

import (
	"botcore/internal/indicators"
	"botcore/internal/market"
)

// AdaptiveTrend follows an adaptive trend flow indicator: a basis line
// from fast/slow EMAs of typical price with volatility bands around it.
// The trend state is sticky and only flips when the close crosses the
// opposite band; a signal fires exactly on the flip bar.
type AdaptiveTrend struct {
	length      int
	smoothLen   int
	sensitivity float64
}

// NewAdaptiveTrend builds the strategy; defaults are length 21,
// smooth_len 14, sensitivity 1.0.
func NewAdaptiveTrend(p Params) *AdaptiveTrend {
	return &AdaptiveTrend{
		length:      int(p.Get("length", 21)),
		smoothLen:   int(p.Get("smooth_len", 14)),
		sensitivity: p.Get("sensitivity", 1.0),
	}
}

func (s *AdaptiveTrend) Name() string { return "adaptive_trend" }

func (s *AdaptiveTrend) GenerateSignals(candles []market.Candle) ([]Signal, error) {
	n := len(candles)
	signals := make([]Signal, n)
	if n == 0 {
		return signals, nil
	}

	typical := make([]float64, n)
	for i, c := range candles {
		typical[i] = (c.High + c.Low + c.Close) / 3
	}

	fast := indicators.EMA(typical, s.length)
	slow := indicators.EMA(typical, s.length*2)
	basis := make([]float64, n)
	for i := range typical {
		basis[i] = (fast[i] + slow[i]) / 2
	}

	// The band width is the rolling stddev of typical price, smoothed by
	// an EMA seeded at the first full stddev window so the warm-up zeros
	// do not drag it down.
	vol := indicators.RollingStd(typical, s.length)
	warm := s.length - 1
	smoothVol := make([]float64, n)
	if warm < n {
		copy(smoothVol[warm:], indicators.EMA(vol[warm:], s.smoothLen))
	}

	trend := 1
	if candles[0].Close <= basis[0] {
		trend = -1
	}
	for i := 1; i < n; i++ {
		prev := trend
		if i >= warm {
			upper := basis[i] + smoothVol[i]*s.sensitivity
			lower := basis[i] - smoothVol[i]*s.sensitivity
			if prev == 1 && candles[i].Close < lower {
				trend = -1
			} else if prev == -1 && candles[i].Close > upper {
				trend = 1
			}
		}
		if trend == 1 && prev == -1 {
			signals[i] = SignalLong
		} else if trend == -1 && prev == 1 {
			signals[i] = SignalShort
		}
	}
	return signals, nil
}
