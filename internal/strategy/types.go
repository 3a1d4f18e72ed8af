package strategy

import (
	"errors"
	"fmt"
	"sort"

	"botcore/internal/market"
)

// Signal is the per-bar directional output of a strategy.
type Signal int

const (
	SignalLong    Signal = 1
	SignalShort   Signal = -1
	SignalNeutral Signal = 0
)

// Strategy maps a candle series (oldest to newest) onto one signal per
// bar. Implementations are pure and causal: the signal at bar i depends
// only on bars up to i, and the input is never mutated.
type Strategy interface {
	Name() string
	GenerateSignals(candles []market.Candle) ([]Signal, error)
}

// Params carries optional per-strategy tuning values.
type Params map[string]float64

// Get returns the named parameter or def when absent.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Factory builds a strategy instance from its parameters.
type Factory func(params Params) Strategy

// ErrUnknown reports a strategy name with no registered factory.
var ErrUnknown = errors.New("unknown strategy")

// registry is the static registration table. Adding a strategy means
// adding a factory here; nothing else in the system changes.
var registry = map[string]Factory{
	"adaptive_trend":     func(p Params) Strategy { return NewAdaptiveTrend(p) },
	"rsi_macd":           func(p Params) Strategy { return NewRSIMACD(p) },
	"supertrend_confirm": func(p Params) Strategy { return NewSuperTrendConfirm(p) },
}

// New builds the named strategy or returns ErrUnknown.
func New(name string, params Params) (Strategy, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return factory(params), nil
}

// Exists reports whether a strategy name is registered.
func Exists(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names lists the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
