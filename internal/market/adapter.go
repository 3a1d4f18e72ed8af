package market

import (
	"context"
	"errors"
)

// ErrDataUnavailable reports a failed candle fetch. Workers treat it as a
// skipped tick with a fixed short retry rather than a fault.
var ErrDataUnavailable = errors.New("market data unavailable")

// MarginIsolated is the only margin mode the workers request.
const MarginIsolated = "ISOLATED"

// Adapter is the capability set a worker needs from an exchange. The
// exchange is the source of truth for positions; the adapter owns
// transport concerns such as pacing and retries within a single call.
type Adapter interface {
	// FetchCandles returns up to limit closed bars, oldest first.
	// Failures are reported as (or wrap) ErrDataUnavailable.
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)

	// FetchPosition returns the open position for symbol, or nil when flat.
	FetchPosition(ctx context.Context, symbol string) (*Position, error)

	// FetchBalance returns the free quote-asset balance.
	FetchBalance(ctx context.Context) (float64, error)

	// SetLeverageAndMargin applies leverage and margin mode for a symbol.
	// An exchange response meaning "already set" is success, not an error.
	SetLeverageAndMargin(ctx context.Context, symbol string, leverage int, marginMode string) error

	// SubmitMarketOrder places a market order and returns the exchange
	// order id.
	SubmitMarketOrder(ctx context.Context, symbol string, side OrderSide, amount float64) (string, error)

	// SubmitBracketOrder places a reduce-only conditional order that closes
	// the full position at the trigger price.
	SubmitBracketOrder(ctx context.Context, symbol string, side OrderSide, amount, triggerPrice float64, kind BracketKind) (string, error)
}
