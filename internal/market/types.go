package market

import "time"

// Side is the direction of an open position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Opposite returns the closing direction for a position side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// OrderSide is the direction of an order as sent to the exchange.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// EntryOrder maps a position side to the order side that opens it.
func EntryOrder(s Side) OrderSide {
	if s == SideLong {
		return OrderBuy
	}
	return OrderSell
}

// ExitOrder maps a position side to the order side that closes it.
func ExitOrder(s Side) OrderSide {
	if s == SideLong {
		return OrderSell
	}
	return OrderBuy
}

// BracketKind distinguishes the two conditional orders attached to an entry.
type BracketKind string

const (
	BracketTakeProfit BracketKind = "TAKE_PROFIT"
	BracketStopLoss   BracketKind = "STOP_LOSS"
)

// Candle is one OHLCV bar. Series are ordered oldest to newest.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Position is the exchange-reported open position for a symbol. Workers
// re-derive it every tick; it is never persisted.
type Position struct {
	Side          Side
	EntryPrice    float64
	Size          float64 // absolute contract quantity
	UnrealizedPnL float64
}
