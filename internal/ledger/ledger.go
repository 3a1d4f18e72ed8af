// Package ledger records the lifecycle of trades: a row is created the
// moment an entry order succeeds and mutated exactly once when the
// position is closed.
package ledger

import (
	"context"

	"botcore/pkg/db"
)

// Ledger is the capability set workers need for trade bookkeeping.
type Ledger interface {
	// OpenTrade records a new open trade and returns its id.
	OpenTrade(ctx context.Context, ownerID, botID, symbol, side string, amount, entryPrice float64) (string, error)

	// CloseTrade marks the trade closed with its exit numbers.
	CloseTrade(ctx context.Context, tradeID string, exitPrice, pnlPct, pnlUSD float64) error

	// OpenTradeID returns the id of the bot's open trade, or "" if none.
	OpenTradeID(ctx context.Context, ownerID, botID string) (string, error)
}

// History is the read side used outside the workers.
type History interface {
	ListTrades(ctx context.Context, ownerID string, limit int) ([]db.Trade, error)
}
