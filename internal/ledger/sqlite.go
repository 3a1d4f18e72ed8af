package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"botcore/pkg/db"
)

// SQLLedger persists trades in the shared SQLite database.
type SQLLedger struct {
	db *db.Database
}

// NewSQLLedger wraps the database handle.
func NewSQLLedger(database *db.Database) *SQLLedger {
	return &SQLLedger{db: database}
}

func (l *SQLLedger) OpenTrade(ctx context.Context, ownerID, botID, symbol, side string, amount, entryPrice float64) (string, error) {
	id := uuid.NewString()
	err := l.db.InsertTrade(ctx, db.Trade{
		ID:         id,
		OwnerID:    ownerID,
		BotID:      botID,
		Symbol:     symbol,
		Side:       side,
		Amount:     amount,
		EntryPrice: entryPrice,
	})
	if err != nil {
		return "", fmt.Errorf("open trade: %w", err)
	}
	return id, nil
}

func (l *SQLLedger) CloseTrade(ctx context.Context, tradeID string, exitPrice, pnlPct, pnlUSD float64) error {
	if err := l.db.CloseTrade(ctx, tradeID, exitPrice, pnlPct, pnlUSD); err != nil {
		return fmt.Errorf("close trade %s: %w", tradeID, err)
	}
	return nil
}

func (l *SQLLedger) OpenTradeID(ctx context.Context, ownerID, botID string) (string, error) {
	t, err := l.db.FindOpenTrade(ctx, ownerID, botID)
	if errors.Is(err, db.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

func (l *SQLLedger) ListTrades(ctx context.Context, ownerID string, limit int) ([]db.Trade, error) {
	return l.db.ListTradesByOwner(ctx, ownerID, limit)
}
