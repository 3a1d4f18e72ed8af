package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateConfig = errors.New("bot config already exists")
)

// BotConfig is a persisted bot configuration row. Settings carries the
// worker settings as a JSON document; the bot package owns its shape.
type BotConfig struct {
	OwnerID      string
	BotID        string
	Symbol       string
	StrategyType string
	Settings     string
	CreatedAt    time.Time
}

// Trade is a trade lifecycle row. Exit fields are zero until the row is
// closed; Status moves from "open" to "closed" exactly once.
type Trade struct {
	ID         string
	OwnerID    string
	BotID      string
	Symbol     string
	Side       string
	Amount     float64
	EntryPrice float64
	ExitPrice  float64
	PnLPct     float64
	PnLUSD     float64
	Status     string
	OpenedAt   time.Time
	ClosedAt   time.Time
}

// ----------------------------------------
// Bot config queries
// ----------------------------------------

// SaveBotConfig inserts a new config row. A row with the same
// (owner_id, bot_id) yields ErrDuplicateConfig.
func (d *Database) SaveBotConfig(ctx context.Context, c BotConfig) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO bot_configs (owner_id, bot_id, symbol, strategy_type, settings)
		VALUES (?, ?, ?, ?, ?)
	`, c.OwnerID, c.BotID, c.Symbol, c.StrategyType, c.Settings)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY KEY") {
			return ErrDuplicateConfig
		}
		return fmt.Errorf("save bot config: %w", err)
	}
	return nil
}

// DeleteBotConfig removes a config row. Deleting a missing row returns
// ErrNotFound so callers can distinguish idempotent repeats.
func (d *Database) DeleteBotConfig(ctx context.Context, ownerID, botID string) error {
	res, err := d.DB.ExecContext(ctx, `
		DELETE FROM bot_configs WHERE owner_id = ? AND bot_id = ?
	`, ownerID, botID)
	if err != nil {
		return fmt.Errorf("delete bot config: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBotConfigs returns all config rows for one owner.
func (d *Database) ListBotConfigs(ctx context.Context, ownerID string) ([]BotConfig, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT owner_id, bot_id, symbol, strategy_type, settings, created_at
		FROM bot_configs
		WHERE owner_id = ?
		ORDER BY created_at ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list bot configs: %w", err)
	}
	defer rows.Close()

	var configs []BotConfig
	for rows.Next() {
		var c BotConfig
		if err := rows.Scan(&c.OwnerID, &c.BotID, &c.Symbol, &c.StrategyType, &c.Settings, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bot config: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// ListOwners returns the distinct owner ids present in the config store.
func (d *Database) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := d.DB.QueryContext(ctx, `SELECT DISTINCT owner_id FROM bot_configs`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// ----------------------------------------
// Trade queries
// ----------------------------------------

// InsertTrade records a newly opened trade.
func (d *Database) InsertTrade(ctx context.Context, t Trade) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO trade_history (id, owner_id, bot_id, symbol, side, amount, entry_price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'open')
	`, t.ID, t.OwnerID, t.BotID, t.Symbol, t.Side, t.Amount, t.EntryPrice)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// CloseTrade marks an open trade closed and records the exit numbers.
// Closing an unknown or already closed trade returns ErrNotFound.
func (d *Database) CloseTrade(ctx context.Context, id string, exitPrice, pnlPct, pnlUSD float64) error {
	res, err := d.DB.ExecContext(ctx, `
		UPDATE trade_history
		SET exit_price = ?, pnl_pct = ?, pnl_usd = ?, status = 'closed', close_timestamp = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'open'
	`, exitPrice, pnlPct, pnlUSD, id)
	if err != nil {
		return fmt.Errorf("close trade: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindOpenTrade returns the open trade for a bot, or ErrNotFound. There
// is at most one by construction.
func (d *Database) FindOpenTrade(ctx context.Context, ownerID, botID string) (Trade, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT id, owner_id, bot_id, symbol, side, amount, entry_price, status, open_timestamp
		FROM trade_history
		WHERE owner_id = ? AND bot_id = ? AND status = 'open'
		ORDER BY open_timestamp DESC
		LIMIT 1
	`, ownerID, botID)

	var t Trade
	err := row.Scan(&t.ID, &t.OwnerID, &t.BotID, &t.Symbol, &t.Side, &t.Amount, &t.EntryPrice, &t.Status, &t.OpenedAt)
	if err == sql.ErrNoRows {
		return Trade{}, ErrNotFound
	}
	if err != nil {
		return Trade{}, fmt.Errorf("find open trade: %w", err)
	}
	return t, nil
}

// ListTradesByOwner returns trade history for one owner, newest first.
func (d *Database) ListTradesByOwner(ctx context.Context, ownerID string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, owner_id, bot_id, symbol, side, amount, entry_price,
		       COALESCE(exit_price, 0), COALESCE(pnl_pct, 0), COALESCE(pnl_usd, 0),
		       status, open_timestamp, COALESCE(close_timestamp, open_timestamp)
		FROM trade_history
		WHERE owner_id = ?
		ORDER BY open_timestamp DESC
		LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(
			&t.ID, &t.OwnerID, &t.BotID, &t.Symbol, &t.Side, &t.Amount, &t.EntryPrice,
			&t.ExitPrice, &t.PnLPct, &t.PnLUSD, &t.Status, &t.OpenedAt, &t.ClosedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
