package db

import "fmt"

const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS bot_configs (
    owner_id TEXT NOT NULL,
    bot_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    strategy_type TEXT NOT NULL,
    settings TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (owner_id, bot_id)
);

CREATE TABLE IF NOT EXISTS trade_history (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    bot_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    side TEXT NOT NULL,
    amount REAL NOT NULL,
    entry_price REAL NOT NULL,
    exit_price REAL,
    pnl_pct REAL,
    pnl_usd REAL,
    status TEXT NOT NULL DEFAULT 'open',
    open_timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
    close_timestamp DATETIME
);

CREATE INDEX IF NOT EXISTS idx_trade_history_owner ON trade_history(owner_id);
CREATE INDEX IF NOT EXISTS idx_trade_history_bot ON trade_history(owner_id, bot_id, status);
`

// ApplyMigrations creates the tables on first run. All statements are
// idempotent, so a database from a previous run passes through unchanged.
func ApplyMigrations(d *Database) error {
	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
