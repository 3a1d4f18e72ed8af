package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"botcore/pkg/db"
)

// ConfigStore is the durable bot configuration store. Only the Registry
// mutates it; workers never touch it.
type ConfigStore interface {
	// Save appends a config; a duplicate (owner, bot) key yields
	// db.ErrDuplicateConfig.
	Save(ctx context.Context, cfg Config) error

	// Delete removes a config; db.ErrNotFound when absent.
	Delete(ctx context.Context, ownerID, botID string) error

	// List returns all configs for one owner.
	List(ctx context.Context, ownerID string) ([]Config, error)
}

// SQLConfigStore persists configs in the shared SQLite database, with
// settings serialized as a JSON column.
type SQLConfigStore struct {
	db *db.Database
}

// NewSQLConfigStore wraps the database handle.
func NewSQLConfigStore(database *db.Database) *SQLConfigStore {
	return &SQLConfigStore{db: database}
}

func (s *SQLConfigStore) Save(ctx context.Context, cfg Config) error {
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return s.db.SaveBotConfig(ctx, db.BotConfig{
		OwnerID:      cfg.OwnerID,
		BotID:        cfg.BotID,
		Symbol:       cfg.Symbol,
		StrategyType: cfg.Strategy,
		Settings:     string(settings),
	})
}

func (s *SQLConfigStore) Delete(ctx context.Context, ownerID, botID string) error {
	return s.db.DeleteBotConfig(ctx, ownerID, botID)
}

func (s *SQLConfigStore) List(ctx context.Context, ownerID string) ([]Config, error) {
	rows, err := s.db.ListBotConfigs(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	configs := make([]Config, 0, len(rows))
	for _, row := range rows {
		var settings Settings
		if err := json.Unmarshal([]byte(row.Settings), &settings); err != nil {
			return nil, fmt.Errorf("unmarshal settings for %s_%s: %w", row.OwnerID, row.BotID, err)
		}
		configs = append(configs, Config{
			OwnerID:  row.OwnerID,
			BotID:    row.BotID,
			Symbol:   row.Symbol,
			Strategy: row.StrategyType,
			Settings: settings,
		})
	}
	return configs, nil
}
