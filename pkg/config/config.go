// Package config loads process settings from the environment, with an
// optional .env file and an optional YAML overlay for settings that are
// awkward as flat variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds environment-driven settings for the bot engine.
type Config struct {
	// Database
	DBPath string

	// Binance
	BinanceTestnet   bool
	BinanceAPIKey    string
	BinanceAPISecret string
	RecvWindowMs     int64

	// Price stream (informational ticks on the event bus)
	EnablePriceStream bool
	StreamSymbols     []string
	StreamInterval    string

	// Owners whose persisted bots are restored at startup.
	RestoreOwners []string

	// Monitor summary cadence; zero disables the periodic log line.
	SummaryInterval time.Duration
}

// overlay is the shape of the optional YAML config file. Values present
// in the file override the environment.
type overlay struct {
	DBPath        string   `yaml:"db_path"`
	StreamSymbols []string `yaml:"stream_symbols"`
	RestoreOwners []string `yaml:"restore_owners"`
}

// Load reads environment variables (optionally via .env), then applies
// the YAML overlay named by CONFIG_FILE when set.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	// Prefer DB_PATH, then DATABASE_PATH for backward compatibility.
	dbPath := getEnv("DB_PATH", "")
	if dbPath == "" {
		dbPath = getEnv("DATABASE_PATH", "./data/botcore.db")
	}

	cfg := &Config{
		DBPath:            dbPath,
		BinanceTestnet:    getEnv("BINANCE_TESTNET", "false") == "true",
		BinanceAPIKey:     os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:  os.Getenv("BINANCE_API_SECRET"),
		RecvWindowMs:      getEnvInt64("BINANCE_RECV_WINDOW_MS", 0),
		EnablePriceStream: getEnv("ENABLE_PRICE_STREAM", "false") == "true",
		StreamSymbols:     splitAndTrim(getEnv("STREAM_SYMBOLS", "BTCUSDT,ETHUSDT")),
		StreamInterval:    getEnv("STREAM_INTERVAL", "1m"),
		RestoreOwners:     splitAndTrim(getEnv("RESTORE_OWNERS", "")),
		SummaryInterval:   getEnvDuration("SUMMARY_INTERVAL", 5*time.Minute),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyOverlay(cfg, path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func applyOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	if len(o.StreamSymbols) > 0 {
		cfg.StreamSymbols = o.StreamSymbols
	}
	if len(o.RestoreOwners) > 0 {
		cfg.RestoreOwners = o.RestoreOwners
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
