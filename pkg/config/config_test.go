package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DB_PATH", "DATABASE_PATH", "BINANCE_TESTNET", "BINANCE_API_KEY",
		"BINANCE_API_SECRET", "ENABLE_PRICE_STREAM", "STREAM_SYMBOLS",
		"STREAM_INTERVAL", "RESTORE_OWNERS", "SUMMARY_INTERVAL", "CONFIG_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DBPath != "./data/botcore.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.BinanceTestnet || cfg.EnablePriceStream {
		t.Error("feature flags should default off")
	}
	if len(cfg.StreamSymbols) != 2 {
		t.Errorf("StreamSymbols = %v", cfg.StreamSymbols)
	}
	if cfg.StreamInterval != "1m" {
		t.Errorf("StreamInterval = %q", cfg.StreamInterval)
	}
	if cfg.SummaryInterval != 5*time.Minute {
		t.Errorf("SummaryInterval = %v", cfg.SummaryInterval)
	}
	if len(cfg.RestoreOwners) != 0 {
		t.Errorf("RestoreOwners = %v", cfg.RestoreOwners)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("BINANCE_TESTNET", "true")
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")
	t.Setenv("ENABLE_PRICE_STREAM", "true")
	t.Setenv("STREAM_SYMBOLS", " BTCUSDT , SOLUSDT ,")
	t.Setenv("RESTORE_OWNERS", "alice,bob")
	t.Setenv("SUMMARY_INTERVAL", "30s")
	t.Setenv("CONFIG_FILE", "")
	os.Unsetenv("CONFIG_FILE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/test.db" || !cfg.BinanceTestnet || !cfg.EnablePriceStream {
		t.Errorf("env values not applied: %+v", cfg)
	}
	if len(cfg.StreamSymbols) != 2 || cfg.StreamSymbols[0] != "BTCUSDT" || cfg.StreamSymbols[1] != "SOLUSDT" {
		t.Errorf("StreamSymbols = %v", cfg.StreamSymbols)
	}
	if len(cfg.RestoreOwners) != 2 || cfg.RestoreOwners[1] != "bob" {
		t.Errorf("RestoreOwners = %v", cfg.RestoreOwners)
	}
	if cfg.SummaryInterval != 30*time.Second {
		t.Errorf("SummaryInterval = %v", cfg.SummaryInterval)
	}
}

func TestYAMLOverlayWins(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/env.db")
	t.Setenv("STREAM_SYMBOLS", "BTCUSDT")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "db_path: /tmp/overlay.db\nstream_symbols:\n  - ETHUSDT\n  - XRPUSDT\nrestore_owners:\n  - carol\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/overlay.db" {
		t.Errorf("DBPath = %q, want overlay value", cfg.DBPath)
	}
	if len(cfg.StreamSymbols) != 2 || cfg.StreamSymbols[0] != "ETHUSDT" {
		t.Errorf("StreamSymbols = %v, want overlay values", cfg.StreamSymbols)
	}
	if len(cfg.RestoreOwners) != 1 || cfg.RestoreOwners[0] != "carol" {
		t.Errorf("RestoreOwners = %v", cfg.RestoreOwners)
	}
}

func TestBrokenOverlayFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml:::"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for malformed overlay")
	}
}

func TestMissingOverlayFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for missing overlay file")
	}
}
