package bot

import (
	"context"
	"testing"

	"botcore/internal/ledger"
	"botcore/pkg/db"
)

func newTestDeps(t *testing.T) (*db.Database, *SQLConfigStore, *ledger.SQLLedger) {
	t.Helper()
	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return database, NewSQLConfigStore(database), ledger.NewSQLLedger(database)
}

func quietAdapter() *fakeAdapter {
	return &fakeAdapter{candles: barsAtClose(100, 100)}
}

func TestRegistryStartAndList(t *testing.T) {
	_, store, l := newTestDeps(t)
	r := NewRegistry(store, l, nil)
	defer r.StopAll()
	ctx := context.Background()

	ok := r.Start(ctx, "owner-1", "bot-1", "BTCUSDT", "adaptive_trend", Settings{Balance: 1000}, quietAdapter())
	if !ok {
		t.Fatal("start should succeed")
	}
	if r.LiveCount() != 1 {
		t.Fatalf("LiveCount = %d, want 1", r.LiveCount())
	}

	bots, err := r.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	cfg, ok := bots["bot-1"]
	if !ok {
		t.Fatalf("bot-1 missing from list: %v", bots)
	}
	if cfg.Symbol != "BTCUSDT" || cfg.Strategy != "adaptive_trend" {
		t.Errorf("listed config = %+v", cfg)
	}
	// Defaults are applied before persisting.
	if cfg.Settings.Leverage != 10 || cfg.Settings.Direction != DirectionBoth || cfg.Settings.Timeframe != "1m" {
		t.Errorf("defaults not applied: %+v", cfg.Settings)
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	_, store, l := newTestDeps(t)
	r := NewRegistry(store, l, nil)
	defer r.StopAll()
	ctx := context.Background()

	if !r.Start(ctx, "owner-1", "bot-1", "BTCUSDT", "adaptive_trend", Settings{Balance: 1000}, quietAdapter()) {
		t.Fatal("first start should succeed")
	}
	if r.Start(ctx, "owner-1", "bot-1", "ETHUSDT", "adaptive_trend", Settings{Balance: 1000}, quietAdapter()) {
		t.Fatal("duplicate start should be rejected")
	}
	if r.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", r.LiveCount())
	}

	// Same bot id under another owner is a different bot.
	if !r.Start(ctx, "owner-2", "bot-1", "BTCUSDT", "adaptive_trend", Settings{Balance: 1000}, quietAdapter()) {
		t.Error("same bot id under another owner should start")
	}
}

func TestRegistryRejectsUnknownStrategy(t *testing.T) {
	_, store, l := newTestDeps(t)
	r := NewRegistry(store, l, nil)
	ctx := context.Background()

	if r.Start(ctx, "owner-1", "bot-1", "BTCUSDT", "no_such_strategy", Settings{}, quietAdapter()) {
		t.Fatal("unknown strategy must be rejected")
	}
	if r.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0", r.LiveCount())
	}
	configs, err := store.List(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 0 {
		t.Errorf("nothing should be persisted, got %+v", configs)
	}
}

func TestRegistryStopIsIdempotent(t *testing.T) {
	_, store, l := newTestDeps(t)
	r := NewRegistry(store, l, nil)
	ctx := context.Background()

	r.Start(ctx, "owner-1", "bot-1", "BTCUSDT", "adaptive_trend", Settings{Balance: 1000}, quietAdapter())

	if !r.Stop(ctx, "owner-1", "bot-1") {
		t.Fatal("first stop should report true")
	}
	if r.Stop(ctx, "owner-1", "bot-1") {
		t.Fatal("second stop should report false")
	}
	if r.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0", r.LiveCount())
	}

	configs, err := store.List(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 0 {
		t.Errorf("config should be removed, got %+v", configs)
	}
}

func TestRegistryStopUnknownBot(t *testing.T) {
	_, store, l := newTestDeps(t)
	r := NewRegistry(store, l, nil)
	if r.Stop(context.Background(), "owner-1", "ghost") {
		t.Error("stopping an unknown bot should report false")
	}
}

func TestRegistryRestoreRoundTrip(t *testing.T) {
	_, store, l := newTestDeps(t)
	ctx := context.Background()

	first := NewRegistry(store, l, nil)
	first.Start(ctx, "owner-1", "bot-1", "BTCUSDT", "adaptive_trend", Settings{Balance: 1000, Leverage: 5}, quietAdapter())
	first.Start(ctx, "owner-1", "bot-2", "ETHUSDT", "rsi_macd", Settings{Balance: 500}, quietAdapter())
	// StopAll keeps the durable configs.
	first.StopAll()
	if first.LiveCount() != 0 {
		t.Fatalf("LiveCount after StopAll = %d, want 0", first.LiveCount())
	}

	second := NewRegistry(store, l, nil)
	defer second.StopAll()
	if err := second.RestoreAll(ctx, "owner-1", quietAdapter()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if second.LiveCount() != 2 {
		t.Errorf("LiveCount after restore = %d, want 2", second.LiveCount())
	}

	bots, err := second.List(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	if bots["bot-1"].Settings.Leverage != 5 {
		t.Errorf("settings did not survive the round trip: %+v", bots["bot-1"].Settings)
	}
}

func TestRegistryRestoreSkipsUnknownStrategy(t *testing.T) {
	_, store, l := newTestDeps(t)
	ctx := context.Background()

	// A row persisted by an older build whose strategy no longer exists.
	if err := store.Save(ctx, Config{
		OwnerID:  "owner-1",
		BotID:    "bot-legacy",
		Symbol:   "BTCUSDT",
		Strategy: "retired_strategy",
		Settings: Settings{Balance: 1000}.withDefaults(),
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, Config{
		OwnerID:  "owner-1",
		BotID:    "bot-ok",
		Symbol:   "BTCUSDT",
		Strategy: "adaptive_trend",
		Settings: Settings{Balance: 1000}.withDefaults(),
	}); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(store, l, nil)
	defer r.StopAll()
	if err := r.RestoreAll(ctx, "owner-1", quietAdapter()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if r.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1 (legacy bot skipped)", r.LiveCount())
	}
}

func TestRegistryListIsolatesOwners(t *testing.T) {
	_, store, l := newTestDeps(t)
	r := NewRegistry(store, l, nil)
	defer r.StopAll()
	ctx := context.Background()

	r.Start(ctx, "owner-a", "bot-1", "BTCUSDT", "adaptive_trend", Settings{Balance: 1000}, quietAdapter())
	r.Start(ctx, "owner-b", "bot-2", "ETHUSDT", "adaptive_trend", Settings{Balance: 1000}, quietAdapter())

	bots, err := r.List(ctx, "owner-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(bots) != 1 {
		t.Fatalf("owner-a should see exactly one bot, got %v", bots)
	}
	if _, leaked := bots["bot-2"]; leaked {
		t.Error("owner-b's bot leaked into owner-a's list")
	}
}
