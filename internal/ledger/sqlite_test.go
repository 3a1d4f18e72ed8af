package ledger

import (
	"context"
	"testing"

	"botcore/pkg/db"
)

func newTestLedger(t *testing.T) *SQLLedger {
	t.Helper()
	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewSQLLedger(database)
}

func TestOpenCloseRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	id, err := l.OpenTrade(ctx, "owner-1", "bot-1", "BTCUSDT", "long", 10, 100)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated trade id")
	}

	got, err := l.OpenTradeID(ctx, "owner-1", "bot-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got != id {
		t.Errorf("OpenTradeID = %q, want %q", got, id)
	}

	if err := l.CloseTrade(ctx, id, 105, 50, 500); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	got, err = l.OpenTradeID(ctx, "owner-1", "bot-1")
	if err != nil {
		t.Fatalf("lookup after close failed: %v", err)
	}
	if got != "" {
		t.Errorf("expected no open trade after close, got %q", got)
	}

	trades, err := l.ListTrades(ctx, "owner-1", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(trades) != 1 || trades[0].Status != "closed" || trades[0].ExitPrice != 105 {
		t.Errorf("unexpected history: %+v", trades)
	}
}

func TestOpenTradeIDWhenNone(t *testing.T) {
	l := newTestLedger(t)
	id, err := l.OpenTradeID(context.Background(), "owner-1", "bot-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestTradeIDsAreUnique(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	a, err := l.OpenTrade(ctx, "owner-1", "bot-1", "BTCUSDT", "long", 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.OpenTrade(ctx, "owner-1", "bot-2", "ETHUSDT", "short", 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("trade ids must be unique, both %q", a)
	}
}
