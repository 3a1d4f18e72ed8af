package monitor

import (
	"context"
	"testing"
	"time"

	"botcore/internal/events"
)

func waitForStats(t *testing.T, m *Metrics, key string, check func(BotStats) bool) BotStats {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if s, ok := m.Snapshot()[key]; ok && check(s) {
			return s
		}
		select {
		case <-deadline:
			t.Fatalf("stats for %s never reached expected state: %+v", key, m.Snapshot())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestMetricsAccumulate(t *testing.T) {
	bus := events.NewBus()
	m := NewMetrics(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx, 0)

	// Give the collector goroutine a moment to subscribe.
	time.Sleep(20 * time.Millisecond)

	bus.Publish(events.EventTradeOpened, events.TradeEvent{
		OwnerID: "owner-1", BotID: "bot-1", At: time.Now(),
	})
	bus.Publish(events.EventTradeClosed, events.TradeEvent{
		OwnerID: "owner-1", BotID: "bot-1", PnLUSD: 42.5, PnLPct: 12, At: time.Now(),
	})

	s := waitForStats(t, m, "owner-1_bot-1", func(s BotStats) bool {
		return s.TradesClosed == 1
	})
	if s.TradesOpened != 1 {
		t.Errorf("TradesOpened = %d, want 1", s.TradesOpened)
	}
	if s.RealizedUSD != 42.5 || s.RealizedPct != 12 {
		t.Errorf("realized = %v USD %v%%, want 42.5 / 12", s.RealizedUSD, s.RealizedPct)
	}
	if s.LastTradeAt.IsZero() {
		t.Error("LastTradeAt should be set")
	}
}

func TestMetricsSeparateBots(t *testing.T) {
	bus := events.NewBus()
	m := NewMetrics(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx, 0)
	time.Sleep(20 * time.Millisecond)

	bus.Publish(events.EventTradeOpened, events.TradeEvent{OwnerID: "o", BotID: "a", At: time.Now()})
	bus.Publish(events.EventTradeOpened, events.TradeEvent{OwnerID: "o", BotID: "b", At: time.Now()})

	waitForStats(t, m, "o_a", func(s BotStats) bool { return s.TradesOpened == 1 })
	waitForStats(t, m, "o_b", func(s BotStats) bool { return s.TradesOpened == 1 })

	if len(m.Snapshot()) != 2 {
		t.Errorf("expected 2 tracked bots, got %v", m.Snapshot())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	bus := events.NewBus()
	m := NewMetrics(bus)

	snap := m.Snapshot()
	snap["x"] = BotStats{TradesOpened: 99}

	if len(m.Snapshot()) != 0 {
		t.Error("mutating a snapshot must not affect the collector")
	}
}
