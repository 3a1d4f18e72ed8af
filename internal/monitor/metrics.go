// Package monitor aggregates operational counters from the event bus.
// It is purely observational; workers never depend on it.
package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"botcore/internal/events"
)

// BotStats accumulates per-bot trade activity.
type BotStats struct {
	TradesOpened int
	TradesClosed int
	RealizedUSD  float64
	RealizedPct  float64
	LastTradeAt  time.Time
}

// Metrics listens on the bus and keeps running totals per bot.
type Metrics struct {
	bus *events.Bus

	mu    sync.RWMutex
	stats map[string]*BotStats // keyed by ownerID_botID
}

// NewMetrics creates the collector.
func NewMetrics(bus *events.Bus) *Metrics {
	return &Metrics{
		bus:   bus,
		stats: make(map[string]*BotStats),
	}
}

// Start subscribes to trade events and, when summaryEvery is positive,
// logs a periodic summary until ctx is cancelled.
func (m *Metrics) Start(ctx context.Context, summaryEvery time.Duration) {
	opened, unsubOpen := m.bus.Subscribe(events.EventTradeOpened, 64)
	closed, unsubClose := m.bus.Subscribe(events.EventTradeClosed, 64)

	go func() {
		defer unsubOpen()
		defer unsubClose()

		var summary <-chan time.Time
		if summaryEvery > 0 {
			ticker := time.NewTicker(summaryEvery)
			defer ticker.Stop()
			summary = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-opened:
				if !ok {
					return
				}
				if ev, isTrade := msg.(events.TradeEvent); isTrade {
					m.recordOpen(ev)
				}
			case msg, ok := <-closed:
				if !ok {
					return
				}
				if ev, isTrade := msg.(events.TradeEvent); isTrade {
					m.recordClose(ev)
				}
			case <-summary:
				m.logSummary()
			}
		}
	}()
}

func (m *Metrics) recordOpen(ev events.TradeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(ev.OwnerID + "_" + ev.BotID)
	s.TradesOpened++
	s.LastTradeAt = ev.At
}

func (m *Metrics) recordClose(ev events.TradeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(ev.OwnerID + "_" + ev.BotID)
	s.TradesClosed++
	s.RealizedUSD += ev.PnLUSD
	s.RealizedPct += ev.PnLPct
	s.LastTradeAt = ev.At
}

func (m *Metrics) get(key string) *BotStats {
	s, ok := m.stats[key]
	if !ok {
		s = &BotStats{}
		m.stats[key] = s
	}
	return s
}

// Snapshot returns a copy of the per-bot stats.
func (m *Metrics) Snapshot() map[string]BotStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]BotStats, len(m.stats))
	for k, v := range m.stats {
		out[k] = *v
	}
	return out
}

func (m *Metrics) logSummary() {
	for key, s := range m.Snapshot() {
		log.Printf("monitor: %s trades=%d/%d closed pnl=%.2f USD (%.2f%% cum)",
			key, s.TradesClosed, s.TradesOpened, s.RealizedUSD, s.RealizedPct)
	}
	if n := m.bus.Dropped(events.EventTradeOpened) + m.bus.Dropped(events.EventTradeClosed); n > 0 {
		log.Printf("monitor: %d trade events missed (slow subscriber)", n)
	}
}
