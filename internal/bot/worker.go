package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"botcore/internal/events"
	"botcore/internal/ledger"
	"botcore/internal/market"
	"botcore/internal/strategy"
)

const (
	candleWindow = 100
	// A failed candle fetch retries on a fixed short interval regardless
	// of the configured timeframe.
	dataRetry = 60 * time.Second
)

// openTrade is the worker's record of the trade it currently manages.
type openTrade struct {
	id         string
	side       market.Side
	amount     float64
	entryPrice float64
}

// Worker runs one bot's decision loop: poll candles, evaluate the
// strategy, reconcile the signal against the exchange-reported position
// and place entry/exit orders. The loop only terminates through Stop;
// every per-tick error is logged and absorbed.
type Worker struct {
	cfg     Config
	strat   strategy.Strategy
	adapter market.Adapter
	ledger  ledger.Ledger
	bus     *events.Bus

	active *openTrade // non-nil iff a position is believed open

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newWorker(cfg Config, strat strategy.Strategy, adapter market.Adapter, l ledger.Ledger, bus *events.Bus) *Worker {
	return &Worker{
		cfg:     cfg,
		strat:   strat,
		adapter: adapter,
		ledger:  l,
		bus:     bus,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run executes the decision loop until Stop is called. It is launched as
// its own goroutine by the Registry.
func (w *Worker) Run() {
	defer close(w.done)
	ctx := context.Background()

	w.adoptOpenTrade(ctx)

	interval := time.Duration(market.IntervalSeconds(w.cfg.Settings.Timeframe)) * time.Second
	log.Printf("bot %s: started (%s %s via %s, polling every %s)",
		w.cfg.Key(), w.cfg.Symbol, w.cfg.Settings.Timeframe, w.strat.Name(), interval)

	for {
		wait := interval
		if err := w.tick(ctx); err != nil {
			if errors.Is(err, market.ErrDataUnavailable) {
				log.Printf("bot %s: market data unavailable, retrying in %s", w.cfg.Key(), dataRetry)
				wait = dataRetry
			} else {
				log.Printf("bot %s: tick error: %v", w.cfg.Key(), err)
			}
		}

		select {
		case <-w.stop:
			log.Printf("bot %s: stopped", w.cfg.Key())
			return
		case <-time.After(wait):
		}
	}
}

// Stop signals the loop and blocks until the current tick (if any) has
// finished and the goroutine has exited. No order is submitted after
// Stop returns.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// adoptOpenTrade re-attaches a trade row left open by a previous process
// so a restart does not orphan it.
func (w *Worker) adoptOpenTrade(ctx context.Context) {
	id, err := w.ledger.OpenTradeID(ctx, w.cfg.OwnerID, w.cfg.BotID)
	if err != nil {
		log.Printf("bot %s: open trade lookup failed: %v", w.cfg.Key(), err)
		return
	}
	if id == "" {
		return
	}

	pos, err := w.adapter.FetchPosition(ctx, w.cfg.Symbol)
	if err != nil || pos == nil {
		// Position already gone; the first tick reconciles the row.
		w.active = &openTrade{id: id}
		return
	}
	w.active = &openTrade{id: id, side: pos.Side, amount: pos.Size, entryPrice: pos.EntryPrice}
	log.Printf("bot %s: resumed managing open trade %s", w.cfg.Key(), id)
}

// tick is one pass of the decision table.
func (w *Worker) tick(ctx context.Context) error {
	candles, err := w.adapter.FetchCandles(ctx, w.cfg.Symbol, w.cfg.Settings.Timeframe, candleWindow)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return market.ErrDataUnavailable
	}

	signals, err := w.strat.GenerateSignals(candles)
	if err != nil {
		return fmt.Errorf("generate signals: %w", err)
	}
	last := signals[len(signals)-1]
	lastClose := candles[len(candles)-1].Close

	pos, err := w.adapter.FetchPosition(ctx, w.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("fetch position: %w", err)
	}

	if pos == nil {
		// A bracket may have closed the position between ticks; settle
		// the ledger row before anything else.
		if w.active != nil {
			w.reconcileFlat(ctx, lastClose)
		}

		wantLong := last == strategy.SignalLong && w.cfg.Settings.Direction.allowsLong()
		wantShort := last == strategy.SignalShort && w.cfg.Settings.Direction.allowsShort()
		if wantLong {
			return w.openPosition(ctx, market.SideLong, lastClose)
		}
		if wantShort {
			return w.openPosition(ctx, market.SideShort, lastClose)
		}
		return nil
	}

	if w.active != nil {
		opposing := (pos.Side == market.SideLong && last == strategy.SignalShort) ||
			(pos.Side == market.SideShort && last == strategy.SignalLong)
		if opposing {
			return w.closePosition(ctx, pos, lastClose)
		}
	}
	return nil
}

// openPosition enters a new trade with TP/SL brackets and records it.
func (w *Worker) openPosition(ctx context.Context, side market.Side, entryPrice float64) error {
	s := w.cfg.Settings

	if err := w.adapter.SetLeverageAndMargin(ctx, w.cfg.Symbol, s.Leverage, market.MarginIsolated); err != nil {
		return fmt.Errorf("set leverage: %w", err)
	}

	if entryPrice <= 0 {
		return fmt.Errorf("invalid entry price %.8f", entryPrice)
	}

	// Sizing uses the configured allocation; a bot without one sizes
	// from the free quote balance on the exchange.
	allocation := s.Balance
	if allocation <= 0 {
		free, err := w.adapter.FetchBalance(ctx)
		if err != nil {
			return fmt.Errorf("fetch balance: %w", err)
		}
		allocation = free
	}
	amount := roundAmount(allocation / entryPrice)
	if amount <= 0 {
		return fmt.Errorf("allocation %.2f yields zero order amount at price %.2f", allocation, entryPrice)
	}

	if _, err := w.adapter.SubmitMarketOrder(ctx, w.cfg.Symbol, market.EntryOrder(side), amount); err != nil {
		return fmt.Errorf("entry order: %w", err)
	}

	// Bracket failures leave the entry in place; they are reconciled
	// passively through the position belief on later ticks.
	exitSide := market.ExitOrder(side)
	if s.TakeProfitPct > 0 {
		tp := bracketPrice(side, entryPrice, s.TakeProfitPct, market.BracketTakeProfit)
		if _, err := w.adapter.SubmitBracketOrder(ctx, w.cfg.Symbol, exitSide, amount, tp, market.BracketTakeProfit); err != nil {
			log.Printf("bot %s: take profit order failed: %v", w.cfg.Key(), err)
		}
	}
	if s.StopLossPct > 0 {
		sl := bracketPrice(side, entryPrice, s.StopLossPct, market.BracketStopLoss)
		if _, err := w.adapter.SubmitBracketOrder(ctx, w.cfg.Symbol, exitSide, amount, sl, market.BracketStopLoss); err != nil {
			log.Printf("bot %s: stop loss order failed: %v", w.cfg.Key(), err)
		}
	}

	tradeID, err := w.ledger.OpenTrade(ctx, w.cfg.OwnerID, w.cfg.BotID, w.cfg.Symbol, string(side), amount, entryPrice)
	if err != nil {
		return fmt.Errorf("record trade open: %w", err)
	}
	w.active = &openTrade{id: tradeID, side: side, amount: amount, entryPrice: entryPrice}

	log.Printf("bot %s: opened %s %s amount=%.3f entry=%.4f", w.cfg.Key(), side, w.cfg.Symbol, amount, entryPrice)
	w.publish(events.EventTradeOpened, events.TradeEvent{
		TradeID:    tradeID,
		OwnerID:    w.cfg.OwnerID,
		BotID:      w.cfg.BotID,
		Symbol:     w.cfg.Symbol,
		Side:       string(side),
		Amount:     amount,
		EntryPrice: entryPrice,
		At:         time.Now().UTC(),
	})
	return nil
}

// closePosition exits on an opposing signal and settles the ledger row.
func (w *Worker) closePosition(ctx context.Context, pos *market.Position, exitPrice float64) error {
	// Sample the realized PnL as late as possible before closing.
	pnlUSD := pos.UnrealizedPnL
	if fresh, err := w.adapter.FetchPosition(ctx, w.cfg.Symbol); err == nil && fresh != nil {
		pnlUSD = fresh.UnrealizedPnL
	}

	if _, err := w.adapter.SubmitMarketOrder(ctx, w.cfg.Symbol, market.ExitOrder(pos.Side), pos.Size); err != nil {
		return fmt.Errorf("exit order: %w", err)
	}

	pnlPct := pnlPercent(pos.Side, pos.EntryPrice, exitPrice, w.cfg.Settings.Leverage)
	tradeID := w.active.id
	if err := w.ledger.CloseTrade(ctx, tradeID, exitPrice, pnlPct, pnlUSD); err != nil {
		log.Printf("bot %s: record trade close failed: %v", w.cfg.Key(), err)
	}
	w.active = nil

	log.Printf("bot %s: closed %s %s exit=%.4f pnl=%.2f%% (%.2f USD)",
		w.cfg.Key(), pos.Side, w.cfg.Symbol, exitPrice, pnlPct, pnlUSD)
	w.publish(events.EventTradeClosed, events.TradeEvent{
		TradeID:    tradeID,
		OwnerID:    w.cfg.OwnerID,
		BotID:      w.cfg.BotID,
		Symbol:     w.cfg.Symbol,
		Side:       string(pos.Side),
		Amount:     pos.Size,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		PnLPct:     pnlPct,
		PnLUSD:     pnlUSD,
		At:         time.Now().UTC(),
	})
	return nil
}

// reconcileFlat settles the open ledger row when the exchange reports no
// position, which happens after a bracket order fills between ticks. The
// exact fill price is unknown; the latest close stands in for it.
func (w *Worker) reconcileFlat(ctx context.Context, lastClose float64) {
	t := w.active
	pnlPct := 0.0
	pnlUSD := 0.0
	if t.side != "" {
		pnlPct = pnlPercent(t.side, t.entryPrice, lastClose, w.cfg.Settings.Leverage)
		// Realized USD is the contract quantity times the price move;
		// pnlPct already carries the leverage multiplier, the USD figure
		// must not.
		delta := lastClose - t.entryPrice
		if t.side == market.SideShort {
			delta = -delta
		}
		pnlUSD = t.amount * delta
	}

	if err := w.ledger.CloseTrade(ctx, t.id, lastClose, pnlPct, pnlUSD); err != nil {
		log.Printf("bot %s: reconcile close failed: %v", w.cfg.Key(), err)
	} else {
		log.Printf("bot %s: position gone (bracket fill assumed), trade %s closed at %.4f (%.2f%%)",
			w.cfg.Key(), t.id, lastClose, pnlPct)
	}
	w.active = nil

	w.publish(events.EventTradeClosed, events.TradeEvent{
		TradeID:    t.id,
		OwnerID:    w.cfg.OwnerID,
		BotID:      w.cfg.BotID,
		Symbol:     w.cfg.Symbol,
		Side:       string(t.side),
		Amount:     t.amount,
		EntryPrice: t.entryPrice,
		ExitPrice:  lastClose,
		PnLPct:     pnlPct,
		PnLUSD:     pnlUSD,
		At:         time.Now().UTC(),
	})
}

func (w *Worker) publish(e events.Event, payload any) {
	if w.bus != nil {
		w.bus.Publish(e, payload)
	}
}

// bracketPrice derives the trigger price for a TP or SL bracket. The
// percentage is expressed as a whole percent (5 means 5%).
func bracketPrice(side market.Side, entry, pct float64, kind market.BracketKind) float64 {
	offset := entry * pct / 100
	profitUp := side == market.SideLong
	if kind == market.BracketStopLoss {
		profitUp = !profitUp
	}
	if profitUp {
		return entry + offset
	}
	return entry - offset
}

// pnlPercent is the leveraged percentage return, sign-inverted for
// shorts.
func pnlPercent(side market.Side, entry, exit float64, leverage int) float64 {
	if entry == 0 {
		return 0
	}
	if leverage <= 0 {
		leverage = 1
	}
	pct := ((exit - entry) / entry) * 100 * float64(leverage)
	if side == market.SideShort {
		pct = -pct
	}
	return pct
}

// roundAmount rounds an order quantity to the 3 decimals accepted for
// contract quantities.
func roundAmount(amount float64) float64 {
	return math.Round(amount*1000) / 1000
}
