package events

import "time"

// Event identifies a topic on the bus.
type Event string

const (
	EventBotStarted  Event = "bot.started"
	EventBotStopped  Event = "bot.stopped"
	EventTradeOpened Event = "trade.opened"
	EventTradeClosed Event = "trade.closed"
	EventPriceTick   Event = "price.tick"
)

// BotEvent announces a worker lifecycle change.
type BotEvent struct {
	OwnerID  string
	BotID    string
	Symbol   string
	Strategy string
}

// TradeEvent announces a trade open or close.
type TradeEvent struct {
	TradeID    string
	OwnerID    string
	BotID      string
	Symbol     string
	Side       string
	Amount     float64
	EntryPrice float64
	ExitPrice  float64
	PnLPct     float64
	PnLUSD     float64
	At         time.Time
}

// PriceTick is a lightweight market data sample from the stream feed.
type PriceTick struct {
	Symbol string
	Close  float64
	At     time.Time
}
