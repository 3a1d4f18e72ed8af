package bot

// Direction restricts which side of the market a bot may enter.
type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
	DirectionBoth  Direction = "Both"
)

func (d Direction) allowsLong() bool {
	return d == DirectionLong || d == DirectionBoth || d == ""
}

func (d Direction) allowsShort() bool {
	return d == DirectionShort || d == DirectionBoth || d == ""
}

// Settings are the per-bot trading parameters. Balance is the quote
// amount allocated to each entry; TakeProfitPct and StopLossPct are
// percentages (5 means 5%). A zero percentage disables that bracket.
type Settings struct {
	Leverage       int                `json:"leverage"`
	Balance        float64            `json:"balance"`
	Direction      Direction          `json:"direction"`
	Timeframe      string             `json:"timeframe"`
	TakeProfitPct  float64            `json:"take_profit_pct"`
	StopLossPct    float64            `json:"stop_loss_pct"`
	StrategyParams map[string]float64 `json:"strategy_params,omitempty"`
}

func (s Settings) withDefaults() Settings {
	if s.Leverage <= 0 {
		s.Leverage = 10
	}
	if s.Direction == "" {
		s.Direction = DirectionBoth
	}
	if s.Timeframe == "" {
		s.Timeframe = "1m"
	}
	return s
}

// Config is the durable identity and settings of one bot. It is created
// by Registry.Start, immutable afterwards, and removed by Registry.Stop.
type Config struct {
	OwnerID  string
	BotID    string
	Symbol   string
	Strategy string
	Settings Settings
}

// Key is the unique composite key used for the live-worker set and the
// persisted store.
func (c Config) Key() string {
	return c.OwnerID + "_" + c.BotID
}
