package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"botcore/pkg/exchanges/binance/futures"
	"botcore/pkg/exchanges/common"
)

const quoteAsset = "USDT"

// Binance error codes meaning the requested setting is already in
// effect. Treated as success.
const (
	codeNoNeedChangeMargin = -4046
	codeLeverageUnchanged  = -4028
)

// BinanceAdapter implements Adapter over the USDT-M futures client.
type BinanceAdapter struct {
	client *futures.Client
}

// NewBinanceAdapter wraps a futures client.
func NewBinanceAdapter(client *futures.Client) *BinanceAdapter {
	return &BinanceAdapter{client: client}
}

// FetchCandles returns closed bars for the symbol, oldest first. Any
// transport or decode failure is wrapped in ErrDataUnavailable.
func (a *BinanceAdapter) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error) {
	klines, err := a.client.GetKlines(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s klines: %v", ErrDataUnavailable, symbol, err)
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("%w: %s klines: empty response", ErrDataUnavailable, symbol)
	}

	candles := make([]Candle, 0, len(klines))
	now := time.Now().UnixMilli()
	for _, k := range klines {
		// Drop the still-forming bar; signals read only closed bars.
		if k.CloseTime > now {
			continue
		}
		candles = append(candles, Candle{
			OpenTime: time.UnixMilli(k.OpenTime),
			Open:     k.Open,
			High:     k.High,
			Low:      k.Low,
			Close:    k.Close,
			Volume:   k.Volume,
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s klines: no closed bars", ErrDataUnavailable, symbol)
	}
	return candles, nil
}

// FetchPosition returns the open position for symbol, or nil when flat.
func (a *BinanceAdapter) FetchPosition(ctx context.Context, symbol string) (*Position, error) {
	rows, err := a.client.GetPositions(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch position %s: %w", symbol, err)
	}

	for _, row := range rows {
		if row.Symbol != symbol {
			continue
		}
		amt, err := strconv.ParseFloat(row.PositionAmt, 64)
		if err != nil || amt == 0 {
			continue
		}
		side := SideLong
		if amt < 0 {
			side = SideShort
		}
		entry, _ := strconv.ParseFloat(row.EntryPrice, 64)
		upnl, _ := strconv.ParseFloat(row.UnrealizedProfit, 64)
		return &Position{
			Side:          side,
			EntryPrice:    entry,
			Size:          math.Abs(amt),
			UnrealizedPnL: upnl,
		}, nil
	}
	return nil, nil
}

// FetchBalance returns the available USDT balance in the futures wallet.
func (a *BinanceAdapter) FetchBalance(ctx context.Context) (float64, error) {
	balances, err := a.client.GetBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	for _, b := range balances {
		if b.Asset == quoteAsset {
			free, err := strconv.ParseFloat(b.AvailableBalance, 64)
			if err != nil {
				return 0, fmt.Errorf("fetch balance: parse %q: %w", b.AvailableBalance, err)
			}
			return free, nil
		}
	}
	return 0, nil
}

// SetLeverageAndMargin applies margin mode then leverage. The exchange
// rejects a no-op margin switch with a dedicated error code; that and an
// unchanged-leverage response both count as success.
func (a *BinanceAdapter) SetLeverageAndMargin(ctx context.Context, symbol string, leverage int, marginMode string) error {
	if err := a.client.SetMarginType(ctx, symbol, marginMode); err != nil && !isAlreadySet(err) {
		return fmt.Errorf("set margin type %s: %w", symbol, err)
	}
	if err := a.client.SetLeverage(ctx, symbol, leverage); err != nil && !isAlreadySet(err) {
		return fmt.Errorf("set leverage %s: %w", symbol, err)
	}
	return nil
}

// SubmitMarketOrder places a market order and returns the exchange id.
func (a *BinanceAdapter) SubmitMarketOrder(ctx context.Context, symbol string, side OrderSide, amount float64) (string, error) {
	res, err := a.client.SubmitOrder(ctx, common.OrderRequest{
		Symbol: symbol,
		Side:   common.Side(side),
		Type:   common.OrderTypeMarket,
		Qty:    amount,
	})
	if err != nil {
		return "", fmt.Errorf("market order %s %s: %w", side, symbol, err)
	}
	return res.ExchangeOrderID, nil
}

// SubmitBracketOrder places a reduce-only conditional market order at
// the trigger price.
func (a *BinanceAdapter) SubmitBracketOrder(ctx context.Context, symbol string, side OrderSide, amount, triggerPrice float64, kind BracketKind) (string, error) {
	orderType := common.OrderTypeTakeProfit
	if kind == BracketStopLoss {
		orderType = common.OrderTypeStopLoss
	}
	res, err := a.client.SubmitOrder(ctx, common.OrderRequest{
		Symbol:     symbol,
		Side:       common.Side(side),
		Type:       orderType,
		Qty:        amount,
		StopPrice:  triggerPrice,
		ReduceOnly: true,
	})
	if err != nil {
		return "", fmt.Errorf("%s order %s %s: %w", kind, side, symbol, err)
	}
	return res.ExchangeOrderID, nil
}

func isAlreadySet(err error) bool {
	var apiErr *futures.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeNoNeedChangeMargin || apiErr.Code == codeLeverageUnchanged
}
