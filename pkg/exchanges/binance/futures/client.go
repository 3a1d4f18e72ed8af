// Package futures is a minimal Binance USDT-margined futures REST
// client covering the endpoints the decision loop needs: klines,
// position risk, balance, leverage and margin-type configuration, and
// order submission.
package futures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"botcore/pkg/exchanges/common"
)

const (
	mainnetBaseURL = "https://fapi.binance.com"
	testnetBaseURL = "https://testnet.binancefuture.com"

	usedWeightHeader = "X-Mbx-Used-Weight-1m"

	// Exchange-documented request weight budget per minute.
	weightBudget = 2400
)

// Config holds credentials and endpoint selection for one client.
type Config struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	RecvWindow int64 // milliseconds, 0 means the 5000ms default
}

// Client talks to the USDT-M futures REST API. One client is shared by
// all workers on the same credentials; the pacer and time sync are
// therefore process-global.
type Client struct {
	cfg      Config
	baseURL  string
	http     *http.Client
	pacer    *common.Pacer
	timeSync *common.TimeSync
}

// APIError is a structured exchange error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance error %d: %s", e.Code, e.Message)
}

// NewClient creates a client. Call StartTimeSync before issuing signed
// requests from long-lived processes.
func NewClient(cfg Config) *Client {
	base := mainnetBaseURL
	if cfg.Testnet {
		base = testnetBaseURL
	}
	c := &Client{
		cfg:     cfg,
		baseURL: base,
		http:    &http.Client{Timeout: 15 * time.Second},
		pacer:   common.NewPacer(weightBudget),
	}
	c.timeSync = common.NewTimeSync(c.fetchServerTime)
	return c
}

// StartTimeSync begins periodic clock synchronization with the server.
func (c *Client) StartTimeSync(ctx context.Context) {
	c.timeSync.Start(ctx)
}

// GetServerTime returns the exchange clock in epoch milliseconds.
func (c *Client) GetServerTime(ctx context.Context) (int64, error) {
	var resp struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := c.doPublic(ctx, "/fapi/v1/time", nil, 1, &resp); err != nil {
		return 0, err
	}
	return resp.ServerTime, nil
}

func (c *Client) fetchServerTime() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.GetServerTime(ctx)
}

// Kline is one candlestick as returned by the klines endpoint.
type Kline struct {
	OpenTime  int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime int64
}

// GetKlines fetches up to limit candlesticks for the symbol and
// interval, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	var raw [][]any
	if err := c.doPublic(ctx, "/fapi/v1/klines", params, klineWeight(limit), &raw); err != nil {
		return nil, err
	}

	klines := make([]Kline, 0, len(raw))
	for _, row := range raw {
		if len(row) < 7 {
			continue
		}
		k := Kline{}
		if v, ok := row[0].(float64); ok {
			k.OpenTime = int64(v)
		}
		if v, ok := row[6].(float64); ok {
			k.CloseTime = int64(v)
		}
		if s, ok := row[1].(string); ok {
			k.Open = parseFloat(s)
		}
		if s, ok := row[2].(string); ok {
			k.High = parseFloat(s)
		}
		if s, ok := row[3].(string); ok {
			k.Low = parseFloat(s)
		}
		if s, ok := row[4].(string); ok {
			k.Close = parseFloat(s)
		}
		if s, ok := row[5].(string); ok {
			k.Volume = parseFloat(s)
		}
		klines = append(klines, k)
	}
	return klines, nil
}

func klineWeight(limit int) int {
	switch {
	case limit < 100:
		return 1
	case limit < 500:
		return 2
	case limit <= 1000:
		return 5
	default:
		return 10
	}
}

// PositionRisk is one row of the position risk endpoint.
type PositionRisk struct {
	Symbol           string `json:"symbol"`
	PositionAmt      string `json:"positionAmt"`
	EntryPrice       string `json:"entryPrice"`
	UnrealizedProfit string `json:"unRealizedProfit"`
	Leverage         string `json:"leverage"`
	MarginType       string `json:"marginType"`
}

// GetPositions fetches position risk for one symbol.
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]PositionRisk, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var out []PositionRisk
	if err := c.doSigned(ctx, http.MethodGet, "/fapi/v2/positionRisk", params, 5, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssetBalance is one row of the balance endpoint.
type AssetBalance struct {
	Asset            string `json:"asset"`
	Balance          string `json:"balance"`
	AvailableBalance string `json:"availableBalance"`
}

// GetBalance fetches the futures wallet balances.
func (c *Client) GetBalance(ctx context.Context) ([]AssetBalance, error) {
	var out []AssetBalance
	if err := c.doSigned(ctx, http.MethodGet, "/fapi/v2/balance", nil, 5, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetLeverage changes the initial leverage for a symbol.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))
	return c.doSigned(ctx, http.MethodPost, "/fapi/v1/leverage", params, 1, nil)
}

// SetMarginType switches a symbol between ISOLATED and CROSSED margin.
func (c *Client) SetMarginType(ctx context.Context, symbol, marginType string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("marginType", marginType)
	return c.doSigned(ctx, http.MethodPost, "/fapi/v1/marginType", params, 1, nil)
}

// SubmitOrder places an order and returns the exchange ack.
func (c *Client) SubmitOrder(ctx context.Context, req common.OrderRequest) (*common.OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", string(req.Type))
	params.Set("quantity", formatFloat(req.Qty))
	if req.StopPrice > 0 {
		params.Set("stopPrice", formatFloat(req.StopPrice))
	}
	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	if req.ClientID != "" {
		params.Set("newClientOrderId", req.ClientID)
	}

	var resp struct {
		OrderID       int64  `json:"orderId"`
		ClientOrderID string `json:"clientOrderId"`
		Status        string `json:"status"`
	}
	if err := c.doSigned(ctx, http.MethodPost, "/fapi/v1/order", params, 1, &resp); err != nil {
		return nil, err
	}
	return &common.OrderResult{
		ExchangeOrderID: strconv.FormatInt(resp.OrderID, 10),
		Status:          mapStatus(resp.Status),
		ClientID:        resp.ClientOrderID,
	}, nil
}

func (c *Client) doPublic(ctx context.Context, path string, params url.Values, weight int, out any) error {
	if err := c.pacer.Wait(ctx, weight); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.execute(req, out)
}

func (c *Client) doSigned(ctx context.Context, method, path string, params url.Values, weight int, out any) error {
	if err := c.pacer.Wait(ctx, weight); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(c.timeSync.Now(), 10))
	if c.cfg.RecvWindow > 0 {
		params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow, 10))
	}
	payload := params.Encode()
	payload += "&signature=" + sign(c.cfg.APISecret, payload)

	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+payload, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(payload))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)
	return c.execute(req, out)
}

func (c *Client) execute(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.pacer.ObserveHeader(resp.Header.Get(usedWeightHeader))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{}
		if json.Unmarshal(body, apiErr) == nil && apiErr.Code != 0 {
			return apiErr
		}
		return fmt.Errorf("http %d from %s: %s", resp.StatusCode, req.URL.Path, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response %s: %w", req.URL.Path, err)
	}
	return nil
}
