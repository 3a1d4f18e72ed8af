package futures

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	mainnetStreamURL = "wss://fstream.binance.com"
	testnetStreamURL = "wss://stream.binancefuture.com"

	streamReadTimeout   = 90 * time.Second
	streamReconnectWait = 5 * time.Second
)

// KlineTick is one kline update from the stream. Closed is true when the
// bar is final.
type KlineTick struct {
	Symbol   string
	Interval string
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Closed   bool
}

// KlineHandler consumes stream ticks. It must not block.
type KlineHandler func(KlineTick)

type combinedKlineEvent struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol string `json:"s"`
		Kline  struct {
			OpenTime int64  `json:"t"`
			Interval string `json:"i"`
			Open     string `json:"o"`
			High     string `json:"h"`
			Low      string `json:"l"`
			Close    string `json:"c"`
			Volume   string `json:"v"`
			Final    bool   `json:"x"`
		} `json:"k"`
	} `json:"data"`
}

// KlineStream maintains a combined kline websocket subscription with
// automatic reconnection.
type KlineStream struct {
	url     string
	handler KlineHandler
}

// NewKlineStream builds a stream for the given symbols and interval.
// Symbols are lowercased per the combined-stream naming rules.
func NewKlineStream(testnet bool, symbols []string, interval string, handler KlineHandler) *KlineStream {
	base := mainnetStreamURL
	if testnet {
		base = testnetStreamURL
	}
	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		streams = append(streams, fmt.Sprintf("%s@kline_%s", strings.ToLower(s), interval))
	}
	return &KlineStream{
		url:     base + "/stream?streams=" + strings.Join(streams, "/"),
		handler: handler,
	}
}

// Run connects and pumps messages until ctx is cancelled, reconnecting
// on any read failure.
func (s *KlineStream) Run(ctx context.Context) {
	for {
		if err := s.pump(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("kline stream: %v, reconnecting in %s", err, streamReconnectWait)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(streamReconnectWait):
		}
	}
}

func (s *KlineStream) pump(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Reader unblocks on ctx cancel via deadline-forcing close.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	log.Printf("kline stream: connected")
	for {
		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var event combinedKlineEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}
		if event.Data.Symbol == "" {
			continue
		}

		k := event.Data.Kline
		s.handler(KlineTick{
			Symbol:   event.Data.Symbol,
			Interval: k.Interval,
			OpenTime: k.OpenTime,
			Open:     parseFloat(k.Open),
			High:     parseFloat(k.High),
			Low:      parseFloat(k.Low),
			Close:    parseFloat(k.Close),
			Volume:   parseFloat(k.Volume),
			Closed:   k.Final,
		})
	}
}
