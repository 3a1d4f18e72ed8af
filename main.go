package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botcore/internal/bot"
	"botcore/internal/events"
	"botcore/internal/ledger"
	"botcore/internal/market"
	"botcore/internal/monitor"
	"botcore/pkg/config"
	"botcore/pkg/db"
	"botcore/pkg/exchanges/binance/futures"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("starting bot engine, db=%s testnet=%v", cfg.DBPath, cfg.BinanceTestnet)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core services
	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db migrations failed: %v", err)
	}

	metrics := monitor.NewMetrics(bus)
	metrics.Start(ctx, cfg.SummaryInterval)

	// Exchange client shared by all workers
	client := futures.NewClient(futures.Config{
		APIKey:     cfg.BinanceAPIKey,
		APISecret:  cfg.BinanceAPISecret,
		Testnet:    cfg.BinanceTestnet,
		RecvWindow: cfg.RecvWindowMs,
	})
	client.StartTimeSync(ctx)
	adapter := market.NewBinanceAdapter(client)

	if cfg.EnablePriceStream && len(cfg.StreamSymbols) > 0 {
		stream := futures.NewKlineStream(cfg.BinanceTestnet, cfg.StreamSymbols, cfg.StreamInterval, func(tick futures.KlineTick) {
			if !tick.Closed {
				return
			}
			bus.Publish(events.EventPriceTick, events.PriceTick{
				Symbol: tick.Symbol,
				Close:  tick.Close,
				At:     time.UnixMilli(tick.OpenTime),
			})
		})
		go stream.Run(ctx)
		log.Printf("price stream enabled for %v @ %s", cfg.StreamSymbols, cfg.StreamInterval)
	}

	tradeLedger := ledger.NewSQLLedger(database)
	store := bot.NewSQLConfigStore(database)
	registry := bot.NewRegistry(store, tradeLedger, bus)

	// Bring back every persisted bot for the configured owners. When no
	// owners are configured, restore everything the store knows about.
	owners := cfg.RestoreOwners
	if len(owners) == 0 {
		owners, err = database.ListOwners(ctx)
		if err != nil {
			log.Fatalf("list owners failed: %v", err)
		}
	}
	for _, owner := range owners {
		if err := registry.RestoreAll(ctx, owner, adapter); err != nil {
			log.Printf("restore owner %s failed: %v", owner, err)
		}
	}
	log.Printf("restore complete, %d bots live", registry.LiveCount())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
	cancel()
	registry.StopAll()
	log.Println("shutdown complete")
}
