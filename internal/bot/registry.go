// Package bot contains the per-bot decision loop (Worker) and the
// Registry that owns the set of live workers and the persisted
// configuration store.
package bot

import (
	"context"
	"errors"
	"log"
	"sync"

	"botcore/internal/events"
	"botcore/internal/ledger"
	"botcore/internal/market"
	"botcore/internal/strategy"
	"botcore/pkg/db"
)

// Registry starts, stops, lists and restores bot workers. It is the only
// component that mutates the config store; all mutations are serialized.
type Registry struct {
	mu      sync.Mutex
	workers map[string]*Worker

	store  ConfigStore
	ledger ledger.Ledger
	bus    *events.Bus
}

// NewRegistry creates an empty registry over the given store and ledger.
func NewRegistry(store ConfigStore, l ledger.Ledger, bus *events.Bus) *Registry {
	return &Registry{
		workers: make(map[string]*Worker),
		store:   store,
		ledger:  l,
		bus:     bus,
	}
}

// Start validates, spawns and persists a new bot. It returns false with
// no side effect when the (owner, bot) key is already taken or the
// strategy name is unknown. The worker is running before the config is
// committed; if persisting fails the worker is stopped again, so a crash
// mid-start never leaves a config row pointing at nothing.
func (r *Registry) Start(ctx context.Context, ownerID, botID, symbol, strategyName string, settings Settings, adapter market.Adapter) bool {
	cfg := Config{
		OwnerID:  ownerID,
		BotID:    botID,
		Symbol:   symbol,
		Strategy: strategyName,
		Settings: settings.withDefaults(),
	}
	key := cfg.Key()

	strat, err := strategy.New(strategyName, strategy.Params(cfg.Settings.StrategyParams))
	if err != nil {
		log.Printf("registry: start %s rejected: %v", key, err)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, live := r.workers[key]; live {
		log.Printf("registry: start %s rejected: already running", key)
		return false
	}

	w := newWorker(cfg, strat, adapter, r.ledger, r.bus)
	go w.Run()

	if err := r.store.Save(ctx, cfg); err != nil {
		w.Stop()
		log.Printf("registry: start %s rejected: %v", key, err)
		return false
	}
	r.workers[key] = w

	r.publish(events.EventBotStarted, cfg)
	log.Printf("registry: bot %s started", key)
	return true
}

// Stop cancels the worker, waits for its loop to exit and removes the
// durable config. It returns false when the bot is unknown; a repeated
// call is a harmless false.
func (r *Registry) Stop(ctx context.Context, ownerID, botID string) bool {
	key := ownerID + "_" + botID

	r.mu.Lock()
	w, live := r.workers[key]
	if live {
		delete(r.workers, key)
	}
	r.mu.Unlock()

	// Join outside the lock; a slow in-flight tick must not block other
	// registry operations.
	if live {
		w.Stop()
		r.publish(events.EventBotStopped, w.cfg)
	}

	removed := false
	switch err := r.store.Delete(ctx, ownerID, botID); {
	case err == nil:
		removed = true
	case !errors.Is(err, db.ErrNotFound):
		log.Printf("registry: remove config %s failed: %v", key, err)
	}

	if live || removed {
		log.Printf("registry: bot %s stopped", key)
		return true
	}
	return false
}

// List returns a snapshot of the persisted configs for one owner, keyed
// by bot id.
func (r *Registry) List(ctx context.Context, ownerID string) (map[string]Config, error) {
	configs, err := r.store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Config, len(configs))
	for _, cfg := range configs {
		out[cfg.BotID] = cfg
	}
	return out, nil
}

// RestoreAll spawns a worker for every persisted config of the owner
// that is not already live. Called at process start; the durable store
// is the only source of truth across restarts.
func (r *Registry) RestoreAll(ctx context.Context, ownerID string, adapter market.Adapter) error {
	configs, err := r.store.List(ctx, ownerID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cfg := range configs {
		key := cfg.Key()
		if _, live := r.workers[key]; live {
			continue
		}

		strat, err := strategy.New(cfg.Strategy, strategy.Params(cfg.Settings.StrategyParams))
		if err != nil {
			log.Printf("registry: restore %s skipped: %v", key, err)
			continue
		}

		w := newWorker(cfg, strat, adapter, r.ledger, r.bus)
		go w.Run()
		r.workers[key] = w

		r.publish(events.EventBotStarted, cfg)
		log.Printf("registry: bot %s restored", key)
	}
	return nil
}

// StopAll cancels and joins every live worker without touching the
// durable store, so the bots come back on the next RestoreAll.
func (r *Registry) StopAll() {
	r.mu.Lock()
	workers := r.workers
	r.workers = make(map[string]*Worker)
	r.mu.Unlock()

	for key, w := range workers {
		w.Stop()
		r.publish(events.EventBotStopped, w.cfg)
		log.Printf("registry: bot %s stopped", key)
	}
}

// LiveCount reports how many workers are currently running.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

func (r *Registry) publish(e events.Event, cfg Config) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(e, events.BotEvent{
		OwnerID:  cfg.OwnerID,
		BotID:    cfg.BotID,
		Symbol:   cfg.Symbol,
		Strategy: cfg.Strategy,
	})
}
