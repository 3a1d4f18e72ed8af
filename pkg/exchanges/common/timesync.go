package common

import (
	"context"
	"log"
	"sync"
	"time"
)

// TimeSync tracks the offset between local time and an exchange server's
// clock so signed request timestamps stay inside the recv window.
type TimeSync struct {
	getServerTime func() (int64, error)
	syncInterval  time.Duration

	mu     sync.RWMutex
	offset int64 // milliseconds, server minus local
}

// NewTimeSync creates a time synchronization manager around a server
// time source.
func NewTimeSync(getServerTime func() (int64, error)) *TimeSync {
	return &TimeSync{
		getServerTime: getServerTime,
		syncInterval:  30 * time.Minute,
	}
}

// Start performs an initial sync and keeps re-syncing periodically until
// ctx is cancelled.
func (ts *TimeSync) Start(ctx context.Context) {
	if err := ts.Sync(); err != nil {
		log.Printf("initial time sync failed: %v", err)
	}

	go func() {
		ticker := time.NewTicker(ts.syncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ts.Sync(); err != nil {
					log.Printf("time sync failed: %v", err)
				}
			}
		}
	}()
}

// Sync measures the server offset once, assuming symmetric latency.
func (ts *TimeSync) Sync() error {
	localBefore := time.Now().UnixMilli()
	serverTime, err := ts.getServerTime()
	if err != nil {
		return err
	}
	localAfter := time.Now().UnixMilli()

	latency := (localAfter - localBefore) / 2
	ts.mu.Lock()
	ts.offset = serverTime - (localBefore + latency)
	ts.mu.Unlock()
	return nil
}

// Now returns the current time in milliseconds adjusted for the server
// offset.
func (ts *TimeSync) Now() int64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return time.Now().UnixMilli() + ts.offset
}

// Offset returns the current offset in milliseconds.
func (ts *TimeSync) Offset() int64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.offset
}
