package common

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spreads request weight below an exchange's per-minute budget and
// mirrors the exchange's own used-weight accounting from response
// headers. Workers share one pacer per credential set, so the pacing is
// global across bots.
type Pacer struct {
	limiter *rate.Limiter
	limit   int

	mu         sync.RWMutex
	usedWeight int
	lastSeen   time.Time
}

// NewPacer creates a pacer for the given weight-per-minute budget. The
// token bucket refills at 75% of the budget to leave headroom for other
// consumers of the same credentials.
func NewPacer(weightPerMinute int) *Pacer {
	perSecond := rate.Limit(float64(weightPerMinute) * 0.75 / 60.0)
	burst := weightPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Pacer{
		limiter: rate.NewLimiter(perSecond, burst),
		limit:   weightPerMinute,
	}
}

// Wait blocks until the given request weight may be spent or ctx ends.
func (p *Pacer) Wait(ctx context.Context, weight int) error {
	if weight < 1 {
		weight = 1
	}
	return p.limiter.WaitN(ctx, weight)
}

// ObserveHeader records the used weight reported by the exchange and
// warns when the budget is nearly exhausted.
func (p *Pacer) ObserveHeader(headerValue string) {
	if headerValue == "" {
		return
	}
	weight, err := strconv.Atoi(headerValue)
	if err != nil {
		return
	}

	p.mu.Lock()
	p.usedWeight = weight
	p.lastSeen = time.Now()
	p.mu.Unlock()

	pct := float64(weight) / float64(p.limit) * 100
	if pct >= 95 {
		log.Printf("rate limit critical: %d/%d (%.1f%%) - approaching ban threshold", weight, p.limit, pct)
	} else if pct >= 80 {
		log.Printf("rate limit warning: %d/%d (%.1f%%)", weight, p.limit, pct)
	}
}

// Usage returns the last exchange-reported usage.
func (p *Pacer) Usage() (used, limit int, percentage float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if time.Since(p.lastSeen) >= time.Minute {
		return 0, p.limit, 0
	}
	return p.usedWeight, p.limit, float64(p.usedWeight) / float64(p.limit) * 100
}
