package common

import (
	"context"
	"testing"
	"time"
)

func TestPacerWaitSmallWeight(t *testing.T) {
	p := NewPacer(2400)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := p.Wait(ctx, 5); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	// Zero and negative weights are clamped to one token.
	if err := p.Wait(ctx, 0); err != nil {
		t.Fatalf("wait with zero weight failed: %v", err)
	}
}

func TestPacerObserveHeader(t *testing.T) {
	p := NewPacer(2400)

	p.ObserveHeader("1200")
	used, limit, pct := p.Usage()
	if used != 1200 || limit != 2400 {
		t.Errorf("usage = %d/%d, want 1200/2400", used, limit)
	}
	if pct != 50 {
		t.Errorf("percentage = %v, want 50", pct)
	}

	// Garbage and empty headers are ignored.
	p.ObserveHeader("not-a-number")
	p.ObserveHeader("")
	used, _, _ = p.Usage()
	if used != 1200 {
		t.Errorf("usage changed on bad header: %d", used)
	}
}

func TestPacerUsageExpires(t *testing.T) {
	p := NewPacer(2400)
	p.ObserveHeader("600")
	p.mu.Lock()
	p.lastSeen = time.Now().Add(-2 * time.Minute)
	p.mu.Unlock()

	used, _, pct := p.Usage()
	if used != 0 || pct != 0 {
		t.Errorf("stale usage should read zero, got %d (%.1f%%)", used, pct)
	}
}
