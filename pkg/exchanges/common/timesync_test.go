package common

import (
	"errors"
	"testing"
	"time"
)

func TestTimeSyncOffset(t *testing.T) {
	// Server reads one minute ahead of local.
	ts := NewTimeSync(func() (int64, error) {
		return time.Now().Add(time.Minute).UnixMilli(), nil
	})
	if err := ts.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	offset := ts.Offset()
	if offset < 59_000 || offset > 61_000 {
		t.Errorf("offset = %dms, want about 60000ms", offset)
	}

	adjusted := ts.Now() - time.Now().UnixMilli()
	if adjusted < 59_000 || adjusted > 61_000 {
		t.Errorf("Now() adjustment = %dms, want about 60000ms", adjusted)
	}
}

func TestTimeSyncPropagatesError(t *testing.T) {
	wantErr := errors.New("unreachable")
	ts := NewTimeSync(func() (int64, error) { return 0, wantErr })

	if err := ts.Sync(); !errors.Is(err, wantErr) {
		t.Errorf("expected source error, got %v", err)
	}
	if ts.Offset() != 0 {
		t.Errorf("failed sync must not move the offset, got %d", ts.Offset())
	}
}
