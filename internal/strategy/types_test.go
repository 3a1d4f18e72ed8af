package strategy

import (
	"errors"
	"sort"
	"testing"
)

func TestNewKnownStrategies(t *testing.T) {
	for _, name := range []string{"adaptive_trend", "rsi_macd", "supertrend_confirm"} {
		t.Run(name, func(t *testing.T) {
			s, err := New(name, nil)
			if err != nil {
				t.Fatalf("New(%q) failed: %v", name, err)
			}
			if s.Name() != name {
				t.Errorf("Name() = %q, want %q", s.Name(), name)
			}
		})
	}
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("does_not_exist", nil)
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestExists(t *testing.T) {
	if !Exists("adaptive_trend") {
		t.Error("adaptive_trend should exist")
	}
	if Exists("nope") {
		t.Error("nope should not exist")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != len(registry) {
		t.Fatalf("expected %d names, got %d", len(registry), len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
}

func TestParamsGet(t *testing.T) {
	p := Params{"length": 30}
	if got := p.Get("length", 21); got != 30 {
		t.Errorf("Get(length) = %v, want 30", got)
	}
	if got := p.Get("missing", 21); got != 21 {
		t.Errorf("Get(missing) = %v, want default 21", got)
	}
	var nilParams Params
	if got := nilParams.Get("any", 5); got != 5 {
		t.Errorf("nil Params should return default, got %v", got)
	}
}
