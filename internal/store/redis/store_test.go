package redis

import "testing"

func TestBarsKey_DistinguishesLookback(t *testing.T) {
	short := barsKey("AAPL", 90)
	long := barsKey("AAPL", 365)
	if short == long {
		t.Fatalf("cache key must include the history length, got %q for both", short)
	}
	if got, want := long, "bars:AAPL:365"; got != want {
		t.Errorf("barsKey = %q, want %q", got, want)
	}
}
