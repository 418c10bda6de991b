package risk

import (
	"errors"
	"testing"

	"stock-analyzerv1/internal/model"
)

func TestLevelsAt_Ordering(t *testing.T) {
	p := DefaultParams()
	l := p.LevelsAt(100, 2.5)
	if !l.Defined() {
		t.Fatal("expected defined levels for positive ATR")
	}
	if !(l.StopLoss < 100 && 100 < l.TakeProfit) {
		t.Errorf("expected stop < close < target, got %.2f / %.2f", l.StopLoss, l.TakeProfit)
	}
	if l.StopLoss != 95 || l.TakeProfit != 110 {
		t.Errorf("expected 95/110 with default multipliers, got %.2f/%.2f", l.StopLoss, l.TakeProfit)
	}
}

func TestLevelsAt_MissingATR(t *testing.T) {
	p := DefaultParams()
	for _, atr := range []float64{0, -1, model.Missing()} {
		if l := p.LevelsAt(100, atr); l.Defined() {
			t.Errorf("atr=%.2f: expected missing levels", atr)
		}
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params must validate: %v", err)
	}
	bad := Params{SLMult: -2, TPMult: 4}
	if err := bad.Validate(); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestPositionSize(t *testing.T) {
	// Risking 1% of 100k with a 5-point stop: 1000/5 = 200 shares.
	shares, err := PositionSize(100000, 0.01, 100, 95)
	if err != nil {
		t.Fatalf("PositionSize: %v", err)
	}
	if shares != 200 {
		t.Errorf("expected 200 shares, got %d", shares)
	}
}

func TestPositionSize_InvalidStops(t *testing.T) {
	cases := []struct {
		name            string
		close, stopLoss float64
	}{
		{"stop above close", 100, 105},
		{"stop equals close", 100, 100},
		{"missing stop", 100, model.Missing()},
		{"missing close", model.Missing(), 95},
	}
	for _, tc := range cases {
		if _, err := PositionSize(100000, 0.01, tc.close, tc.stopLoss); !errors.Is(err, model.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}

	if _, err := PositionSize(0, 0.01, 100, 95); !errors.Is(err, model.ErrInvalidConfig) {
		t.Errorf("zero capital: expected ErrInvalidConfig, got %v", err)
	}
}
