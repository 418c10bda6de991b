package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"stock-analyzerv1/internal/model"
)

// frameFromCloses builds a bare frame with the given closes on consecutive
// days. Indicator columns are left nil; tests drive the loop with custom
// predicates or fill the columns they need.
func frameFromCloses(closes []float64) *model.IndicatorFrame {
	f := &model.IndicatorFrame{Ticker: "TEST"}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.Bars = make([]model.Bar, len(closes))
	for i, c := range closes {
		f.Bars[i] = model.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return f
}

func barsAt(entry, exit int) Rules {
	return Rules{
		Name:  "fixed",
		Entry: func(f *model.IndicatorFrame, i int) bool { return i == entry },
		Exit:  func(f *model.IndicatorFrame, i int) bool { return i == exit },
	}
}

func TestRun_SingleRoundTrip(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	closes[10] = 100
	closes[20] = 120

	engine, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stats, err := engine.Run(frameFromCloses(closes), barsAt(10, 20))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.NumTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", stats.NumTrades)
	}
	// (120/100 - 1) - 2*0.002 = 0.196
	wantReturn := 19.6
	if math.Abs(stats.Trades[0].ReturnPct-wantReturn) > 1e-9 {
		t.Errorf("expected trade return %.2f%%, got %.4f%%", wantReturn, stats.Trades[0].ReturnPct)
	}
	if math.Abs(stats.TotalReturnPct-wantReturn) > 1e-9 {
		t.Errorf("expected total return %.2f%%, got %.4f%%", wantReturn, stats.TotalReturnPct)
	}
	if stats.WinRatePct != 100 {
		t.Errorf("expected 100%% win rate, got %.1f%%", stats.WinRatePct)
	}
}

func TestRun_InsufficientHistory(t *testing.T) {
	engine, _ := New(DefaultConfig())
	_, err := engine.Run(frameFromCloses(make([]float64, 30)), barsAt(5, 10))
	if !errors.Is(err, model.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory for 30 bars, got %v", err)
	}
}

func TestRun_SinglePositionInvariant(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}

	openPositions := 0
	maxOpen := 0
	rules := Rules{
		Name: "counting",
		Entry: func(f *model.IndicatorFrame, i int) bool {
			// Signal entry on every bar; the engine must ignore all but
			// the first while a position is open.
			return true
		},
		Exit: func(f *model.IndicatorFrame, i int) bool { return i%10 == 9 },
	}

	engine, _ := New(DefaultConfig())
	stats, err := engine.Run(frameFromCloses(closes), rules)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Replay the trade list: entries and exits must strictly alternate.
	for _, tr := range stats.Trades {
		openPositions++
		if openPositions > maxOpen {
			maxOpen = openPositions
		}
		if !tr.ExitDate.After(tr.EntryDate) {
			t.Errorf("trade exit %v not after entry %v", tr.ExitDate, tr.EntryDate)
		}
		openPositions--
	}
	if maxOpen > 1 {
		t.Errorf("single-position invariant violated: %d concurrent positions", maxOpen)
	}
	for i := 1; i < len(stats.Trades); i++ {
		if stats.Trades[i].EntryDate.Before(stats.Trades[i-1].ExitDate) {
			t.Errorf("trade %d entered before trade %d exited", i, i-1)
		}
	}
}

func TestRun_OpenPositionClosedAtFinalBar(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	closes[59] = 110

	rules := Rules{
		Name:  "never-exit",
		Entry: func(f *model.IndicatorFrame, i int) bool { return i == 40 },
		Exit:  func(f *model.IndicatorFrame, i int) bool { return false },
	}
	engine, _ := New(DefaultConfig())
	stats, err := engine.Run(frameFromCloses(closes), rules)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.NumTrades != 1 {
		t.Fatalf("expected the open position to be closed at the final bar, trades=%d", stats.NumTrades)
	}
	if !stats.Trades[0].ExitDate.Equal(frameFromCloses(closes).Bars[59].Date) {
		t.Errorf("expected exit on the final bar")
	}
}

func TestRun_ZeroTradesIsValid(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	rules := Rules{
		Name:  "inactive",
		Entry: func(f *model.IndicatorFrame, i int) bool { return false },
		Exit:  func(f *model.IndicatorFrame, i int) bool { return false },
	}
	engine, _ := New(DefaultConfig())
	stats, err := engine.Run(frameFromCloses(closes), rules)
	if err != nil {
		t.Fatalf("zero trades must not be an error: %v", err)
	}
	if stats.NumTrades != 0 || stats.TotalReturnPct != 0 {
		t.Errorf("expected flat stats, got trades=%d return=%.2f", stats.NumTrades, stats.TotalReturnPct)
	}
}

func TestRun_MaxDrawdown(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	// Long from bar 10; price peaks at 120 (bar 20), troughs at 90
	// (bar 30), exits at bar 40.
	for i := 11; i <= 20; i++ {
		closes[i] = 100 + 2*float64(i-10)
	}
	for i := 21; i <= 30; i++ {
		closes[i] = 120 - 3*float64(i-20)
	}
	for i := 31; i < len(closes); i++ {
		closes[i] = 90
	}

	engine, _ := New(Config{Commission: 0, MinHistory: 50})
	stats, err := engine.Run(frameFromCloses(closes), barsAt(10, 40))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Peak equity 1.2, trough 0.9: drawdown 25%.
	if math.Abs(stats.MaxDrawdownPct-25.0) > 1e-9 {
		t.Errorf("expected 25%% max drawdown, got %.4f%%", stats.MaxDrawdownPct)
	}
}

func TestScoreRules_DerivedThresholds(t *testing.T) {
	f := frameFromCloses(make([]float64, 60))
	f.MaxScore = 7
	f.Score = make([]int, 60)
	f.Score[10] = 5 // ceil(0.7*7) = 5 → entry
	f.Score[20] = 3 // floor(0.45*7) = 3 → exit

	rules := ScoreRules(0, 0)
	if !rules.Entry(f, 10) {
		t.Error("score 5 of 7 must trigger entry")
	}
	if rules.Entry(f, 11) {
		t.Error("score 0 must not trigger entry")
	}
	if !rules.Exit(f, 20) {
		t.Error("score 3 of 7 must trigger exit")
	}
}

func TestScoreRules_NoScoreColumnNeverSignals(t *testing.T) {
	f := frameFromCloses(make([]float64, 60))
	rules := ScoreRules(5, 3)
	if rules.Entry(f, 0) || rules.Exit(f, 0) {
		t.Error("frames without a score column must never signal")
	}
}

func TestMeanReversionRules(t *testing.T) {
	f := frameFromCloses([]float64{95, 100, 101})
	miss := func(n int) []float64 {
		s := make([]float64, n)
		for i := range s {
			s[i] = model.Missing()
		}
		return s
	}
	f.BBLower, f.BBMiddle, f.RSI = miss(3), miss(3), miss(3)

	// Bar 0: touch of the lower band, oversold.
	f.BBLower[0], f.RSI[0] = 96, 30
	// Bar 2: recovered above middle, RSI above ceiling.
	f.BBMiddle[2], f.RSI[2] = 100, 60

	rules := MeanReversionRules()
	if !rules.Entry(f, 0) {
		t.Error("expected entry at lower band with RSI<35")
	}
	if rules.Entry(f, 1) {
		t.Error("missing bands must not signal entry")
	}
	if !rules.Exit(f, 2) {
		t.Error("expected exit above middle band with RSI>55")
	}
}
