package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-analyzerv1/internal/model"
)

type fakeSource struct {
	name  string
	bars  []model.Bar
	err   error
	delay time.Duration
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) DailyBars(ctx context.Context, ticker string, lookbackDays int) ([]model.Bar, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.bars, f.err
}

func someBars(n int) []model.Bar {
	bars := make([]model.Bar, n)
	d := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.Bar{Date: d.AddDate(0, 0, i), Close: 100, Volume: 1}
	}
	return bars
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	primary := &fakeSource{name: "primary", bars: someBars(5)}
	backup := &fakeSource{name: "backup", bars: someBars(9)}
	chain := NewChain(0, primary, backup)

	bars, err := chain.DailyBars(context.Background(), "AAPL", 365)
	if err != nil {
		t.Fatalf("DailyBars: %v", err)
	}
	if len(bars) != 5 {
		t.Errorf("expected the primary's bars, got %d", len(bars))
	}
	if backup.calls != 0 {
		t.Error("backup must not be consulted when the primary succeeds")
	}
}

func TestChain_FallsThroughFailuresAndEmpties(t *testing.T) {
	failing := &fakeSource{name: "failing", err: errors.New("boom")}
	empty := &fakeSource{name: "empty"}
	backup := &fakeSource{name: "backup", bars: someBars(3)}
	chain := NewChain(0, failing, empty, backup)

	bars, err := chain.DailyBars(context.Background(), "AAPL", 365)
	if err != nil {
		t.Fatalf("DailyBars: %v", err)
	}
	if len(bars) != 3 {
		t.Errorf("expected the backup's bars, got %d", len(bars))
	}
	if failing.calls != 1 || empty.calls != 1 {
		t.Error("every earlier source must be tried once")
	}
}

func TestChain_AllExhaustedIsNoData(t *testing.T) {
	chain := NewChain(0, &fakeSource{name: "a", err: errors.New("down")}, &fakeSource{name: "b"})
	if _, err := chain.DailyBars(context.Background(), "AAPL", 365); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("expected ErrNoData when every source fails, got %v", err)
	}
}

func TestChain_PerSourceTimeout(t *testing.T) {
	slow := &fakeSource{name: "slow", bars: someBars(5), delay: 200 * time.Millisecond}
	fast := &fakeSource{name: "fast", bars: someBars(2)}
	chain := NewChain(20*time.Millisecond, slow, fast)

	bars, err := chain.DailyBars(context.Background(), "AAPL", 365)
	if err != nil {
		t.Fatalf("DailyBars: %v", err)
	}
	if len(bars) != 2 {
		t.Errorf("expected the slow source to time out and the fast one to serve, got %d bars", len(bars))
	}
}
