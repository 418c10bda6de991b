package relstrength

import (
	"math"
	"testing"
	"time"

	"stock-analyzerv1/internal/model"
)

func TestBenchmarkFor(t *testing.T) {
	cases := []struct {
		ticker, want string
	}{
		{"VOLV-B.ST", BenchmarkStockholm},
		{"NOVO-B.CO", BenchmarkCopenhagen},
		{"NOKIA.HE", BenchmarkHelsinki},
		{"AAPL", BenchmarkUS},
		{"MSFT", BenchmarkUS},
	}
	for _, tc := range cases {
		if got := BenchmarkFor(tc.ticker); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.ticker, tc.want, got)
		}
	}
}

func TestCompute_Outperformance(t *testing.T) {
	// Stock +10% over 20 bars, index +2%.
	stock := make([]float64, 21)
	bench := make([]float64, 21)
	for i := 0; i <= 20; i++ {
		stock[i] = 100 * (1 + 0.10*float64(i)/20)
		bench[i] = 100 * (1 + 0.02*float64(i)/20)
	}
	r := Compute(stock, bench, 20)
	if !r.OK {
		t.Fatal("expected OK result")
	}
	if !r.Outperforming {
		t.Error("expected outperformance")
	}
	if math.Abs(r.Value-0.08) > 1e-9 {
		t.Errorf("expected relative strength 0.08, got %.4f", r.Value)
	}
}

func TestCompute_SoftFailOnShortBenchmark(t *testing.T) {
	stock := make([]float64, 30)
	for i := range stock {
		stock[i] = 100 + float64(i)
	}
	r := Compute(stock, []float64{100, 101}, 20)
	if r.OK {
		t.Fatal("expected soft failure for undersized benchmark")
	}
	if r.Outperforming {
		t.Error("soft failure must not claim outperformance")
	}
	if !model.IsMissing(r.Value) {
		t.Errorf("expected missing value, got %.4f", r.Value)
	}
}

func TestColumn_AlignsByDate(t *testing.T) {
	day := func(n int) time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}
	n := 25
	stock := make([]model.Bar, n)
	bench := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		stock[i] = model.Bar{Date: day(i), Close: 100 + float64(i)}
		bench[i] = model.Bar{Date: day(i), Close: 100}
	}

	col := Column(stock, bench, 20)
	for i := 0; i < 20; i++ {
		if !model.IsMissing(col[i]) {
			t.Errorf("position %d: expected warm-up missing", i)
		}
	}
	// Flat benchmark: relative strength equals the stock's own return.
	want := stock[24].Close/stock[4].Close - 1
	if math.Abs(col[24]-want) > 1e-9 {
		t.Errorf("expected %.4f at last bar, got %.4f", want, col[24])
	}
}

func TestColumn_MissingBenchmarkDates(t *testing.T) {
	day := func(n int) time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}
	stock := make([]model.Bar, 25)
	for i := range stock {
		stock[i] = model.Bar{Date: day(i), Close: 100 + float64(i)}
	}
	// Benchmark trades on entirely different dates.
	bench := []model.Bar{{Date: day(100), Close: 50}}

	col := Column(stock, bench, 20)
	for i, v := range col {
		if !model.IsMissing(v) {
			t.Errorf("position %d: expected missing with unaligned benchmark, got %.4f", i, v)
		}
	}
}
