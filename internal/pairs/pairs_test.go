package pairs

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"stock-analyzerv1/internal/model"
)

// randomWalk generates n daily bars whose closes follow a seeded unit-step
// random walk starting at 100.
func randomWalk(seed int64, n int) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]model.Bar, n)
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		price += rng.NormFloat64()
		bars[i] = model.Bar{Date: d, Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000}
		d = d.AddDate(0, 0, 1)
	}
	return bars
}

// cointegratedWith derives a series that tracks base as 0.5 + 2*base plus
// seeded stationary noise, sharing base's dates.
func cointegratedWith(base []model.Bar, seed int64) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.Bar, len(base))
	for i, b := range base {
		c := 0.5 + 2*b.Close + rng.NormFloat64()*0.5
		out[i] = model.Bar{Date: b.Date, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return out
}

func closes(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func TestEngleGranger_CointegratedPair(t *testing.T) {
	base := randomWalk(1, 300)
	tracking := cointegratedWith(base, 2)

	res, err := EngleGranger(closes(tracking), closes(base))
	if err != nil {
		t.Fatalf("EngleGranger: %v", err)
	}
	if res.PValue >= 0.05 {
		t.Errorf("expected a constructed cointegrated pair to test significant, p=%.4f", res.PValue)
	}
	if math.Abs(res.Beta-2) > 0.2 {
		t.Errorf("expected hedge ratio near 2, got %.3f", res.Beta)
	}
}

func TestEngleGranger_IndependentWalksMostlyInsignificant(t *testing.T) {
	// Any single seed can produce a spurious 5%-level hit, so test many
	// independent pairs and require a clear majority above the threshold.
	const pairs = 20
	insignificant := 0
	for s := int64(0); s < pairs; s++ {
		a := closes(randomWalk(100+s, 300))
		b := closes(randomWalk(500+s, 300))
		res, err := EngleGranger(a, b)
		if err != nil {
			t.Fatalf("seed %d: %v", s, err)
		}
		if res.PValue >= 0.05 {
			insignificant++
		}
	}
	if insignificant < 15 {
		t.Errorf("expected most independent random-walk pairs to be insignificant, got %d of %d", insignificant, pairs)
	}
}

func TestEngleGranger_TooShort(t *testing.T) {
	short := make([]float64, 10)
	if _, err := EngleGranger(short, short); !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMackinnonP_CriticalValues(t *testing.T) {
	if p := mackinnonP(-3.34); math.Abs(p-0.05) > 0.005 {
		t.Errorf("tau=-3.34 should map near p=0.05, got %.4f", p)
	}
	if p := mackinnonP(-3.90); math.Abs(p-0.01) > 0.003 {
		t.Errorf("tau=-3.90 should map near p=0.01, got %.4f", p)
	}
	if !(mackinnonP(-5) < mackinnonP(-3) && mackinnonP(-3) < mackinnonP(-1)) {
		t.Error("p-value must increase with tau")
	}
}

func TestFindCointegratedPairs(t *testing.T) {
	base := randomWalk(7, 300)
	universe := map[string][]model.Bar{
		"AAA": base,
		"BBB": cointegratedWith(base, 8),
		"CCC": randomWalk(9, 300),
	}

	results, err := FindCointegratedPairs(universe, DefaultOptions())
	if err != nil {
		t.Fatalf("FindCointegratedPairs: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected the constructed pair to be found")
	}
	// The constructed pair's p-value is far below any spurious hit, so it
	// must rank first.
	best := results[0]
	if best.TickerA != "AAA" || best.TickerB != "BBB" {
		t.Errorf("expected AAA/BBB first, got %s/%s (p=%.4f)", best.TickerA, best.TickerB, best.PValue)
	}
	if best.Bars != 300 {
		t.Errorf("expected 300 overlapping observations, got %d", best.Bars)
	}
}

func TestFindCointegratedPairs_ShortOverlapSkipped(t *testing.T) {
	base := randomWalk(11, 100)
	universe := map[string][]model.Bar{
		"AAA": base,
		"BBB": cointegratedWith(base, 12), // perfectly related, but only 100 shared dates
	}
	results, err := FindCointegratedPairs(universe, DefaultOptions())
	if err != nil {
		t.Fatalf("FindCointegratedPairs: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("short overlaps must be skipped, not scored: got %d results", len(results))
	}
}

func TestFindCointegratedPairs_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.PValueThreshold = 1.5
	if _, err := FindCointegratedPairs(nil, opts); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSpread_ConstantRatio(t *testing.T) {
	base := randomWalk(21, 60)
	scaled := make([]model.Bar, len(base))
	for i, b := range base {
		scaled[i] = b
		scaled[i].Close = b.Close * 2
	}

	s, err := Spread("AAA", scaled, "BBB", base, DefaultSpreadWindow)
	if err != nil {
		t.Fatalf("Spread: %v", err)
	}
	if s.Len() != 60 {
		t.Fatalf("expected 60 shared dates, got %d", s.Len())
	}
	for i := 0; i < DefaultSpreadWindow-1; i++ {
		if !model.IsMissing(s.Mean[i]) || !model.IsMissing(s.ZScore[i]) {
			t.Errorf("bar %d: expected missing spread statistics during warm-up", i)
		}
	}
	last := s.Len() - 1
	if math.Abs(s.Ratio[last]-2) > 1e-12 {
		t.Errorf("expected constant ratio 2, got %.6f", s.Ratio[last])
	}
	if math.Abs(s.Mean[last]-2) > 1e-9 {
		t.Errorf("expected rolling mean 2, got %.6f", s.Mean[last])
	}
	// A constant ratio has zero dispersion: the Z-score is not computable.
	if !model.IsMissing(s.ZScore[last]) {
		t.Errorf("expected missing z-score on zero std, got %.4f", s.ZScore[last])
	}
}

func TestSpread_ZScoreSign(t *testing.T) {
	// Flat ratio with a spike at the final bar: Z must be large positive.
	n := 40
	barsA := make([]model.Bar, n)
	barsB := make([]model.Bar, n)
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		r := 1.0 + 0.001*float64(i%3) // mild noise keeps std nonzero
		if i == n-1 {
			r = 1.5
		}
		barsA[i] = model.Bar{Date: d, Close: 100 * r, Volume: 1}
		barsB[i] = model.Bar{Date: d, Close: 100, Volume: 1}
		d = d.AddDate(0, 0, 1)
	}

	s, err := Spread("AAA", barsA, "BBB", barsB, DefaultSpreadWindow)
	if err != nil {
		t.Fatalf("Spread: %v", err)
	}
	if z := s.ZScore[n-1]; model.IsMissing(z) || z < 2 {
		t.Errorf("expected a strong positive z-score at the spike, got %.4f", z)
	}
}

func TestSpread_RecoversAfterBadDenominator(t *testing.T) {
	// One zero close early in the pair must not blank the statistics for
	// the rest of the series.
	n := 80
	barsA := make([]model.Bar, n)
	barsB := make([]model.Bar, n)
	d := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		barsA[i] = model.Bar{Date: d, Close: 100 + 0.1*float64(i%5), Volume: 1}
		barsB[i] = model.Bar{Date: d, Close: 50, Volume: 1}
		d = d.AddDate(0, 0, 1)
	}
	barsB[5].Close = 0

	s, err := Spread("AAA", barsA, "BBB", barsB, DefaultSpreadWindow)
	if err != nil {
		t.Fatalf("Spread: %v", err)
	}
	if !model.IsMissing(s.Ratio[5]) {
		t.Fatalf("expected missing ratio on the zero close, got %.4f", s.Ratio[5])
	}
	for i := 5; i < 5+DefaultSpreadWindow; i++ {
		if !model.IsMissing(s.Mean[i]) {
			t.Errorf("bar %d: window holds the bad ratio, expected missing mean", i)
		}
	}
	for _, i := range []int{5 + DefaultSpreadWindow, 60, n - 1} {
		if model.IsMissing(s.Mean[i]) {
			t.Errorf("bar %d: rolling mean still missing after the bad ratio left the window", i)
		}
		if model.IsMissing(s.ZScore[i]) {
			t.Errorf("bar %d: z-score still missing after the bad ratio left the window", i)
		}
	}
}

func TestSpread_NoSharedDates(t *testing.T) {
	a := randomWalk(31, 40)
	b := randomWalk(32, 40)
	for i := range b {
		b[i].Date = b[i].Date.AddDate(2, 0, 0)
	}
	if _, err := Spread("AAA", a, "BBB", b, DefaultSpreadWindow); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("expected ErrNoData on disjoint calendars, got %v", err)
	}
}

func TestSpread_ShortOverlap(t *testing.T) {
	a := randomWalk(41, 10)
	b := randomWalk(42, 10)
	if _, err := Spread("AAA", a, "BBB", b, DefaultSpreadWindow); !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData below the spread window, got %v", err)
	}
}
