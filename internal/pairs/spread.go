package pairs

import (
	"encoding/json"
	"fmt"
	"time"

	"stock-analyzerv1/internal/indicator"
	"stock-analyzerv1/internal/model"
)

// SpreadSeries is the standardized ratio spread between two securities,
// restricted to their shared trading dates. All columns are positionally
// aligned; warm-up positions hold the missing marker.
type SpreadSeries struct {
	TickerA string      `json:"ticker_a"`
	TickerB string      `json:"ticker_b"`
	Dates   []time.Time `json:"dates"`
	Ratio   []float64   `json:"ratio"`
	Mean    []float64   `json:"mean"`
	Std     []float64   `json:"std"`
	ZScore  []float64   `json:"z_score"`
}

// Len returns the number of shared trading dates.
func (s *SpreadSeries) Len() int { return len(s.Dates) }

// MarshalJSON encodes missing markers as null.
func (s *SpreadSeries) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TickerA string      `json:"ticker_a"`
		TickerB string      `json:"ticker_b"`
		Dates   []time.Time `json:"dates"`
		Ratio   []*float64  `json:"ratio"`
		Mean    []*float64  `json:"mean"`
		Std     []*float64  `json:"std"`
		ZScore  []*float64  `json:"z_score"`
	}{
		TickerA: s.TickerA,
		TickerB: s.TickerB,
		Dates:   s.Dates,
		Ratio:   model.NullableFloats(s.Ratio),
		Mean:    model.NullableFloats(s.Mean),
		Std:     model.NullableFloats(s.Std),
		ZScore:  model.NullableFloats(s.ZScore),
	})
}

// Spread computes the ratio closeA/closeB over the pair's shared trading
// dates, its rolling mean and sample standard deviation, and the per-bar
// Z-score. The trading rule (|Z| > 2) is applied by consumers, not here.
func Spread(tickerA string, barsA []model.Bar, tickerB string, barsB []model.Bar, window int) (*SpreadSeries, error) {
	dates, closeA, closeB := alignByDate(barsA, barsB)
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: %s/%s share no trading dates", model.ErrNoData, tickerA, tickerB)
	}
	if len(dates) < window {
		return nil, fmt.Errorf("%w: %s/%s share %d dates, spread window needs %d",
			model.ErrInsufficientData, tickerA, tickerB, len(dates), window)
	}

	ratio := make([]float64, len(dates))
	for i := range dates {
		if closeB[i] == 0 {
			ratio[i] = model.Missing()
			continue
		}
		ratio[i] = closeA[i] / closeB[i]
	}

	mean, err := indicator.SMA(ratio, window)
	if err != nil {
		return nil, err
	}
	std, err := indicator.RollingStd(ratio, window)
	if err != nil {
		return nil, err
	}

	z := make([]float64, len(dates))
	for i := range z {
		if model.IsMissing(mean[i]) || model.IsMissing(std[i]) || std[i] == 0 {
			z[i] = model.Missing()
			continue
		}
		z[i] = (ratio[i] - mean[i]) / std[i]
	}

	return &SpreadSeries{
		TickerA: tickerA,
		TickerB: tickerB,
		Dates:   dates,
		Ratio:   ratio,
		Mean:    mean,
		Std:     std,
		ZScore:  z,
	}, nil
}
