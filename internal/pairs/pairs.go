// Package pairs scans a ticker universe for cointegrated price pairs and
// computes standardized ratio spreads for mean-reversion trading between
// two securities.
//
// Cointegration is tested with the Engle-Granger two-step method: an OLS
// regression of one close series on the other, then an augmented
// Dickey-Fuller test on the residuals with an approximate MacKinnon
// p-value. Pairs with too little overlapping history are skipped, not
// scored as non-cointegrated.
package pairs

import (
	"fmt"
	"sort"
	"time"

	"stock-analyzerv1/internal/model"
)

// DefaultMinOverlap is roughly one year of trading days: below this the
// cointegration test has no power worth reporting.
const DefaultMinOverlap = 252

// DefaultPValueThreshold is the significance cutoff for keeping a pair.
const DefaultPValueThreshold = 0.05

// DefaultSpreadWindow is the rolling window for the spread's mean and
// standard deviation, in bars.
const DefaultSpreadWindow = 20

// Options controls a pair scan.
type Options struct {
	MinOverlap      int     `yaml:"min_overlap"`
	PValueThreshold float64 `yaml:"p_value_threshold"`
	SpreadWindow    int     `yaml:"spread_window"`
}

// DefaultOptions returns the standard scan parameters.
func DefaultOptions() Options {
	return Options{
		MinOverlap:      DefaultMinOverlap,
		PValueThreshold: DefaultPValueThreshold,
		SpreadWindow:    DefaultSpreadWindow,
	}
}

// Validate rejects nonsensical scan parameters.
func (o Options) Validate() error {
	if o.MinOverlap < 30 {
		return fmt.Errorf("%w: min_overlap %d too small for a cointegration test", model.ErrInvalidConfig, o.MinOverlap)
	}
	if o.PValueThreshold <= 0 || o.PValueThreshold >= 1 {
		return fmt.Errorf("%w: p_value_threshold %.3f out of (0,1)", model.ErrInvalidConfig, o.PValueThreshold)
	}
	if o.SpreadWindow < 2 {
		return fmt.Errorf("%w: spread_window must be at least 2", model.ErrInvalidConfig)
	}
	return nil
}

// CointegrationResult reports one tested pair that passed the threshold.
type CointegrationResult struct {
	TickerA string  `json:"ticker_a"`
	TickerB string  `json:"ticker_b"`
	PValue  float64 `json:"p_value"`
	TStat   float64 `json:"t_stat"` // ADF statistic on the residuals
	Beta    float64 `json:"beta"`   // hedge ratio from the OLS step
	Bars    int     `json:"bars"`   // overlapping observations tested
}

// FindCointegratedPairs tests every unordered ticker pair whose histories
// share at least MinOverlap trading dates and returns those whose
// Engle-Granger p-value is below the threshold, best first.
//
// Pairs with insufficient overlap are skipped. A failed test on one pair
// never aborts the scan.
func FindCointegratedPairs(seriesByTicker map[string][]model.Bar, opts Options) ([]CointegrationResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(seriesByTicker))
	for t := range seriesByTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var results []CointegrationResult
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			a, b := tickers[i], tickers[j]
			_, closeA, closeB := alignByDate(seriesByTicker[a], seriesByTicker[b])
			if len(closeA) < opts.MinOverlap {
				continue
			}
			res, err := EngleGranger(closeA, closeB)
			if err != nil {
				continue
			}
			if res.PValue < opts.PValueThreshold {
				results = append(results, CointegrationResult{
					TickerA: a,
					TickerB: b,
					PValue:  res.PValue,
					TStat:   res.TStat,
					Beta:    res.Beta,
					Bars:    len(closeA),
				})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].PValue < results[j].PValue })
	return results, nil
}

// alignByDate restricts two bar sequences to the intersection of their
// trading calendars, preserving chronological order.
func alignByDate(barsA, barsB []model.Bar) (dates []time.Time, closeA, closeB []float64) {
	key := func(b model.Bar) time.Time { return b.Date.UTC().Truncate(24 * time.Hour) }

	byDate := make(map[time.Time]float64, len(barsB))
	for _, b := range barsB {
		byDate[key(b)] = b.Close
	}
	for _, a := range barsA {
		d := key(a)
		if cb, ok := byDate[d]; ok {
			dates = append(dates, d)
			closeA = append(closeA, a.Close)
			closeB = append(closeB, cb)
		}
	}
	return dates, closeA, closeB
}
