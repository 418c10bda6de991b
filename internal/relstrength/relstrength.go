// Package relstrength compares a security's trailing return against a
// benchmark index to produce an outperformance flag.
//
// Benchmark failures never propagate: a missing or undersized benchmark
// series yields a not-OK result with a missing value, and the scoring rule
// that consumes it simply contributes nothing.
package relstrength

import (
	"strings"
	"time"

	"stock-analyzerv1/internal/model"
)

// DefaultLookback is the trailing return window in bars.
const DefaultLookback = 20

// Benchmark index symbols by listing suffix.
const (
	BenchmarkUS         = "^GSPC"
	BenchmarkStockholm  = "^OMX"
	BenchmarkCopenhagen = "^OMXC25"
	BenchmarkHelsinki   = "^OMXH25"
)

// BenchmarkFor maps a ticker to its benchmark index by listing suffix.
// Unknown suffixes fall back to the broad US index.
func BenchmarkFor(ticker string) string {
	switch {
	case strings.HasSuffix(ticker, ".ST"):
		return BenchmarkStockholm
	case strings.HasSuffix(ticker, ".CO"):
		return BenchmarkCopenhagen
	case strings.HasSuffix(ticker, ".HE"):
		return BenchmarkHelsinki
	default:
		return BenchmarkUS
	}
}

// Result is the outcome of a relative-strength comparison.
type Result struct {
	Value         float64 `json:"value"` // stock return minus index return
	Outperforming bool    `json:"outperforming"`
	OK            bool    `json:"ok"` // false when the benchmark was unusable
}

// Compute compares the latest aligned trailing returns of the stock and
// benchmark close series. Soft-fails when either series is shorter than
// lookback+1.
func Compute(stockClose, benchClose []float64, lookback int) Result {
	if lookback <= 0 || len(stockClose) <= lookback || len(benchClose) <= lookback {
		return Result{Value: model.Missing()}
	}

	sLast, sPrev := stockClose[len(stockClose)-1], stockClose[len(stockClose)-1-lookback]
	bLast, bPrev := benchClose[len(benchClose)-1], benchClose[len(benchClose)-1-lookback]
	if sPrev == 0 || bPrev == 0 || model.IsMissing(sPrev) || model.IsMissing(bPrev) ||
		model.IsMissing(sLast) || model.IsMissing(bLast) {
		return Result{Value: model.Missing()}
	}

	rs := (sLast/sPrev - 1) - (bLast/bPrev - 1)
	return Result{Value: rs, Outperforming: rs > 0, OK: true}
}

// Column builds a per-bar relative-strength column aligned with the stock
// bars, matching benchmark closes by trading date. Positions where the
// benchmark is absent for the bar's date (or the lookback window) are
// missing.
func Column(stockBars, benchBars []model.Bar, lookback int) []float64 {
	out := make([]float64, len(stockBars))
	for i := range out {
		out[i] = model.Missing()
	}
	if lookback <= 0 || len(benchBars) == 0 {
		return out
	}

	benchByDate := make(map[time.Time]float64, len(benchBars))
	for _, b := range benchBars {
		benchByDate[b.Date.UTC().Truncate(24*time.Hour)] = b.Close
	}
	dateKey := func(b model.Bar) time.Time {
		return b.Date.UTC().Truncate(24 * time.Hour)
	}

	for i := lookback; i < len(stockBars); i++ {
		sPrev := stockBars[i-lookback].Close
		sLast := stockBars[i].Close
		bPrev, okPrev := benchByDate[dateKey(stockBars[i-lookback])]
		bLast, okLast := benchByDate[dateKey(stockBars[i])]
		if !okPrev || !okLast || sPrev == 0 || bPrev == 0 {
			continue
		}
		out[i] = (sLast/sPrev - 1) - (bLast/bPrev - 1)
	}
	return out
}
