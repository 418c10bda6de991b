package indicator

import (
	"fmt"
	"math"

	"stock-analyzerv1/internal/model"
)

// ATR computes the Average True Range: the trailing simple average of the
// true range, where TR = max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar's TR is high-low (no previous close). The first period-1
// positions are missing.
func ATR(high, low, close []float64, period int) ([]float64, error) {
	if err := checkWindow("ATR", period); err != nil {
		return nil, err
	}
	if len(high) != len(low) || len(low) != len(close) {
		return nil, fmt.Errorf("%w: ATR input lengths differ (%d/%d/%d)", model.ErrInvalidConfig, len(high), len(low), len(close))
	}

	n := len(close)
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := high[i] - low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	return SMA(tr, period)
}
