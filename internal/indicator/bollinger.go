package indicator

import (
	"fmt"
	"math"

	"stock-analyzerv1/internal/model"
)

// Bollinger computes Bollinger Bands: middle = SMA(window),
// upper/lower = middle ± stdDevMult × rolling sample standard deviation.
// The first window-1 positions of every band are missing.
func Bollinger(series []float64, window int, stdDevMult float64) (upper, middle, lower []float64, err error) {
	if err := checkWindow("Bollinger", window); err != nil {
		return nil, nil, nil, err
	}
	if stdDevMult <= 0 {
		return nil, nil, nil, fmt.Errorf("%w: Bollinger stddev multiplier %.2f must be positive", model.ErrInvalidConfig, stdDevMult)
	}

	middle, err = SMA(series, window)
	if err != nil {
		return nil, nil, nil, err
	}
	std, err := RollingStd(series, window)
	if err != nil {
		return nil, nil, nil, err
	}

	upper = missingSlice(len(series))
	lower = missingSlice(len(series))
	for i := range series {
		if model.IsMissing(middle[i]) || model.IsMissing(std[i]) {
			continue
		}
		upper[i] = middle[i] + stdDevMult*std[i]
		lower[i] = middle[i] - stdDevMult*std[i]
	}
	return upper, middle, lower, nil
}

// RollingStd computes the trailing sample standard deviation (ddof=1) over
// a window. The sample correction divides by window-1, so window must be
// at least 2.
func RollingStd(series []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: RollingStd window %d must be at least 2", model.ErrInvalidConfig, window)
	}

	out := missingSlice(len(series))
	for i := window - 1; i < len(series); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += series[j]
		}
		mean := sum / float64(window)

		var sq float64
		for j := i - window + 1; j <= i; j++ {
			d := series[j] - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(window-1))
	}
	return out, nil
}
