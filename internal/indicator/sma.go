package indicator

import "stock-analyzerv1/internal/model"

// SMA computes the simple moving average over a trailing window.
// The first window-1 positions are missing, as is any window containing a
// missing input; once the bad input leaves the window the average is
// defined again. Uses a running sum, O(n).
func SMA(series []float64, window int) ([]float64, error) {
	if err := checkWindow("SMA", window); err != nil {
		return nil, err
	}

	out := missingSlice(len(series))
	var sum float64
	bad := 0
	for i, v := range series {
		if model.IsMissing(v) {
			bad++
		} else {
			sum += v
		}
		if i >= window {
			if old := series[i-window]; model.IsMissing(old) {
				bad--
			} else {
				sum -= old
			}
		}
		if i >= window-1 && bad == 0 {
			out[i] = sum / float64(window)
		}
	}
	return out, nil
}

// EMA computes the exponential moving average with alpha = 2/(period+1),
// seeded with the first value. Every position is defined.
func EMA(series []float64, period int) ([]float64, error) {
	if err := checkWindow("EMA", period); err != nil {
		return nil, err
	}

	out := make([]float64, len(series))
	if len(series) == 0 {
		return out, nil
	}

	alpha := 2.0 / float64(period+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}
