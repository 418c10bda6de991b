package indicator

import "stock-analyzerv1/internal/model"

// RSI computes the Relative Strength Index from rolling simple averages of
// gains and losses, scaled to 0-100 via 100 - 100/(1+RS).
//
// The first `period` positions are missing (the first close has no delta).
// Where the average loss over the window is exactly zero, RS is undefined
// and the output is missing — never clamped to 100 and never an error.
func RSI(series []float64, period int) ([]float64, error) {
	if err := checkWindow("RSI", period); err != nil {
		return nil, err
	}

	n := len(series)
	out := missingSlice(n)
	if n <= period {
		return out, nil
	}

	var gainSum, lossSum float64
	for i := 1; i < n; i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}

		// Slide the window once it spans `period` deltas.
		if i > period {
			old := series[i-period] - series[i-period-1]
			if old > 0 {
				gainSum -= old
			} else {
				lossSum += old
			}
		}

		if i >= period {
			avgGain := gainSum / float64(period)
			avgLoss := lossSum / float64(period)
			if avgLoss == 0 {
				out[i] = model.Missing()
				continue
			}
			rs := avgGain / avgLoss
			out[i] = 100.0 - 100.0/(1.0+rs)
		}
	}
	return out, nil
}
