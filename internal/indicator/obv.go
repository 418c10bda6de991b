package indicator

import (
	"fmt"

	"stock-analyzerv1/internal/model"
)

// OBV computes On-Balance Volume: a cumulative sum of volume, added when
// the close rises, subtracted when it falls, unchanged on a flat close.
// Defined from the first bar (seeded with the first bar's volume).
func OBV(close, volume []float64) ([]float64, error) {
	if len(close) != len(volume) {
		return nil, fmt.Errorf("%w: OBV input lengths differ (%d/%d)", model.ErrInvalidConfig, len(close), len(volume))
	}

	out := make([]float64, len(close))
	if len(close) == 0 {
		return out, nil
	}

	out[0] = volume[0]
	for i := 1; i < len(close); i++ {
		switch {
		case close[i] > close[i-1]:
			out[i] = out[i-1] + volume[i]
		case close[i] < close[i-1]:
			out[i] = out[i-1] - volume[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out, nil
}

// PctChange computes the n-bar trailing percentage change:
// series[i]/series[i-n] - 1. The first n positions are missing.
func PctChange(series []float64, n int) ([]float64, error) {
	if err := checkWindow("PctChange", n); err != nil {
		return nil, err
	}

	out := missingSlice(len(series))
	for i := n; i < len(series); i++ {
		if series[i-n] == 0 {
			out[i] = model.Missing()
			continue
		}
		out[i] = series[i]/series[i-n] - 1
	}
	return out, nil
}
