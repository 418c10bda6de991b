package backtest

import (
	"math"

	"stock-analyzerv1/internal/model"
)

// Default score-strategy threshold ratios relative to the active rule
// count K. Entry at ceil(0.70*K) mirrors the Strong Buy band; exit at
// floor(0.45*K) (3 of 7).
const (
	scoreEntryRatio = 0.70
	scoreExitRatio  = 0.45
)

// Mean-reversion thresholds.
const (
	meanRevEntryRSI = 35.0
	meanRevExitRSI  = 55.0
)

// ScoreRules builds the score-driven strategy: enter when the bar's signal
// score reaches entryThreshold, exit when it falls to exitThreshold.
// Pass 0 for either threshold to derive it from the frame's rule count.
// Bars without a score column never signal.
func ScoreRules(entryThreshold, exitThreshold int) Rules {
	entryFor := func(f *model.IndicatorFrame) int {
		if entryThreshold > 0 {
			return entryThreshold
		}
		return int(math.Ceil(scoreEntryRatio * float64(f.MaxScore)))
	}
	exitFor := func(f *model.IndicatorFrame) int {
		if exitThreshold > 0 {
			return exitThreshold
		}
		return int(math.Floor(scoreExitRatio * float64(f.MaxScore)))
	}

	return Rules{
		Name: "score",
		Entry: func(f *model.IndicatorFrame, i int) bool {
			return f.Score != nil && f.Score[i] >= entryFor(f)
		},
		Exit: func(f *model.IndicatorFrame, i int) bool {
			return f.Score != nil && f.Score[i] <= exitFor(f)
		},
	}
}

// MeanReversionRules builds the Bollinger/RSI mean-reversion strategy:
// enter long when the close touches the lower band with RSI oversold,
// exit when the close recovers to the middle band with RSI above the
// ceiling. Bars inside the warm-up window never signal.
func MeanReversionRules() Rules {
	return Rules{
		Name: "mean_reversion",
		Entry: func(f *model.IndicatorFrame, i int) bool {
			if model.IsMissing(f.BBLower[i]) || model.IsMissing(f.RSI[i]) {
				return false
			}
			return f.Bars[i].Close <= f.BBLower[i] && f.RSI[i] < meanRevEntryRSI
		},
		Exit: func(f *model.IndicatorFrame, i int) bool {
			if model.IsMissing(f.BBMiddle[i]) || model.IsMissing(f.RSI[i]) {
				return false
			}
			return f.Bars[i].Close >= f.BBMiddle[i] && f.RSI[i] > meanRevExitRSI
		},
	}
}
