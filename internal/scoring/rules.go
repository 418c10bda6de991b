// Package scoring combines indicator columns into an integer signal score
// and a categorical recommendation.
//
// Each rule is an independent bullish predicate over one bar of an
// indicator frame and contributes +1 when satisfied. A rule whose inputs
// are still inside their warm-up window contributes 0, never an error.
package scoring

import "stock-analyzerv1/internal/model"

// Rule is a named bullish predicate evaluated per bar.
type Rule struct {
	Name string
	Eval func(f *model.IndicatorFrame, i int) bool
}

func defined(vs ...float64) bool {
	for _, v := range vs {
		if model.IsMissing(v) {
			return false
		}
	}
	return true
}

// maCrossRule: short MA above long MA (trend up).
func maCrossRule() Rule {
	return Rule{
		Name: "ma_cross",
		Eval: func(f *model.IndicatorFrame, i int) bool {
			return defined(f.SMAShort[i], f.SMALong[i]) && f.SMAShort[i] > f.SMALong[i]
		},
	}
}

// macdRule: MACD histogram positive (momentum up).
func macdRule() Rule {
	return Rule{
		Name: "macd_momentum",
		Eval: func(f *model.IndicatorFrame, i int) bool {
			return defined(f.MACDHist[i]) && f.MACDHist[i] > 0
		},
	}
}

// rsiRule: RSI below the not-overbought ceiling (60 daily, 50 intraday).
func rsiRule(max float64) Rule {
	return Rule{
		Name: "rsi_headroom",
		Eval: func(f *model.IndicatorFrame, i int) bool {
			return defined(f.RSI[i]) && f.RSI[i] < max
		},
	}
}

// obvRule: OBV above its own moving average (volume confirms trend).
func obvRule() Rule {
	return Rule{
		Name: "obv_trend",
		Eval: func(f *model.IndicatorFrame, i int) bool {
			return defined(f.OBV[i], f.OBVSMA[i]) && f.OBV[i] > f.OBVSMA[i]
		},
	}
}

// confirmRule: the MA cross repeated on the confirming timeframe.
func confirmRule() Rule {
	return Rule{
		Name: "confirm_ma_cross",
		Eval: func(f *model.IndicatorFrame, i int) bool {
			if f.ConfirmSMAShort == nil || f.ConfirmSMALong == nil {
				return false
			}
			return defined(f.ConfirmSMAShort[i], f.ConfirmSMALong[i]) && f.ConfirmSMAShort[i] > f.ConfirmSMALong[i]
		},
	}
}

// relStrengthRule: positive trailing return vs. the benchmark index.
func relStrengthRule() Rule {
	return Rule{
		Name: "rel_strength",
		Eval: func(f *model.IndicatorFrame, i int) bool {
			if f.RelStrength == nil {
				return false
			}
			return defined(f.RelStrength[i]) && f.RelStrength[i] > 0
		},
	}
}

// bbMiddleRule: close above the Bollinger middle band.
func bbMiddleRule() Rule {
	return Rule{
		Name: "above_bb_middle",
		Eval: func(f *model.IndicatorFrame, i int) bool {
			return defined(f.BBMiddle[i]) && f.Bars[i].Close > f.BBMiddle[i]
		},
	}
}
