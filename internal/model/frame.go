package model

import "encoding/json"

// Recommendation is the categorical label derived from a signal score.
type Recommendation string

const (
	RecStrongBuy   Recommendation = "Strong Buy"
	RecBuy         Recommendation = "Buy"
	RecNeutralSell Recommendation = "Neutral/Sell"
	// RecSell is emitted by the mean-reversion variant only.
	RecSell Recommendation = "Sell"
	// RecNone marks bars where the score could not be computed.
	RecNone Recommendation = ""
)

// IndicatorFrame is a bar sequence augmented with computed columns.
// Every column is positionally aligned with Bars; warm-up positions hold
// the Missing marker. Columns are strongly typed fields, never looked up
// by name.
type IndicatorFrame struct {
	Ticker string `json:"ticker"`
	Bars   []Bar  `json:"bars"`

	SMAShort []float64 `json:"sma_short"`
	SMALong  []float64 `json:"sma_long"`

	MACDLine   []float64 `json:"macd_line"`
	MACDSignal []float64 `json:"macd_signal"`
	MACDHist   []float64 `json:"macd_hist"`

	RSI []float64 `json:"rsi"`

	OBV    []float64 `json:"obv"`
	OBVSMA []float64 `json:"obv_sma"`

	ATR []float64 `json:"atr"`

	BBUpper  []float64 `json:"bb_upper"`
	BBMiddle []float64 `json:"bb_middle"`
	BBLower  []float64 `json:"bb_lower"`

	// Confirming-timeframe moving averages (weekly closes resampled back
	// onto the daily index). Missing when the variant does not use them.
	ConfirmSMAShort []float64 `json:"confirm_sma_short,omitempty"`
	ConfirmSMALong  []float64 `json:"confirm_sma_long,omitempty"`

	// Relative strength vs. the benchmark index, aligned by date.
	// Missing where the benchmark could not be obtained.
	RelStrength []float64 `json:"rel_strength,omitempty"`

	// Score columns. Nil when the frame was too short to score.
	Score          []int            `json:"score"`
	MaxScore       int              `json:"max_score"`
	Recommendation []Recommendation `json:"recommendation"`

	// Risk columns, recomputed every bar from close and ATR.
	StopLoss   []float64 `json:"stop_loss"`
	TakeProfit []float64 `json:"take_profit"`
}

// Len returns the number of bars in the frame.
func (f *IndicatorFrame) Len() int { return len(f.Bars) }

// JSON returns the JSON-encoded frame.
func (f *IndicatorFrame) JSON() []byte {
	data, _ := json.Marshal(f)
	return data
}

// NullableFloat maps the missing marker to nil for JSON encoding, since
// JSON has no NaN.
func NullableFloat(x float64) *float64 {
	if IsMissing(x) {
		return nil
	}
	return &x
}

// NullableFloats maps a whole column through NullableFloat.
func NullableFloats(xs []float64) []*float64 {
	if xs == nil {
		return nil
	}
	out := make([]*float64, len(xs))
	for i, x := range xs {
		out[i] = NullableFloat(x)
	}
	return out
}

// MarshalJSON encodes missing markers as null.
func (f *IndicatorFrame) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ticker string `json:"ticker"`
		Bars   []Bar  `json:"bars"`

		SMAShort []*float64 `json:"sma_short"`
		SMALong  []*float64 `json:"sma_long"`

		MACDLine   []*float64 `json:"macd_line"`
		MACDSignal []*float64 `json:"macd_signal"`
		MACDHist   []*float64 `json:"macd_hist"`

		RSI []*float64 `json:"rsi"`

		OBV    []*float64 `json:"obv"`
		OBVSMA []*float64 `json:"obv_sma"`

		ATR []*float64 `json:"atr"`

		BBUpper  []*float64 `json:"bb_upper"`
		BBMiddle []*float64 `json:"bb_middle"`
		BBLower  []*float64 `json:"bb_lower"`

		ConfirmSMAShort []*float64 `json:"confirm_sma_short,omitempty"`
		ConfirmSMALong  []*float64 `json:"confirm_sma_long,omitempty"`
		RelStrength     []*float64 `json:"rel_strength,omitempty"`

		Score          []int            `json:"score"`
		MaxScore       int              `json:"max_score"`
		Recommendation []Recommendation `json:"recommendation"`

		StopLoss   []*float64 `json:"stop_loss"`
		TakeProfit []*float64 `json:"take_profit"`
	}{
		Ticker:          f.Ticker,
		Bars:            f.Bars,
		SMAShort:        NullableFloats(f.SMAShort),
		SMALong:         NullableFloats(f.SMALong),
		MACDLine:        NullableFloats(f.MACDLine),
		MACDSignal:      NullableFloats(f.MACDSignal),
		MACDHist:        NullableFloats(f.MACDHist),
		RSI:             NullableFloats(f.RSI),
		OBV:             NullableFloats(f.OBV),
		OBVSMA:          NullableFloats(f.OBVSMA),
		ATR:             NullableFloats(f.ATR),
		BBUpper:         NullableFloats(f.BBUpper),
		BBMiddle:        NullableFloats(f.BBMiddle),
		BBLower:         NullableFloats(f.BBLower),
		ConfirmSMAShort: NullableFloats(f.ConfirmSMAShort),
		ConfirmSMALong:  NullableFloats(f.ConfirmSMALong),
		RelStrength:     NullableFloats(f.RelStrength),
		Score:           f.Score,
		MaxScore:        f.MaxScore,
		Recommendation:  f.Recommendation,
		StopLoss:        NullableFloats(f.StopLoss),
		TakeProfit:      NullableFloats(f.TakeProfit),
	})
}
