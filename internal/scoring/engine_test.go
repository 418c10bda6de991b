package scoring

import (
	"errors"
	"testing"

	"stock-analyzerv1/internal/model"
)

// frameWithBars builds a frame of n bars where every indicator column is
// missing. Tests then set the columns a rule should see.
func frameWithBars(n int, close float64) *model.IndicatorFrame {
	f := &model.IndicatorFrame{Ticker: "TEST"}
	f.Bars = make([]model.Bar, n)
	for i := range f.Bars {
		f.Bars[i].Close = close
	}
	miss := func() []float64 {
		s := make([]float64, n)
		for i := range s {
			s[i] = model.Missing()
		}
		return s
	}
	f.SMAShort, f.SMALong = miss(), miss()
	f.MACDLine, f.MACDSignal, f.MACDHist = miss(), miss(), miss()
	f.RSI = miss()
	f.OBV, f.OBVSMA = miss(), miss()
	f.ATR = miss()
	f.BBUpper, f.BBMiddle, f.BBLower = miss(), miss(), miss()
	f.ConfirmSMAShort, f.ConfirmSMALong = miss(), miss()
	f.RelStrength = miss()
	return f
}

func TestNewEngine_K(t *testing.T) {
	cases := []struct {
		variant Variant
		wantK   int
	}{
		{VariantDaily, 7},
		{VariantSwing, 5},
		{VariantIntraday, 4},
	}
	for _, tc := range cases {
		e, err := NewEngine(tc.variant)
		if err != nil {
			t.Fatalf("%s: %v", tc.variant, err)
		}
		if e.K() != tc.wantK {
			t.Errorf("%s: expected K=%d, got %d", tc.variant, tc.wantK, e.K())
		}
	}
}

func TestNewEngine_UnknownVariant(t *testing.T) {
	if _, err := NewEngine("scalping"); !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestScoreAt_MissingRulesContributeZero(t *testing.T) {
	e, _ := NewEngine(VariantIntraday)
	f := frameWithBars(DefaultMinBars, 100)

	r := e.ScoreAt(f, DefaultMinBars-1)
	if r.Score != 0 {
		t.Errorf("expected score 0 with all-missing columns, got %d", r.Score)
	}
	if r.Recommendation != model.RecNeutralSell {
		t.Errorf("expected Neutral/Sell, got %q", r.Recommendation)
	}
}

func TestScoreAt_AllRulesFire(t *testing.T) {
	e, _ := NewEngine(VariantDaily)
	f := frameWithBars(DefaultMinBars, 100)
	i := DefaultMinBars - 1

	f.SMAShort[i], f.SMALong[i] = 105, 100
	f.MACDHist[i] = 0.5
	f.RSI[i] = 45
	f.OBV[i], f.OBVSMA[i] = 1000, 900
	f.ConfirmSMAShort[i], f.ConfirmSMALong[i] = 104, 101
	f.RelStrength[i] = 0.02
	f.BBMiddle[i] = 98

	r := e.ScoreAt(f, i)
	if r.Score != 7 {
		t.Fatalf("expected score 7, got %d", r.Score)
	}
	if r.Recommendation != model.RecStrongBuy {
		t.Errorf("expected Strong Buy, got %q", r.Recommendation)
	}
}

func TestScoreFrame_InsufficientData(t *testing.T) {
	e, _ := NewEngine(VariantSwing)
	f := frameWithBars(5, 100)

	err := e.ScoreFrame(f)
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for 5 bars, got %v", err)
	}
	if f.Score != nil {
		t.Errorf("score column must stay unset on insufficient data")
	}
}

func TestRecommend_RatioScalesWithK(t *testing.T) {
	cases := []struct {
		score, k int
		want     model.Recommendation
	}{
		{7, 7, model.RecStrongBuy},
		{5, 7, model.RecStrongBuy}, // 0.714
		{4, 7, model.RecBuy},       // 0.571
		{3, 7, model.RecBuy},       // 0.429
		{2, 7, model.RecNeutralSell},
		{4, 5, model.RecStrongBuy},
		{2, 5, model.RecBuy},
		{1, 5, model.RecNeutralSell},
		{3, 4, model.RecStrongBuy},
		{2, 4, model.RecBuy},
		{1, 4, model.RecNeutralSell},
		{0, 4, model.RecNeutralSell},
	}
	for _, tc := range cases {
		if got := Recommend(tc.score, tc.k); got != tc.want {
			t.Errorf("Recommend(%d, %d): expected %q, got %q", tc.score, tc.k, tc.want, got)
		}
	}

	// The boundary must be monotonic in score for fixed K.
	prevRank := -1
	rank := map[model.Recommendation]int{model.RecNeutralSell: 0, model.RecBuy: 1, model.RecStrongBuy: 2}
	for score := 0; score <= 7; score++ {
		r := rank[Recommend(score, 7)]
		if r < prevRank {
			t.Fatalf("mapping not monotonic at score=%d", score)
		}
		prevRank = r
	}
}
