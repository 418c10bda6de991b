package scoring

import (
	"fmt"

	"stock-analyzerv1/internal/indicator"
	"stock-analyzerv1/internal/model"
)

// Variant selects which rule subset is active.
type Variant string

const (
	// VariantDaily enables all seven rules (K=7).
	VariantDaily Variant = "daily"
	// VariantSwing drops the confirming-timeframe and relative-strength
	// rules (K=5).
	VariantSwing Variant = "swing"
	// VariantIntraday keeps the four base rules with a stricter RSI
	// ceiling of 50 (K=4).
	VariantIntraday Variant = "intraday"
)

// Recommendation cut points as score/K ratios. A single monotonic mapping
// is used for every K so the boundary is consistent regardless of which
// rule subset is active.
const (
	StrongBuyRatio = 0.70
	BuyRatio       = 0.40
)

// DefaultMinBars is the warm-up floor under the default parameters (the
// default long moving average). Callers with longer configured windows
// raise the engine's MinBars accordingly.
const DefaultMinBars = indicator.DefaultLongMA

// ScoreResult is the per-bar output of the engine.
type ScoreResult struct {
	Score          int                  `json:"score"`
	MaxScore       int                  `json:"max_score"`
	Recommendation model.Recommendation `json:"recommendation"`
}

// Engine evaluates a fixed rule set over indicator frames. Stateless
// between calls.
type Engine struct {
	variant Variant
	rules   []Rule

	// MinBars is the shortest frame ScoreFrame accepts: the longest
	// warm-up window among the active rules' inputs.
	MinBars int
}

// NewEngine builds the rule set for a variant.
func NewEngine(variant Variant) (*Engine, error) {
	base := func(rsiMax float64) []Rule {
		return []Rule{maCrossRule(), macdRule(), rsiRule(rsiMax), obvRule()}
	}

	var rules []Rule
	switch variant {
	case VariantDaily:
		rules = append(base(60), confirmRule(), relStrengthRule(), bbMiddleRule())
	case VariantSwing:
		rules = append(base(60), bbMiddleRule())
	case VariantIntraday:
		rules = base(50)
	default:
		return nil, fmt.Errorf("%w: unknown scoring variant %q", model.ErrInvalidConfig, variant)
	}
	return &Engine{variant: variant, rules: rules, MinBars: DefaultMinBars}, nil
}

// Variant returns the active variant.
func (e *Engine) Variant() Variant { return e.variant }

// K returns the number of active rules.
func (e *Engine) K() int { return len(e.rules) }

// ScoreAt evaluates every rule at bar i of the frame.
func (e *Engine) ScoreAt(f *model.IndicatorFrame, i int) ScoreResult {
	score := 0
	for _, r := range e.rules {
		if r.Eval(f, i) {
			score++
		}
	}
	return ScoreResult{
		Score:          score,
		MaxScore:       len(e.rules),
		Recommendation: Recommend(score, len(e.rules)),
	}
}

// ScoreFrame fills the frame's Score, MaxScore, and Recommendation columns
// for every bar. Returns ErrInsufficientData when the frame is shorter than
// the minimum warm-up window; the columns are then left unset.
func (e *Engine) ScoreFrame(f *model.IndicatorFrame) error {
	if f.Len() < e.MinBars {
		return fmt.Errorf("%w: %d bars, need at least %d", model.ErrInsufficientData, f.Len(), e.MinBars)
	}

	f.MaxScore = len(e.rules)
	f.Score = make([]int, f.Len())
	f.Recommendation = make([]model.Recommendation, f.Len())
	for i := 0; i < f.Len(); i++ {
		r := e.ScoreAt(f, i)
		f.Score[i] = r.Score
		f.Recommendation[i] = r.Recommendation
	}
	return nil
}

// Recommend maps a score to a recommendation using the ratio bands.
func Recommend(score, k int) model.Recommendation {
	if k <= 0 {
		return model.RecNone
	}
	ratio := float64(score) / float64(k)
	switch {
	case ratio >= StrongBuyRatio:
		return model.RecStrongBuy
	case ratio >= BuyRatio:
		return model.RecBuy
	default:
		return model.RecNeutralSell
	}
}
