// Package analyzer assembles the full indicator frame for a ticker: every
// indicator column, the per-bar signal score and recommendation, and the
// per-bar risk levels.
//
// Analysis is atomic per ticker: callers receive either a fully-populated
// frame or a typed error, never a partially-scored frame. Calling Analyze
// twice on the identical bar sequence produces identical frames.
package analyzer

import (
	"fmt"

	"stock-analyzerv1/internal/indicator"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/relstrength"
	"stock-analyzerv1/internal/risk"
	"stock-analyzerv1/internal/scoring"
)

// Config holds all tunable analysis parameters.
type Config struct {
	ShortMA int `yaml:"short_ma"`
	LongMA  int `yaml:"long_ma"`

	RSIPeriod int `yaml:"rsi_period"`
	ATRPeriod int `yaml:"atr_period"`

	BBWindow int     `yaml:"bb_window"`
	BBStdDev float64 `yaml:"bb_stddev"`

	OBVWindow int `yaml:"obv_window"`

	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`

	// Confirming-timeframe (weekly) moving average windows, in weeks.
	// Used by the daily variant only.
	ConfirmShortMA int `yaml:"confirm_short_ma"`
	ConfirmLongMA  int `yaml:"confirm_long_ma"`

	RelStrengthLookback int `yaml:"rel_strength_lookback"`

	Variant scoring.Variant `yaml:"variant"`
	Risk    risk.Params     `yaml:"risk"`
}

// DefaultConfig returns the standard daily-variant parameters.
func DefaultConfig() Config {
	return Config{
		ShortMA:             indicator.DefaultShortMA,
		LongMA:              indicator.DefaultLongMA,
		RSIPeriod:           indicator.DefaultRSIPeriod,
		ATRPeriod:           indicator.DefaultATRPeriod,
		BBWindow:            indicator.DefaultBBWindow,
		BBStdDev:            indicator.DefaultBBStdDev,
		OBVWindow:           indicator.DefaultOBVWindow,
		MACDFast:            indicator.DefaultMACDFast,
		MACDSlow:            indicator.DefaultMACDSlow,
		MACDSignal:          indicator.DefaultMACDSignal,
		ConfirmShortMA:      10,
		ConfirmLongMA:       30,
		RelStrengthLookback: relstrength.DefaultLookback,
		Variant:             scoring.VariantDaily,
		Risk:                risk.DefaultParams(),
	}
}

// Validate rejects nonsensical parameters up front.
func (c Config) Validate() error {
	windows := map[string]int{
		"short_ma": c.ShortMA, "long_ma": c.LongMA,
		"rsi_period": c.RSIPeriod, "atr_period": c.ATRPeriod,
		"bb_window": c.BBWindow, "obv_window": c.OBVWindow,
		"macd_fast": c.MACDFast, "macd_slow": c.MACDSlow, "macd_signal": c.MACDSignal,
		"rel_strength_lookback": c.RelStrengthLookback,
	}
	for name, w := range windows {
		if w <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", model.ErrInvalidConfig, name, w)
		}
	}
	if c.ShortMA >= c.LongMA {
		return fmt.Errorf("%w: short_ma %d must be below long_ma %d", model.ErrInvalidConfig, c.ShortMA, c.LongMA)
	}
	if c.BBStdDev <= 0 {
		return fmt.Errorf("%w: bb_stddev must be positive", model.ErrInvalidConfig)
	}
	return c.Risk.Validate()
}

// minWarmup is the longest warm-up window among the configured daily
// indicator inputs. Frames shorter than this cannot be scored.
func (c Config) minWarmup() int {
	min := c.LongMA
	for _, w := range []int{c.BBWindow, c.RSIPeriod, c.ATRPeriod, c.OBVWindow, c.MACDSlow} {
		if w > min {
			min = w
		}
	}
	return min
}

// Analyze computes the full indicator frame for a ticker's daily bars.
// benchBars feeds the relative-strength column and may be nil (the column
// is then missing and its rule contributes nothing).
//
// Empty input returns ErrNoData. Input shorter than the scoring warm-up
// returns the frame with its warm-up-missing indicator columns alongside
// ErrInsufficientData, so callers can still inspect what was computable;
// the score columns stay unset.
func Analyze(bars []model.Bar, ticker string, cfg Config, benchBars []model.Bar) (*model.IndicatorFrame, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s returned no bars", model.ErrNoData, ticker)
	}

	series := model.Series{Ticker: ticker, Bars: bars}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	f := &model.IndicatorFrame{Ticker: ticker, Bars: bars}
	closes := series.Closes()
	var err error

	if f.SMAShort, err = indicator.SMA(closes, cfg.ShortMA); err != nil {
		return nil, err
	}
	if f.SMALong, err = indicator.SMA(closes, cfg.LongMA); err != nil {
		return nil, err
	}
	if f.MACDLine, f.MACDSignal, f.MACDHist, err = indicator.MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal); err != nil {
		return nil, err
	}
	if f.RSI, err = indicator.RSI(closes, cfg.RSIPeriod); err != nil {
		return nil, err
	}
	if f.OBV, err = indicator.OBV(closes, series.Volumes()); err != nil {
		return nil, err
	}
	if f.OBVSMA, err = indicator.SMA(f.OBV, cfg.OBVWindow); err != nil {
		return nil, err
	}
	if f.ATR, err = indicator.ATR(series.Highs(), series.Lows(), closes, cfg.ATRPeriod); err != nil {
		return nil, err
	}
	if f.BBUpper, f.BBMiddle, f.BBLower, err = indicator.Bollinger(closes, cfg.BBWindow, cfg.BBStdDev); err != nil {
		return nil, err
	}

	if cfg.Variant == scoring.VariantDaily {
		f.ConfirmSMAShort, f.ConfirmSMALong = confirmColumns(bars, cfg.ConfirmShortMA, cfg.ConfirmLongMA)
		f.RelStrength = relstrength.Column(bars, benchBars, cfg.RelStrengthLookback)
	}

	// Risk columns: recomputed at every bar from that bar's close and ATR.
	f.StopLoss = make([]float64, len(bars))
	f.TakeProfit = make([]float64, len(bars))
	for i := range bars {
		l := cfg.Risk.LevelsAt(bars[i].Close, f.ATR[i])
		f.StopLoss[i] = l.StopLoss
		f.TakeProfit[i] = l.TakeProfit
	}

	engine, err := scoring.NewEngine(cfg.Variant)
	if err != nil {
		return nil, err
	}
	if warmup := cfg.minWarmup(); warmup > engine.MinBars {
		engine.MinBars = warmup
	}
	if err := engine.ScoreFrame(f); err != nil {
		// Partial frame: indicator columns carry their warm-up missing
		// markers, score columns stay unset.
		return f, err
	}
	return f, nil
}

// confirmColumns resamples daily bars into weekly closes (ISO weeks) and
// computes short/long moving averages over completed weeks only, mapped
// back onto the daily index. No bar sees its own week's close.
func confirmColumns(bars []model.Bar, shortW, longW int) (shortMA, longMA []float64) {
	shortMA = make([]float64, len(bars))
	longMA = make([]float64, len(bars))
	for i := range bars {
		shortMA[i] = model.Missing()
		longMA[i] = model.Missing()
	}
	if shortW <= 0 || longW <= 0 {
		return shortMA, longMA
	}

	trailingMean := func(vals []float64, w int) float64 {
		if len(vals) < w {
			return model.Missing()
		}
		var sum float64
		for _, v := range vals[len(vals)-w:] {
			sum += v
		}
		return sum / float64(w)
	}

	var weeklyCloses []float64
	prevYear, prevWeek := -1, -1
	for i, b := range bars {
		year, week := b.Date.ISOWeek()
		if i > 0 && (year != prevYear || week != prevWeek) {
			// Previous week completed with the prior bar's close.
			weeklyCloses = append(weeklyCloses, bars[i-1].Close)
		}
		prevYear, prevWeek = year, week

		shortMA[i] = trailingMean(weeklyCloses, shortW)
		longMA[i] = trailingMean(weeklyCloses, longW)
	}
	return shortMA, longMA
}
