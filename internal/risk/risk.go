// Package risk derives stop-loss/take-profit price levels and suggested
// position sizes from volatility (ATR) and user risk parameters.
package risk

import (
	"fmt"
	"math"

	"stock-analyzerv1/internal/model"
)

// Params holds the ATR multipliers for the two levels.
type Params struct {
	SLMult float64 `json:"sl_mult" yaml:"sl_mult"`
	TPMult float64 `json:"tp_mult" yaml:"tp_mult"`
}

// DefaultParams returns the standard 2x/4x ATR multipliers.
func DefaultParams() Params {
	return Params{SLMult: 2.0, TPMult: 4.0}
}

// Validate rejects non-positive multipliers.
func (p Params) Validate() error {
	if p.SLMult <= 0 || p.TPMult <= 0 {
		return fmt.Errorf("%w: risk multipliers must be positive (sl=%.2f tp=%.2f)", model.ErrInvalidConfig, p.SLMult, p.TPMult)
	}
	return nil
}

// Levels holds the per-bar stop-loss and take-profit prices.
type Levels struct {
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

// Defined reports whether both levels are computable.
func (l Levels) Defined() bool {
	return !model.IsMissing(l.StopLoss) && !model.IsMissing(l.TakeProfit)
}

// LevelsAt computes stop-loss and take-profit from a close and its ATR.
// When ATR is missing or non-positive, both levels are missing — callers
// must not size positions from them.
func (p Params) LevelsAt(close, atr float64) Levels {
	if model.IsMissing(close) || model.IsMissing(atr) || atr <= 0 {
		return Levels{StopLoss: model.Missing(), TakeProfit: model.Missing()}
	}
	return Levels{
		StopLoss:   close - atr*p.SLMult,
		TakeProfit: close + atr*p.TPMult,
	}
}

// PositionSize returns the suggested share count risking riskPct of capital
// down to the stop: shares = capital*riskPct / (close - stopLoss).
// Returns ErrInvalidConfig when the stop is at or above the close, inputs
// are missing, or riskPct/capital are non-positive. Division by zero is
// guarded, never Inf.
func PositionSize(capital, riskPct, close, stopLoss float64) (int64, error) {
	if capital <= 0 || riskPct <= 0 {
		return 0, fmt.Errorf("%w: capital and risk percentage must be positive", model.ErrInvalidConfig)
	}
	if model.IsMissing(close) || model.IsMissing(stopLoss) {
		return 0, fmt.Errorf("%w: cannot size a position from missing risk levels", model.ErrInvalidConfig)
	}
	perShareRisk := close - stopLoss
	if perShareRisk <= 0 {
		return 0, fmt.Errorf("%w: stop-loss %.2f must be below close %.2f", model.ErrInvalidConfig, stopLoss, close)
	}
	return int64(math.Floor(capital * riskPct / perShareRisk)), nil
}
