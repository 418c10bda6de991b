// Package backtest replays scored indicator frames bar-by-bar through a
// single-position state machine and produces aggregate performance
// statistics.
//
// There is exactly one replay loop. Strategy variants differ only in the
// entry/exit predicate pair injected into it.
package backtest

import (
	"fmt"
	"time"

	"stock-analyzerv1/internal/model"
)

// DefaultMinHistory is the minimum number of bars required to run: below
// this the indicator warm-up would dominate the window and zero-trade
// statistics would look deceptively valid.
const DefaultMinHistory = 50

// DefaultCommission is the proportional commission applied on each side.
const DefaultCommission = 0.002

// Rules is the pluggable entry/exit predicate pair. Both are evaluated at
// every bar boundary against that bar's frame values.
type Rules struct {
	Name  string
	Entry func(f *model.IndicatorFrame, i int) bool
	Exit  func(f *model.IndicatorFrame, i int) bool
}

// Config holds replay parameters.
type Config struct {
	Commission float64 `yaml:"commission"`  // proportional, per side
	MinHistory int     `yaml:"min_history"` // bars required to run
}

// DefaultConfig returns the standard replay parameters.
func DefaultConfig() Config {
	return Config{Commission: DefaultCommission, MinHistory: DefaultMinHistory}
}

// Trade is one closed round trip.
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	ReturnPct  float64   `json:"return_pct"` // net of both commissions
}

// Stats aggregates a completed run.
type Stats struct {
	Ticker         string  `json:"ticker"`
	Strategy       string  `json:"strategy"`
	Bars           int     `json:"bars"`
	NumTrades      int     `json:"num_trades"`
	TotalReturnPct float64 `json:"total_return_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	// ProfitFactor is gross wins over gross losses; 0 when undefined
	// (no trades, or no losing trades to divide by).
	ProfitFactor   float64   `json:"profit_factor"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Trades         []Trade   `json:"trades"`
	Equity         []float64 `json:"equity"` // mark-to-market, 1.0 = starting capital
}

type positionState int

const (
	stateFlat positionState = iota
	stateLong
)

// Engine replays frames. Stateless between runs.
type Engine struct {
	cfg Config
}

// New creates a backtest engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Commission < 0 || cfg.Commission >= 1 {
		return nil, fmt.Errorf("%w: commission %.4f out of [0,1)", model.ErrInvalidConfig, cfg.Commission)
	}
	if cfg.MinHistory <= 0 {
		return nil, fmt.Errorf("%w: min_history must be positive", model.ErrInvalidConfig)
	}
	return &Engine{cfg: cfg}, nil
}

// Run replays the frame through the state machine. Fills are
// market-on-close at the signalling bar. At most one position is open at
// any bar; entry signals while long are no-ops. A position still open at
// the final bar is closed there.
//
// Frames shorter than MinHistory return ErrInsufficientHistory — a typed
// "not run", distinct from running with zero trades.
func (e *Engine) Run(f *model.IndicatorFrame, rules Rules) (*Stats, error) {
	if rules.Entry == nil || rules.Exit == nil {
		return nil, fmt.Errorf("%w: backtest rules need both entry and exit predicates", model.ErrInvalidConfig)
	}
	if f.Len() < e.cfg.MinHistory {
		return nil, fmt.Errorf("%w: %d bars, need at least %d", model.ErrInsufficientHistory, f.Len(), e.cfg.MinHistory)
	}

	c := e.cfg.Commission
	stats := &Stats{
		Ticker:   f.Ticker,
		Strategy: rules.Name,
		Bars:     f.Len(),
		Equity:   make([]float64, f.Len()),
	}

	state := stateFlat
	equity := 1.0
	var eqAtEntry, entryPrice float64
	var entryDate time.Time

	closeTrade := func(i int) {
		exitPrice := f.Bars[i].Close
		net := exitPrice/entryPrice - 1 - 2*c
		equity = eqAtEntry * (1 + net)
		stats.Trades = append(stats.Trades, Trade{
			EntryDate:  entryDate,
			ExitDate:   f.Bars[i].Date,
			EntryPrice: entryPrice,
			ExitPrice:  exitPrice,
			ReturnPct:  net * 100,
		})
		state = stateFlat
	}

	for i := 0; i < f.Len(); i++ {
		price := f.Bars[i].Close

		if state == stateLong {
			// Mark to market, entry commission already sunk.
			equity = eqAtEntry * (price/entryPrice - c)
			if rules.Exit(f, i) || i == f.Len()-1 {
				closeTrade(i)
			}
		} else if rules.Entry(f, i) && i < f.Len()-1 {
			state = stateLong
			eqAtEntry = equity
			entryPrice = price
			entryDate = f.Bars[i].Date
		}

		stats.Equity[i] = equity
	}

	finalize(stats)
	return stats, nil
}

// finalize derives the aggregate statistics from the closed-trade list and
// the equity curve.
func finalize(s *Stats) {
	s.NumTrades = len(s.Trades)
	if len(s.Equity) > 0 {
		s.TotalReturnPct = (s.Equity[len(s.Equity)-1] - 1) * 100
	}

	wins := 0
	var grossWin, grossLoss float64
	for _, t := range s.Trades {
		if t.ReturnPct > 0 {
			wins++
			grossWin += t.ReturnPct
		} else {
			grossLoss -= t.ReturnPct
		}
	}
	if s.NumTrades > 0 {
		s.WinRatePct = float64(wins) / float64(s.NumTrades) * 100
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossWin / grossLoss
	}

	peak := 0.0
	for _, eq := range s.Equity {
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			dd := (peak - eq) / peak * 100
			if dd > s.MaxDrawdownPct {
				s.MaxDrawdownPct = dd
			}
		}
	}
}
