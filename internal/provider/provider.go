// Package provider abstracts where daily bars come from. The analysis
// core consumes one interface: given a ticker and a history length,
// return an ordered sequence of daily OHLCV bars.
package provider

import (
	"context"
	"fmt"
	"log"
	"time"

	"stock-analyzerv1/internal/metrics"
	"stock-analyzerv1/internal/model"
)

// BarSource fetches daily bars for a ticker. Implementations return
// model.ErrNoData when the ticker has no history; an empty non-error
// result is treated the same way by consumers.
type BarSource interface {
	// DailyBars returns bars in strictly increasing date order, covering
	// up to lookbackDays calendar days back from now.
	DailyBars(ctx context.Context, ticker string, lookbackDays int) ([]model.Bar, error)
	// Name identifies the source in logs.
	Name() string
}

// DefaultSourceTimeout bounds each source attempt inside a Chain.
const DefaultSourceTimeout = 10 * time.Second

// Chain tries ranked sources in order, each wrapped in its own timeout;
// the first non-empty result wins. Failures and empty results fall
// through to the next source.
type Chain struct {
	sources []BarSource
	timeout time.Duration

	// Metrics, when set, counts per-source failures.
	Metrics *metrics.Metrics
}

// NewChain builds a fallback chain over the given sources, best first.
func NewChain(timeout time.Duration, sources ...BarSource) *Chain {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &Chain{sources: sources, timeout: timeout}
}

// Name implements BarSource.
func (c *Chain) Name() string { return "chain" }

// DailyBars implements BarSource. It returns model.ErrNoData when every
// source failed or came back empty.
func (c *Chain) DailyBars(ctx context.Context, ticker string, lookbackDays int) ([]model.Bar, error) {
	for _, src := range c.sources {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		bars, err := src.DailyBars(attemptCtx, ticker, lookbackDays)
		cancel()

		if err != nil {
			log.Printf("[provider] %s failed for %s: %v", src.Name(), ticker, err)
			if c.Metrics != nil {
				c.Metrics.ProviderFailures.WithLabelValues(src.Name()).Inc()
			}
			continue
		}
		if len(bars) == 0 {
			continue
		}
		return bars, nil
	}
	return nil, fmt.Errorf("%w: no source returned bars for %s", model.ErrNoData, ticker)
}
