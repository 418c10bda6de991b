package provider

import (
	"context"
	"log"

	"stock-analyzerv1/internal/metrics"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/store/redis"
)

// Cache is a Redis read-through decorator around a BarSource. Cache
// failures are logged and degrade to the underlying source; they never
// fail the fetch.
type Cache struct {
	source BarSource
	store  *redis.Store
	m      *metrics.Metrics // optional
}

// NewCache wraps source with the Redis series cache. m may be nil.
func NewCache(source BarSource, store *redis.Store, m *metrics.Metrics) *Cache {
	return &Cache{source: source, store: store, m: m}
}

// Name implements BarSource.
func (c *Cache) Name() string { return "cache(" + c.source.Name() + ")" }

// DailyBars implements BarSource.
func (c *Cache) DailyBars(ctx context.Context, ticker string, lookbackDays int) ([]model.Bar, error) {
	if bars, err := c.store.CachedBars(ctx, ticker, lookbackDays); err != nil {
		log.Printf("[provider] cache read for %s degraded: %v", ticker, err)
	} else if len(bars) > 0 {
		if c.m != nil {
			c.m.CacheHits.Inc()
		}
		return bars, nil
	}
	if c.m != nil {
		c.m.CacheMisses.Inc()
	}

	bars, err := c.source.DailyBars(ctx, ticker, lookbackDays)
	if err != nil {
		return nil, err
	}

	if err := c.store.CacheBars(ctx, ticker, lookbackDays, bars); err != nil {
		log.Printf("[provider] cache write for %s degraded: %v", ticker, err)
	}
	return bars, nil
}
