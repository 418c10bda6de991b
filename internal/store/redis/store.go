// Package redis caches daily bar series and publishes screener scan
// results. The cache is best-effort: a circuit breaker guards every call
// so a struggling Redis degrades reads to the upstream source instead of
// failing the fetch.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"stock-analyzerv1/internal/metrics"
	"stock-analyzerv1/internal/model"
)

const (
	defaultCacheTTL = 12 * time.Hour

	barsKeyPrefix  = "bars:"
	latestScanKey  = "scan:latest"
	scanPubChannel = "pub:scan"

	breakerMaxFailures  = 5
	breakerResetTimeout = 10 * time.Second
)

// Config configures the Redis store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration    // series cache TTL; 0 uses the default
	Metrics  *metrics.Metrics // optional
}

// Store caches bar series and publishes scan results.
type Store struct {
	client  *goredis.Client
	breaker *CircuitBreaker
	ttl     time.Duration
	m       *metrics.Metrics
}

// Client returns the underlying Redis client for health checks.
func (s *Store) Client() *goredis.Client { return s.client }

// New creates a Store and pings the server.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	breaker := NewCircuitBreaker(breakerMaxFailures, breakerResetTimeout)
	breaker.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
		if cfg.Metrics != nil {
			cfg.Metrics.RedisCircuitBreakerState.Set(float64(to))
		}
	}

	log.Printf("[redis] connected to %s (cache ttl %v)", cfg.Addr, ttl)
	return &Store{client: client, breaker: breaker, ttl: ttl, m: cfg.Metrics}, nil
}

// barsKey keys a cached series by ticker and history length, so a series
// cached for a short request is never served for a longer one.
func barsKey(ticker string, lookbackDays int) string {
	return fmt.Sprintf("%s%s:%d", barsKeyPrefix, ticker, lookbackDays)
}

// CacheBars stores a ticker's daily bars for one history length with the
// cache TTL.
func (s *Store) CacheBars(ctx context.Context, ticker string, lookbackDays int, bars []model.Bar) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("marshal bars for %s: %w", ticker, err)
	}
	return s.breaker.Execute(func() error {
		start := time.Now()
		err := s.client.Set(ctx, barsKey(ticker, lookbackDays), data, s.ttl).Err()
		if s.m != nil {
			s.m.RedisWriteDur.Observe(time.Since(start).Seconds())
		}
		return err
	})
}

// CachedBars returns a ticker's cached bars for one history length, or
// nil on a cache miss.
func (s *Store) CachedBars(ctx context.Context, ticker string, lookbackDays int) ([]model.Bar, error) {
	key := barsKey(ticker, lookbackDays)
	var data string
	err := s.breaker.Execute(func() error {
		var err error
		data, err = s.client.Get(ctx, key).Result()
		return err
	})
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var bars []model.Bar
	if err := json.Unmarshal([]byte(data), &bars); err != nil {
		return nil, fmt.Errorf("unmarshal cached bars for %s: %w", ticker, err)
	}
	return bars, nil
}

// PublishScan stores the scan payload as the latest result and notifies
// subscribers. payload must be JSON-marshalable.
func (s *Store) PublishScan(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal scan payload: %w", err)
	}
	return s.breaker.Execute(func() error {
		start := time.Now()
		pipe := s.client.Pipeline()
		pipe.Set(ctx, latestScanKey, data, 0)
		pipe.Publish(ctx, scanPubChannel, data)
		_, err := pipe.Exec(ctx)
		if s.m != nil {
			s.m.RedisWriteDur.Observe(time.Since(start).Seconds())
		}
		return err
	})
}

// LatestScan returns the most recently published scan payload, or nil
// when no scan has run yet.
func (s *Store) LatestScan(ctx context.Context) ([]byte, error) {
	var data string
	err := s.breaker.Execute(func() error {
		var err error
		data, err = s.client.Get(ctx, latestScanKey).Result()
		return err
	})
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", latestScanKey, err)
	}
	return []byte(data), nil
}

// SubscribeScans subscribes to scan publications. The caller listens on
// the returned handle's Channel() and must Close it.
func (s *Store) SubscribeScans(ctx context.Context) (*goredis.PubSub, error) {
	pubsub := s.client.Subscribe(ctx, scanPubChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", scanPubChannel, err)
	}
	return pubsub, nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
