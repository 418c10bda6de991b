package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analyzer services.
type Metrics struct {
	// Screener
	ScansTotal      prometheus.Counter
	ScanDur         prometheus.Histogram
	TickersScanned  *prometheus.CounterVec // labels: outcome=ok|failed
	StrongBuyTotal  prometheus.Counter
	AnalyzeDur      prometheus.Histogram

	// Backtest + pairs
	BacktestsTotal  prometheus.Counter
	BacktestDur     prometheus.Histogram
	PairsTested     prometheus.Counter
	PairsFound      prometheus.Gauge
	PairScanDur     prometheus.Histogram

	// Providers and storage
	ProviderFetchDur prometheus.Histogram
	ProviderFailures *prometheus.CounterVec // labels: source
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	SQLiteCommitDur  prometheus.Histogram
	RedisWriteDur    prometheus.Histogram

	// Circuit breaker state (0=closed, 1=open, 2=half-open)
	RedisCircuitBreakerState prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_scans_total",
			Help: "Total screener scans started",
		}),
		ScanDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_scan_duration_seconds",
			Help:    "Full universe scan latency",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		TickersScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyzer_tickers_scanned_total",
			Help: "Per-ticker scan outcomes",
		}, []string{"outcome"}),
		StrongBuyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_strong_buy_signals_total",
			Help: "Strong Buy recommendations emitted by scans",
		}),
		AnalyzeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_analyze_duration_seconds",
			Help:    "Single-ticker indicator frame computation latency",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		BacktestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_backtests_total",
			Help: "Backtest runs completed",
		}),
		BacktestDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_backtest_duration_seconds",
			Help:    "Backtest replay latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		PairsTested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_pairs_tested_total",
			Help: "Ticker pairs run through the cointegration test",
		}),
		PairsFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analyzer_cointegrated_pairs",
			Help: "Cointegrated pairs found by the latest scan",
		}),
		PairScanDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_pair_scan_duration_seconds",
			Help:    "Full pair-universe scan latency",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		ProviderFetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_provider_fetch_duration_seconds",
			Help:    "Daily bar fetch latency per ticker",
			Buckets: prometheus.DefBuckets,
		}),
		ProviderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyzer_provider_failures_total",
			Help: "Bar source failures by source",
		}, []string{"source"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_series_cache_hits_total",
			Help: "Bar series served from the Redis cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_series_cache_misses_total",
			Help: "Bar series fetched from an upstream source",
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_sqlite_commit_duration_seconds",
			Help:    "SQLite batch commit latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_redis_write_duration_seconds",
			Help:    "Redis write latency",
			Buckets: prometheus.DefBuckets,
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analyzer_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
	}

	prometheus.MustRegister(
		m.ScansTotal,
		m.ScanDur,
		m.TickersScanned,
		m.StrongBuyTotal,
		m.AnalyzeDur,
		m.BacktestsTotal,
		m.BacktestDur,
		m.PairsTested,
		m.PairsFound,
		m.PairScanDur,
		m.ProviderFetchDur,
		m.ProviderFailures,
		m.CacheHits,
		m.CacheMisses,
		m.SQLiteCommitDur,
		m.RedisWriteDur,
		m.RedisCircuitBreakerState,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastScanTime   time.Time `json:"last_scan_time"`
	UniverseSize   int       `json:"universe_size"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastScanTime(t time.Time) {
	h.mu.Lock()
	h.LastScanTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetUniverseSize(n int) {
	h.mu.Lock()
	h.UniverseSize = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	if !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.SQLiteOK {
		overallStatus = "unhealthy"
	}

	scanAge := ""
	if !h.LastScanTime.IsZero() {
		scanAge = time.Since(h.LastScanTime).Round(time.Second).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastScanTime    string  `json:"last_scan_time"`
		ScanAge         string  `json:"scan_age"`
		UniverseSize    int     `json:"universe_size"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastScanTime:    h.LastScanTime.Format(time.RFC3339),
		ScanAge:         scanAge,
		UniverseSize:    h.UniverseSize,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
