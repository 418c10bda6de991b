// cmd/screener is the long-running analysis service: it scans the ticker
// universe on a cron schedule, publishes reports through Redis, serves
// the REST/WebSocket gateway, and exposes Prometheus metrics.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"stock-analyzerv1/config"
	"stock-analyzerv1/internal/gateway"
	"stock-analyzerv1/internal/logger"
	"stock-analyzerv1/internal/metrics"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/notification"
	"stock-analyzerv1/internal/pairs"
	"stock-analyzerv1/internal/provider"
	"stock-analyzerv1/internal/scheduler"
	"stock-analyzerv1/internal/screener"
	redisstore "stock-analyzerv1/internal/store/redis"
	sqlitestore "stock-analyzerv1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[screener] starting...")
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config")
	scanOnStart := flag.Bool("scan-on-start", false, "Run one scan immediately at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[screener] config: %v", err)
	}
	logger.Init("screener", slog.LevelInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Metrics and health ----
	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetUniverseSize(len(cfg.Universe))

	// ---- Storage ----
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath, Metrics: m})
	if err != nil {
		log.Fatalf("[screener] sqlite open failed: %v", err)
	}
	defer writer.Close()
	health.SetSQLiteOK(true)

	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[screener] sqlite reader failed: %v", err)
	}
	defer reader.Close()

	// Redis is optional: without it the service degrades to local-only
	// operation (no series cache, no report publication, no WS feed).
	rstore, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		TTL:      time.Duration(cfg.CacheTTLHours) * time.Hour,
		Metrics:  m,
	})
	if err != nil {
		log.Printf("[screener] WARNING: redis unavailable, running without cache/publication: %v", err)
		rstore = nil
	} else {
		defer rstore.Close()
		health.SetRedisConnected(true)
	}

	// ---- Bar source: sqlite behind the provider chain, Redis in front ----
	chain := provider.NewChain(
		provider.DefaultSourceTimeout,
		provider.NewSQLiteSource(reader),
	)
	chain.Metrics = m
	var source provider.BarSource = chain
	if rstore != nil {
		source = provider.NewCache(source, rstore, m)
	}

	// ---- Notifications ----
	backends := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID))
	}
	notifier := notification.NewMulti(backends...)

	// ---- Screener ----
	// Scan verdicts flow through the store's batching writer; cancelling
	// ctx flushes whatever is still buffered.
	recordCh := make(chan sqlitestore.ScanRecord, 256)
	writerDone := make(chan struct{})
	go func() {
		writer.Run(ctx, recordCh)
		close(writerDone)
	}()

	scr, err := screener.New(screener.Options{
		Source:       source,
		Analyzer:     cfg.Analyzer,
		Workers:      cfg.Workers,
		LookbackDays: cfg.LookbackDays,
		Metrics:      m,
		Notifier:     notifier,
		Records:      recordCh,
		Cache:        rstore,
	})
	if err != nil {
		log.Fatalf("[screener] %v", err)
	}

	// ---- Scheduler ----
	sched := scheduler.New(ctx, scr, cfg.Universe)
	sched.PairScan = func(ctx context.Context) {
		health.SetLastScanTime(time.Now())
		runPairScan(ctx, source, cfg, m)
	}
	if cfg.ScanSchedule != "" {
		if err := sched.Register(cfg.ScanSchedule); err != nil {
			log.Fatalf("[screener] %v", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Printf("[screener] scan scheduled: %q over %d tickers", cfg.ScanSchedule, len(cfg.Universe))
	}
	if *scanOnStart {
		go sched.RunNow()
	}

	// ---- Metrics server ----
	var rdb *goredis.Client
	if rstore != nil {
		rdb = rstore.Client()
	}
	health.StartLivenessChecker(ctx, rdb, writer.DB(), 30*time.Second)
	msrv := metrics.NewServer(cfg.MetricsAddr, health)
	msrv.Start()

	// ---- Gateway ----
	hub := gateway.NewHub()
	if rstore != nil {
		go hub.Run(ctx, rstore)
	}
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, gateway.Deps{
		Source:       source,
		Analyzer:     cfg.Analyzer,
		Backtest:     cfg.Backtest,
		Pairs:        cfg.Pairs,
		Universe:     cfg.Universe,
		LookbackDays: cfg.LookbackDays,
		Cache:        rstore,
		Metrics:      m,
		Start:        time.Now(),
	})
	gwSrv := &http.Server{Addr: cfg.GatewayAddr, Handler: mux}
	go func() {
		log.Printf("[screener] gateway listening on %s", cfg.GatewayAddr)
		if err := gwSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[screener] gateway error: %v", err)
		}
	}()

	// ---- Graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[screener] shutting down...")

	cancel()
	<-writerDone // final batch flushed before the database closes
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	gwSrv.Shutdown(shutdownCtx)
	msrv.Stop(shutdownCtx)
}

// runPairScan tests the universe for cointegrated pairs after each scan.
func runPairScan(ctx context.Context, source provider.BarSource, cfg *config.Config, m *metrics.Metrics) {
	if len(cfg.Universe) < 2 {
		return
	}
	start := time.Now()

	series := make(map[string][]model.Bar, len(cfg.Universe))
	for _, ticker := range cfg.Universe {
		bars, err := source.DailyBars(ctx, ticker, cfg.LookbackDays)
		if err != nil {
			log.Printf("[screener] pair scan skipping %s: %v", ticker, err)
			continue
		}
		series[ticker] = bars
	}

	results, err := pairs.FindCointegratedPairs(series, cfg.Pairs)
	if err != nil {
		log.Printf("[screener] pair scan failed: %v", err)
		return
	}

	n := len(series)
	m.PairsTested.Add(float64(n * (n - 1) / 2))
	m.PairsFound.Set(float64(len(results)))
	m.PairScanDur.Observe(time.Since(start).Seconds())

	log.Printf("[screener] pair scan: %d tickers, %d cointegrated pairs in %v",
		n, len(results), time.Since(start).Round(time.Millisecond))
	for _, r := range results {
		log.Printf("[screener]   %s/%s p=%.4f beta=%.3f (%d bars)", r.TickerA, r.TickerB, r.PValue, r.Beta, r.Bars)
	}
}
