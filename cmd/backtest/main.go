// cmd/backtest replays a ticker's scored frame through a strategy and
// prints the resulting statistics.
//
// Usage:
//
//	go run ./cmd/backtest --ticker=AAPL --strategy=score
//	go run ./cmd/backtest --ticker=AAPL --strategy=meanrev --json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"stock-analyzerv1/config"
	"stock-analyzerv1/internal/analyzer"
	"stock-analyzerv1/internal/backtest"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/provider"
	"stock-analyzerv1/internal/relstrength"
	"stock-analyzerv1/internal/scoring"
	sqlitestore "stock-analyzerv1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	_ = godotenv.Load()

	ticker := flag.String("ticker", "", "Ticker to backtest (required)")
	strategy := flag.String("strategy", "score", "Strategy: score or meanrev")
	entry := flag.Int("entry", 0, "Score strategy entry threshold (0 = derived from max score)")
	exit := flag.Int("exit", 0, "Score strategy exit threshold (0 = derived from max score)")
	configPath := flag.String("config", "", "Path to YAML config")
	asJSON := flag.Bool("json", false, "Print stats as JSON")
	flag.Parse()

	if *ticker == "" {
		flag.Usage()
		os.Exit(2)
	}

	var rules backtest.Rules
	switch *strategy {
	case "score":
		rules = backtest.ScoreRules(*entry, *exit)
	case "meanrev":
		rules = backtest.MeanReversionRules()
	default:
		log.Fatalf("[backtest] unknown strategy %q", *strategy)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[backtest] config: %v", err)
	}

	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	ctx := context.Background()
	source := provider.NewSQLiteSource(reader)

	bars, err := source.DailyBars(ctx, *ticker, cfg.LookbackDays)
	if err != nil {
		log.Fatalf("[backtest] fetch %s: %v", *ticker, err)
	}

	var benchBars []model.Bar
	if cfg.Analyzer.Variant == scoring.VariantDaily {
		symbol := relstrength.BenchmarkFor(*ticker)
		if benchBars, err = source.DailyBars(ctx, symbol, cfg.LookbackDays); err != nil {
			log.Printf("[backtest] benchmark %s unavailable: %v", symbol, err)
			benchBars = nil
		}
	}

	f, err := analyzer.Analyze(bars, *ticker, cfg.Analyzer, benchBars)
	if err != nil {
		log.Fatalf("[backtest] analyze %s: %v", *ticker, err)
	}

	engine, err := backtest.New(cfg.Backtest)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	stats, err := engine.Run(f, rules)
	if err != nil {
		log.Fatalf("[backtest] run %s: %v", *ticker, err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			log.Fatalf("[backtest] encode: %v", err)
		}
		return
	}

	printStats(stats)
}

func printStats(s *backtest.Stats) {
	fmt.Printf("%s  strategy %s  %d bars\n", s.Ticker, s.Strategy, s.Bars)
	fmt.Printf("trades:        %d\n", s.NumTrades)
	fmt.Printf("total return:  %.2f%%\n", s.TotalReturnPct)
	fmt.Printf("win rate:      %.1f%%\n", s.WinRatePct)
	if s.ProfitFactor > 0 {
		fmt.Printf("profit factor: %.2f\n", s.ProfitFactor)
	}
	fmt.Printf("max drawdown:  %.2f%%\n", s.MaxDrawdownPct)
	for _, tr := range s.Trades {
		fmt.Printf("  %s -> %s  %.2f -> %.2f  %+.2f%%\n",
			tr.EntryDate.Format("2006-01-02"), tr.ExitDate.Format("2006-01-02"),
			tr.EntryPrice, tr.ExitPrice, tr.ReturnPct)
	}
}
