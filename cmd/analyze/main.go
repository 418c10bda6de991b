// cmd/analyze scores a single ticker from the local bar store and prints
// its latest verdict: score, recommendation, and risk levels.
//
// Usage:
//
//	go run ./cmd/analyze --ticker=AAPL --config=config.yaml [--json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"stock-analyzerv1/config"
	"stock-analyzerv1/internal/analyzer"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/provider"
	"stock-analyzerv1/internal/relstrength"
	"stock-analyzerv1/internal/scoring"
	sqlitestore "stock-analyzerv1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	_ = godotenv.Load()

	ticker := flag.String("ticker", "", "Ticker to analyze (required)")
	configPath := flag.String("config", "", "Path to YAML config")
	asJSON := flag.Bool("json", false, "Print the full indicator frame as JSON")
	flag.Parse()

	if *ticker == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[analyze] config: %v", err)
	}

	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[analyze] sqlite open failed: %v", err)
	}
	defer reader.Close()

	ctx := context.Background()
	source := provider.NewSQLiteSource(reader)

	bars, err := source.DailyBars(ctx, *ticker, cfg.LookbackDays)
	if err != nil {
		log.Fatalf("[analyze] fetch %s: %v", *ticker, err)
	}

	var benchBars []model.Bar
	if cfg.Analyzer.Variant == scoring.VariantDaily {
		symbol := relstrength.BenchmarkFor(*ticker)
		if benchBars, err = source.DailyBars(ctx, symbol, cfg.LookbackDays); err != nil {
			log.Printf("[analyze] benchmark %s unavailable: %v", symbol, err)
			benchBars = nil
		}
	}

	f, err := analyzer.Analyze(bars, *ticker, cfg.Analyzer, benchBars)
	if err != nil && !errors.Is(err, model.ErrInsufficientData) {
		log.Fatalf("[analyze] %s: %v", *ticker, err)
	}
	if err != nil {
		log.Printf("[analyze] %s: %v (partial frame)", *ticker, err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			log.Fatalf("[analyze] encode: %v", err)
		}
		return
	}

	printSummary(f)
}

func printSummary(f *model.IndicatorFrame) {
	last := f.Len() - 1
	bar := f.Bars[last]

	fmt.Printf("%s  %s  close %.2f\n", f.Ticker, bar.Date.Format("2006-01-02"), bar.Close)
	if len(f.Score) == 0 {
		fmt.Println("score: not computable (insufficient history)")
		return
	}

	fmt.Printf("score: %d/%d  %s\n", f.Score[last], f.MaxScore, f.Recommendation[last])
	if !model.IsMissing(f.StopLoss[last]) {
		fmt.Printf("stop loss: %.2f  take profit: %.2f\n", f.StopLoss[last], f.TakeProfit[last])
	}

	printCol := func(name string, col []float64) {
		if len(col) == 0 || model.IsMissing(col[last]) {
			return
		}
		fmt.Printf("%-12s %.2f\n", name, col[last])
	}
	printCol("sma_short", f.SMAShort)
	printCol("sma_long", f.SMALong)
	printCol("rsi", f.RSI)
	printCol("macd_hist", f.MACDHist)
	printCol("atr", f.ATR)
	printCol("bb_upper", f.BBUpper)
	printCol("bb_lower", f.BBLower)
	printCol("rel_strength", f.RelStrength)
}
