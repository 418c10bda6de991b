// cmd/pairscan runs the cointegration scan over a ticker universe and
// optionally prints the standardized spread for one pair.
//
// Usage:
//
//	go run ./cmd/pairscan --config=config.yaml
//	go run ./cmd/pairscan --tickers=KO,PEP,AAPL --spread=KO,PEP
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"stock-analyzerv1/config"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/pairs"
	"stock-analyzerv1/internal/provider"
	sqlitestore "stock-analyzerv1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config")
	tickersFlag := flag.String("tickers", "", "Comma-separated universe override")
	spreadFlag := flag.String("spread", "", "Print the spread for one pair: A,B")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[pairscan] config: %v", err)
	}

	universe := cfg.Universe
	if *tickersFlag != "" {
		universe = splitList(*tickersFlag)
	}
	if len(universe) < 2 {
		log.Fatalf("[pairscan] need at least two tickers, got %d", len(universe))
	}

	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[pairscan] sqlite open failed: %v", err)
	}
	defer reader.Close()

	ctx := context.Background()
	source := provider.NewSQLiteSource(reader)

	series := make(map[string][]model.Bar, len(universe))
	for _, ticker := range universe {
		bars, err := source.DailyBars(ctx, ticker, cfg.LookbackDays)
		if err != nil {
			log.Printf("[pairscan] skipping %s: %v", ticker, err)
			continue
		}
		series[ticker] = bars
	}

	if *spreadFlag != "" {
		printSpread(series, *spreadFlag, cfg.Pairs.SpreadWindow)
		return
	}

	results, err := pairs.FindCointegratedPairs(series, cfg.Pairs)
	if err != nil {
		log.Fatalf("[pairscan] %v", err)
	}

	fmt.Printf("tested %d tickers, %d cointegrated pairs (p < %.3f)\n",
		len(series), len(results), cfg.Pairs.PValueThreshold)
	for _, r := range results {
		fmt.Printf("  %-6s %-6s  p=%.4f  tau=%.3f  beta=%.3f  (%d bars)\n",
			r.TickerA, r.TickerB, r.PValue, r.TStat, r.Beta, r.Bars)
	}
}

func printSpread(series map[string][]model.Bar, pair string, window int) {
	parts := splitList(pair)
	if len(parts) != 2 {
		log.Fatalf("[pairscan] --spread takes two tickers: A,B")
	}
	s, err := pairs.Spread(parts[0], series[parts[0]], parts[1], series[parts[1]], window)
	if err != nil {
		log.Fatalf("[pairscan] spread %s/%s: %v", parts[0], parts[1], err)
	}

	fmt.Printf("%s/%s ratio spread, %d shared dates, window %d\n",
		s.TickerA, s.TickerB, s.Len(), window)
	for i := range s.Dates {
		if model.IsMissing(s.ZScore[i]) {
			continue
		}
		marker := ""
		if s.ZScore[i] >= 2 || s.ZScore[i] <= -2 {
			marker = "  <-- |z| >= 2"
		}
		fmt.Printf("  %s  ratio %.4f  mean %.4f  z %+.2f%s\n",
			s.Dates[i].Format("2006-01-02"), s.Ratio[i], s.Mean[i], s.ZScore[i], marker)
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
