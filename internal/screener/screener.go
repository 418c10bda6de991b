// Package screener runs the full analysis across a ticker universe with a
// bounded worker pool. Each ticker is analyzed atomically: its verdict
// lands in the report's results or its error lands in the failures, and
// one ticker's failure never aborts the batch.
package screener

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"sort"
	"sync"
	"time"

	"stock-analyzerv1/internal/analyzer"
	"stock-analyzerv1/internal/logger"
	"stock-analyzerv1/internal/metrics"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/notification"
	"stock-analyzerv1/internal/provider"
	"stock-analyzerv1/internal/relstrength"
	"stock-analyzerv1/internal/scoring"
	"stock-analyzerv1/internal/store/redis"
	"stock-analyzerv1/internal/store/sqlite"
)

// Result is one ticker's verdict from a scan, taken at its latest bar.
type Result struct {
	Ticker         string               `json:"ticker"`
	Recommendation model.Recommendation `json:"recommendation"`
	Score          int                  `json:"score"`
	MaxScore       int                  `json:"max_score"`
	Close          float64              `json:"close"`
	StopLoss       float64              `json:"stop_loss"`
	TakeProfit     float64              `json:"take_profit"`
}

// MarshalJSON encodes missing risk levels as null.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		StopLoss   *float64 `json:"stop_loss"`
		TakeProfit *float64 `json:"take_profit"`
	}{alias(r), model.NullableFloat(r.StopLoss), model.NullableFloat(r.TakeProfit)})
}

// Failure records a ticker the scan could not analyze.
type Failure struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// Report is the outcome of one universe scan. Failures are reported
// alongside successes, never silently dropped.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Results   []Result      `json:"results"`
	Failures  []Failure     `json:"failures"`
}

// Options wires the screener's collaborators. Source and Analyzer are
// required; everything else is optional and skipped when nil.
type Options struct {
	Source       provider.BarSource
	Analyzer     analyzer.Config
	Workers      int
	LookbackDays int

	Metrics  *metrics.Metrics
	Notifier notification.Notifier
	// Records feeds scan verdicts to the store's batching writer
	// (sqlite.Writer.Run consumes the other end).
	Records chan<- sqlite.ScanRecord
	Cache   *redis.Store
}

// Screener scans a ticker universe.
type Screener struct {
	opts Options
}

// New creates a screener.
func New(opts Options) (*Screener, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: screener needs a bar source", model.ErrInvalidConfig)
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 365
	}
	if err := opts.Analyzer.Validate(); err != nil {
		return nil, err
	}
	return &Screener{opts: opts}, nil
}

// Scan analyzes every ticker in the universe and returns the report. The
// report is also persisted, published, and alerted on where those
// collaborators are configured.
func (s *Screener) Scan(ctx context.Context, universe []string) (*Report, error) {
	if len(universe) == 0 {
		return nil, fmt.Errorf("%w: empty scan universe", model.ErrInvalidConfig)
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.ScansTotal.Inc()
	}
	report := &Report{StartedAt: time.Now()}
	ctx = logger.WithScanID(ctx, logger.NewScanID(report.StartedAt))
	benchBars := s.fetchBenchmarks(ctx, universe)

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < s.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				res, err := s.scanOne(ctx, ticker, benchBars[relstrength.BenchmarkFor(ticker)])
				mu.Lock()
				if err != nil {
					report.Failures = append(report.Failures, Failure{Ticker: ticker, Error: err.Error()})
					s.countTicker("failed")
				} else {
					report.Results = append(report.Results, res)
					s.countTicker("ok")
				}
				mu.Unlock()
			}
		}()
	}

	for _, ticker := range universe {
		select {
		case jobs <- ticker:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(report.Results, func(i, j int) bool {
		if report.Results[i].Score != report.Results[j].Score {
			return report.Results[i].Score > report.Results[j].Score
		}
		return report.Results[i].Ticker < report.Results[j].Ticker
	})
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Ticker < report.Failures[j].Ticker
	})
	report.Duration = time.Since(report.StartedAt)
	if s.opts.Metrics != nil {
		s.opts.Metrics.ScanDur.Observe(report.Duration.Seconds())
	}
	slog.Info("scan complete", append([]any{
		slog.Int("universe", len(universe)),
		slog.Int("ok", len(report.Results)),
		slog.Int("failed", len(report.Failures)),
		slog.Duration("took", report.Duration.Round(time.Millisecond)),
	}, logger.Attrs(ctx)...)...)

	s.deliver(ctx, report)
	return report, nil
}

// scanOne fetches and analyzes a single ticker, returning its latest-bar
// verdict.
func (s *Screener) scanOne(ctx context.Context, ticker string, benchBars []model.Bar) (Result, error) {
	fetchStart := time.Now()
	bars, err := s.opts.Source.DailyBars(ctx, ticker, s.opts.LookbackDays)
	if s.opts.Metrics != nil {
		s.opts.Metrics.ProviderFetchDur.Observe(time.Since(fetchStart).Seconds())
	}
	if err != nil {
		return Result{}, err
	}

	analyzeStart := time.Now()
	f, err := analyzer.Analyze(bars, ticker, s.opts.Analyzer, benchBars)
	if s.opts.Metrics != nil {
		s.opts.Metrics.AnalyzeDur.Observe(time.Since(analyzeStart).Seconds())
	}
	if err != nil {
		return Result{}, err
	}

	last := f.Len() - 1
	return Result{
		Ticker:         ticker,
		Recommendation: f.Recommendation[last],
		Score:          f.Score[last],
		MaxScore:       f.MaxScore,
		Close:          f.Bars[last].Close,
		StopLoss:       f.StopLoss[last],
		TakeProfit:     f.TakeProfit[last],
	}, nil
}

// fetchBenchmarks fetches each distinct benchmark index once, before the
// fan-out. Benchmark failures soft-fail: the relative-strength column
// stays missing and its rule contributes nothing.
func (s *Screener) fetchBenchmarks(ctx context.Context, universe []string) map[string][]model.Bar {
	out := make(map[string][]model.Bar)
	if s.opts.Analyzer.Variant != scoring.VariantDaily {
		return out
	}
	for _, ticker := range universe {
		symbol := relstrength.BenchmarkFor(ticker)
		if _, seen := out[symbol]; seen {
			continue
		}
		bars, err := s.opts.Source.DailyBars(ctx, symbol, s.opts.LookbackDays)
		if err != nil {
			log.Printf("[screener] benchmark %s unavailable: %v", symbol, err)
			out[symbol] = nil
			continue
		}
		out[symbol] = bars
	}
	return out
}

// deliver persists, publishes, and alerts on a finished report.
func (s *Screener) deliver(ctx context.Context, report *Report) {
	for _, r := range report.Results {
		if s.opts.Records != nil {
			rec := sqlite.ScanRecord{
				Ticker:         r.Ticker,
				ScannedAt:      report.StartedAt,
				Score:          r.Score,
				MaxScore:       r.MaxScore,
				Recommendation: r.Recommendation,
				Close:          r.Close,
				StopLoss:       r.StopLoss,
				TakeProfit:     r.TakeProfit,
			}
			select {
			case s.opts.Records <- rec:
			case <-ctx.Done():
				log.Printf("[screener] persist %s dropped: %v", r.Ticker, ctx.Err())
			}
		}

		if r.Recommendation == model.RecStrongBuy {
			if s.opts.Metrics != nil {
				s.opts.Metrics.StrongBuyTotal.Inc()
			}
			if s.opts.Notifier != nil {
				alert := notification.SignalAlert(r.Ticker, r.Recommendation,
					r.Score, r.MaxScore, r.Close, r.StopLoss, r.TakeProfit)
				if err := s.opts.Notifier.Send(ctx, alert); err != nil {
					log.Printf("[screener] alert for %s failed: %v", r.Ticker, err)
				}
			}
		}
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.PublishScan(ctx, report); err != nil {
			log.Printf("[screener] publish scan failed: %v", err)
		}
	}
}

func (s *Screener) countTicker(outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.TickersScanned.WithLabelValues(outcome).Inc()
	}
}
