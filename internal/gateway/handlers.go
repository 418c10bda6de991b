package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"stock-analyzerv1/internal/analyzer"
	"stock-analyzerv1/internal/backtest"
	"stock-analyzerv1/internal/markethours"
	"stock-analyzerv1/internal/metrics"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/pairs"
	"stock-analyzerv1/internal/provider"
	"stock-analyzerv1/internal/relstrength"
	"stock-analyzerv1/internal/scoring"
	"stock-analyzerv1/internal/store/redis"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Deps wires the gateway's collaborators.
type Deps struct {
	Source       provider.BarSource
	Analyzer     analyzer.Config
	Backtest     backtest.Config
	Pairs        pairs.Options
	Universe     []string
	LookbackDays int
	Cache        *redis.Store     // optional
	Metrics      *metrics.Metrics // optional
	Start        time.Time
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFor maps the typed error taxonomy to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInsufficientData),
		errors.Is(err, model.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, deps Deps) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		hub.HandleWSRequest(conn)
	})

	// REST: full indicator frame for one ticker
	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		ticker := r.URL.Query().Get("ticker")
		if ticker == "" {
			writeErr(w, http.StatusBadRequest, "ticker is required")
			return
		}
		f, err := analyzeTicker(r.Context(), deps, ticker)
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, f)
	})

	// REST: backtest one ticker with a named strategy
	mux.HandleFunc("/api/backtest", func(w http.ResponseWriter, r *http.Request) {
		ticker := r.URL.Query().Get("ticker")
		if ticker == "" {
			writeErr(w, http.StatusBadRequest, "ticker is required")
			return
		}
		rules, err := strategyFromQuery(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}

		f, err := analyzeTicker(r.Context(), deps, ticker)
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}
		engine, err := backtest.New(deps.Backtest)
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}
		start := time.Now()
		stats, err := engine.Run(f, rules)
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}
		if deps.Metrics != nil {
			deps.Metrics.BacktestsTotal.Inc()
			deps.Metrics.BacktestDur.Observe(time.Since(start).Seconds())
		}
		writeJSON(w, http.StatusOK, stats)
	})

	// REST: cointegration scan over the configured universe, or the
	// spread series for one pair via ?spread=A,B
	mux.HandleFunc("/api/pairs", func(w http.ResponseWriter, r *http.Request) {
		if spread := r.URL.Query().Get("spread"); spread != "" {
			handleSpread(w, r, deps, spread)
			return
		}

		series := make(map[string][]model.Bar, len(deps.Universe))
		for _, ticker := range deps.Universe {
			bars, err := deps.Source.DailyBars(r.Context(), ticker, deps.LookbackDays)
			if err != nil {
				log.Printf("[gateway] pairs scan skipping %s: %v", ticker, err)
				continue
			}
			series[ticker] = bars
		}
		results, err := pairs.FindCointegratedPairs(series, deps.Pairs)
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"tested_universe": len(series),
			"pairs":           results,
		})
	})

	// REST: latest published scan report
	mux.HandleFunc("/api/scan/latest", func(w http.ResponseWriter, r *http.Request) {
		latest := hub.Latest()
		if latest == nil && deps.Cache != nil {
			if data, err := deps.Cache.LatestScan(r.Context()); err == nil {
				latest = data
			}
		}
		if latest == nil {
			writeErr(w, http.StatusNotFound, "no scan has run yet")
			return
		}
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		w.Write(latest)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		redisOK := deps.Cache != nil
		if deps.Cache != nil {
			redisOK = deps.Cache.Client().Ping(r.Context()).Err() == nil
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"redis":      redisOK,
			"ws_clients": hub.ClientCount(),
			"market":     markethours.StatusString(time.Now()),
			"uptime_sec": int64(time.Since(deps.Start).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

// analyzeTicker fetches bars (and the benchmark, for the daily variant)
// and computes the full frame.
func analyzeTicker(ctx context.Context, deps Deps, ticker string) (*model.IndicatorFrame, error) {
	bars, err := deps.Source.DailyBars(ctx, ticker, deps.LookbackDays)
	if err != nil {
		return nil, err
	}

	var benchBars []model.Bar
	if deps.Analyzer.Variant == scoring.VariantDaily {
		symbol := relstrength.BenchmarkFor(ticker)
		if benchBars, err = deps.Source.DailyBars(ctx, symbol, deps.LookbackDays); err != nil {
			log.Printf("[gateway] benchmark %s unavailable for %s: %v", symbol, ticker, err)
			benchBars = nil
		}
	}
	return analyzer.Analyze(bars, ticker, deps.Analyzer, benchBars)
}

func strategyFromQuery(r *http.Request) (backtest.Rules, error) {
	switch name := r.URL.Query().Get("strategy"); name {
	case "", "score":
		entry := intParam(r, "entry")
		exit := intParam(r, "exit")
		return backtest.ScoreRules(entry, exit), nil
	case "meanrev":
		return backtest.MeanReversionRules(), nil
	default:
		return backtest.Rules{}, errors.New("unknown strategy " + strconv.Quote(name))
	}
}

func intParam(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func handleSpread(w http.ResponseWriter, r *http.Request, deps Deps, spread string) {
	parts := strings.Split(spread, ",")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeErr(w, http.StatusBadRequest, "spread takes two tickers: ?spread=A,B")
		return
	}
	barsA, err := deps.Source.DailyBars(r.Context(), parts[0], deps.LookbackDays)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	barsB, err := deps.Source.DailyBars(r.Context(), parts[1], deps.LookbackDays)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	s, err := pairs.Spread(parts[0], barsA, parts[1], barsB, deps.Pairs.SpreadWindow)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}
